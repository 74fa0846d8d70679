// Package publish copies a finished mart into a MySQL schema. Each table is
// dropped, recreated from its row type and refilled in batches.
package publish

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/mart"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultBatchSize is used when no positive batch size is configured.
const DefaultBatchSize = 500

// Publisher writes marts to a database.
type Publisher struct {
	db        *gorm.DB
	batchSize int
}

// Open connects to the MySQL schema named in dsn.
func Open(dsn string, batchSize int) (*Publisher, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to publish target: %w", err)
	}
	return New(db, batchSize), nil
}

// New wraps an open gorm connection.
func New(db *gorm.DB, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Publisher{db: db, batchSize: batchSize}
}

// Publish replaces every mart table in the target schema. Tables are
// replaced one at a time; a failure leaves the tables before it published.
func (p *Publisher) Publish(ctx context.Context, m *mart.Mart) error {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	for _, t := range m.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.replace(ctx, t); err != nil {
			return fmt.Errorf("publishing %s: %w", t.Name, err)
		}
		logger.Debug("Table published.", "table", t.Name, "rows", t.Len)
	}

	logger.Info("Mart published.", "tables", len(m.Tables()), "duration", time.Since(start))
	return nil
}

func (p *Publisher) replace(ctx context.Context, t mart.Table) error {
	db := p.db.WithContext(ctx)

	if err := db.Exec("DROP TABLE IF EXISTS ?", clause.Table{Name: t.Name}).Error; err != nil {
		return err
	}

	model := reflect.New(reflect.TypeOf(t.Rows).Elem()).Interface()
	if err := db.Table(t.Name).Migrator().CreateTable(model); err != nil {
		return err
	}

	if t.Len == 0 {
		return nil
	}
	return db.Table(t.Name).CreateInBatches(t.Rows, p.batchSize).Error
}

// Close releases the underlying connection pool.
func (p *Publisher) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
