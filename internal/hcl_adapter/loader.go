package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/supplymart/internal/config"
	"github.com/specialistvlad/supplymart/internal/ctxlog"
	"github.com/specialistvlad/supplymart/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths and merges their blocks into one
// model. Relative paths inside a file are resolved against that file's
// directory.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := evalContext()
	m := newMerger()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := m.merge(ctx, file, &root, evalCtx); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if m.model.RawDir == "" {
		// Without a warehouse block sources are read next to the first file.
		m.model.RawDir = filepath.Dir(files[0])
	}
	if len(m.model.Sources) == 0 {
		m.model.Sources = config.DefaultSources()
	}

	logger.Debug("HCL loading complete.",
		"sources", len(m.model.Sources),
		"expectations", len(m.model.Expectations),
		"row_counts", len(m.model.RowCounts),
		"raw_dir", m.model.RawDir,
	)
	return m.model, nil
}
