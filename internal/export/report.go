package export

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/specialistvlad/supplymart/internal/quality"
	"gopkg.in/yaml.v3"
)

// WriteReport writes the verification report to path as YAML.
func WriteReport(path string, report *quality.Report) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
