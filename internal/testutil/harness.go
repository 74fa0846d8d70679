package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/supplymart/internal/app"
	"github.com/specialistvlad/supplymart/internal/hcl_adapter"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// ConfigFile is the name the harness writes the pipeline file under.
const ConfigFile = "mart.hcl"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir       string
	LogOutput string
	Err       error
	App       *app.App
}

// ReferenceFiles returns the reference pipeline file with its raw sources
// under raw/, ready for WriteFiles.
func ReferenceFiles() map[string]string {
	files := map[string]string{ConfigFile: ReferenceConfig()}
	for name, content := range ReferenceRawFiles() {
		files[filepath.Join("raw", name)] = content
	}
	return files
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, configure)
}

// RunIntegrationTestWithContext writes files into a fresh directory, points
// the app at its mart.hcl and runs one build. configure may adjust the app
// config before it is validated.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(*app.Config)) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)

	cfg := app.Config{
		ConfigPath: filepath.Join(dir, ConfigFile),
		LogLevel:   "debug",
		LogFormat:  "text",
	}
	if configure != nil {
		configure(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp, err := app.NewApp(logBuffer, appConfig, hcl_adapter.NewLoader())
	if err == nil {
		err = testApp.Run(ctx)
	}

	if os.Getenv("SUPPLYMART_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Dir:       dir,
		LogOutput: logBuffer.String(),
		Err:       err,
		App:       testApp,
	}
}
