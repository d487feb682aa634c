package xlcalc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xlcalc.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
max_range_cells = 100
log_level = "debug"
log_format = "json"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxRangeCells)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_MissingFileIsDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
	assert.Empty(t, cfg.Options(nil))
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "max_range_cells = ", "parsing"},
		{"level", `log_level = "loud"`, "unknown log_level"},
		{"format", `log_format = "xml"`, "unknown log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_OptionsApplyToWorkbook(t *testing.T) {
	cfg := &Config{MaxRangeCells: 4, LogLevel: "debug", LogFormat: "json"}
	var logs bytes.Buffer

	wb := NewWorkbook(cfg.Options(&logs)...)
	_, err := wb.ApplyFullReplace(Snapshot{{
		Name: "Sheet1",
		Cells: []CellSnapshot{
			{ID: MustCellID("B1"), Content: Formula("=SUM(A1:A10)")},
		},
	}})
	require.NoError(t, err)

	assert.Equal(t, Error(ErrorRef), cellValue(t, wb, "Sheet1", "B1"))
	assert.Contains(t, logs.String(), `"msg":"workbook replaced"`)
	assert.Contains(t, logs.String(), `"msg":"recalculated"`)
}

func TestConfig_TextLoggerRespectsLevel(t *testing.T) {
	var logs bytes.Buffer
	logger := (&Config{LogLevel: "warn"}).Logger(&logs)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, logs.String(), "hidden")
	assert.Contains(t, logs.String(), "msg=shown")
}
