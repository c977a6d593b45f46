package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/findtext/internal/config"
	"github.com/Aman-CERP/findtext/internal/preflight"
	"github.com/Aman-CERP/findtext/pkg/version"
)

func TestHistoryCmd_Clear(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "one\n"})

	// Given: two recorded searches
	for range 2 {
		_, _, err := execute(t, nil, "search", "one", root)
		require.NoError(t, err)
	}

	// When: clearing history
	stdout, _, err := execute(t, nil, "history", "clear")

	// Then: both are removed
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 2 searches")

	stdout, _, err = execute(t, nil, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No searches recorded.")
}

func TestHistoryCmd_TextAndLimit(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "one\n"})
	for _, q := range []string{"first", "second", "third"} {
		_, _, err := execute(t, nil, "search", q, root)
		require.NoError(t, err)
	}

	stdout, _, err := execute(t, nil, "history", "-n", "2")

	require.NoError(t, err)
	assert.Len(t, lines(stdout), 2)
	assert.Contains(t, stdout, `"third"`)
	assert.NotContains(t, stdout, `"first"`)
}

func TestHistoryCmd_Disabled(t *testing.T) {
	isolate(t)
	t.Setenv("FINDTEXT_HISTORY", "false")

	_, _, err := execute(t, nil, "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestConfigCmd_InitUser(t *testing.T) {
	isolate(t)

	// When: creating the user config twice, the second time with --force
	stdout, _, err := execute(t, nil, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created user configuration")
	assert.FileExists(t, config.GetUserConfigPath())

	stdout, _, err = execute(t, nil, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")

	stdout, _, err = execute(t, nil, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Backup:")

	// Then: the replaced file can be restored from its backup
	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	stdout, _, err = execute(t, nil, "config", "restore", "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, backups[0])

	stdout, _, err = execute(t, nil, "config", "restore")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Restored user configuration")
}

func TestConfigCmd_InitProject(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	stdout, _, err := execute(t, nil, "config", "init", "--project", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Created project configuration")
	assert.Equal(t, filepath.Join(dir, ".findtext.yaml"), config.ProjectConfigPath(dir))

	// The template must load cleanly.
	_, err = config.Load(dir)
	assert.NoError(t, err)
}

func TestConfigCmd_Show(t *testing.T) {
	isolate(t)
	dir := writeTree(t, map[string]string{
		".findtext.yaml": "search:\n  concurrency: 3\n",
	})
	saved := filepath.Join(t.TempDir(), "saved.yaml")

	// When: showing the merged config for dir
	stdout, _, err := execute(t, nil, "config", "show", dir, "--save", saved)

	// Then: the project value wins over the default
	require.NoError(t, err)
	assert.Contains(t, stdout, "concurrency: 3")

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), "concurrency: 3")

	stdout, _, err = execute(t, nil, "config", "show", "--json", "--source", "defaults")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 0, cfg.Search.Concurrency)

	_, _, err = execute(t, nil, "config", "show", "--source", "bogus")
	assert.Error(t, err)
}

func TestConfigCmd_Path(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, nil, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, stdout, "user config: "+config.GetUserConfigPath())
	assert.Contains(t, stdout, "history: "+filepath.Join(os.Getenv("FINDTEXT_HOME"), "history.db"))
	assert.Contains(t, stdout, "log: ")
}

func TestDoctorCmd(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "x\n"})

	t.Run("healthy root", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "doctor", root)

		require.NoError(t, err)
		assert.Contains(t, stdout, "findtext doctor")
		assert.Contains(t, stdout, "[PASS] root: "+root)
		assert.Contains(t, stdout, "Status: READY")
	})

	t.Run("missing root fails", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "doctor", filepath.Join(root, "missing"))

		var exit *ExitError
		require.True(t, errors.As(err, &exit))
		assert.Equal(t, exitError, exit.Code)
		assert.Contains(t, stdout, "[FAIL] root: Directory not found")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "doctor", root, "--json")
		require.NoError(t, err)

		var report struct {
			Status string                  `json:"status"`
			Checks []preflight.CheckResult `json:"checks"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &report))
		assert.NotEqual(t, "failed", report.Status)
		require.NotEmpty(t, report.Checks)
		assert.Equal(t, "root", report.Checks[0].Name)
		assert.Contains(t, stdout, `"status": "pass"`)
	})
}

func TestVersionCmd(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"version"}, "findtext " + version.Version},
		{"short", []string{"version", "--short"}, version.Short()},
		{"json", []string{"version", "--json"}, `"version"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, nil, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestServe_UnknownTransport(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "x\n"})

	err := runServe(context.Background(), "http", root)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestServe_InvalidRoot(t *testing.T) {
	isolate(t)

	err := runServe(context.Background(), "stdio", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Directory not found")
}

func TestLogsCmd(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "x\n"})

	// Given: a search that wrote log records
	_, _, err := execute(t, nil, "search", "x", root)
	require.NoError(t, err)

	// When: viewing the log filtered to the finish record
	stdout, _, err := execute(t, nil, "logs", "--grep", "search_finished", "--no-color")

	// Then: one formatted line is shown
	require.NoError(t, err)
	out := lines(stdout)
	require.NotEmpty(t, out)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}\.\d{3} INFO +search_finished`, out[len(out)-1])
	assert.Contains(t, out[len(out)-1], "outcome=completed")
	for _, l := range out {
		assert.True(t, strings.Contains(l, "search_finished"), l)
	}
}

func TestLogsCmd_BadPattern(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, nil, "version")
	require.NoError(t, err)

	_, _, err = execute(t, nil, "logs", "--grep", "(")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --grep pattern")
}
