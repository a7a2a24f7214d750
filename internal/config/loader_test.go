package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrill/review-placer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Placement.MaxComments)
	assert.Equal(t, 60, cfg.Placement.PlatformCeiling)
	assert.Equal(t, "LOW", cfg.Placement.SeverityThreshold)
	assert.Equal(t, 10, cfg.Placement.AdjustTolerance)
	assert.Equal(t, ".", cfg.Git.RepositoryDir)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
placement:
  maxComments: 5
  platformCeiling: 30
  severityThreshold: MEDIUM
  adjustTolerance: 3
  labelSeverities:
    Enhancement: LOW
    Possible Bug: HIGH
github:
  owner: acme
  repo: widgets
store:
  enabled: true
  path: /tmp/diag.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rp.yaml"), []byte(content), 0o644))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Placement.MaxComments)
	assert.Equal(t, 30, cfg.Placement.PlatformCeiling)
	assert.Equal(t, "MEDIUM", cfg.Placement.SeverityThreshold)
	assert.Equal(t, "LOW", cfg.Placement.LabelSeverities["Enhancement"])
	assert.Equal(t, "HIGH", cfg.Placement.LabelSeverities["Possible Bug"])
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.True(t, cfg.Store.Enabled)
}

func TestLoad_InvalidLimitsRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative maxComments", "placement:\n  maxComments: -1\n"},
		{"zero ceiling", "placement:\n  platformCeiling: 0\n"},
		{"negative tolerance", "placement:\n  adjustTolerance: -2\n"},
		{"bad threshold", "placement:\n  severityThreshold: URGENT\n"},
		{"bad label severity", "placement:\n  labelSeverities:\n    Enhancement: COSMIC\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "rp.yaml"), []byte(tt.content), 0o644))

			_, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("RP_TEST_REPO_DIR", "/srv/repos/widgets")

	dir := t.TempDir()
	content := "git:\n  repositoryDir: ${RP_TEST_REPO_DIR}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rp.yaml"), []byte(content), 0o644))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "/srv/repos/widgets", cfg.Git.RepositoryDir)
}

func TestLoad_UnsetEnvVarLeftVerbatim(t *testing.T) {
	dir := t.TempDir()
	content := "git:\n  repositoryDir: ${RP_TEST_DOES_NOT_EXIST}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rp.yaml"), []byte(content), 0o644))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "${RP_TEST_DOES_NOT_EXIST}", cfg.Git.RepositoryDir)
}
