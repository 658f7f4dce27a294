package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, s := range settings {
		t.Setenv(s.env, "")
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("RELEASE_PR_REPOSITORY", "acme/shop")

	config, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "test-token", config.GitHub.Token)
	assert.Equal(t, "github.com", config.GitHub.Domain)
	assert.Equal(t, "https://api.github.com/", config.GitHub.Endpoint)
	assert.Equal(t, DefaultTimeout, config.GitHub.Timeout)
	assert.Equal(t, "acme", config.Release.Owner)
	assert.Equal(t, "shop", config.Release.Repo)
	assert.Equal(t, "acme/shop", config.Release.Repository())
	assert.Equal(t, "master", config.Release.Head)
	assert.Equal(t, "production", config.Release.Base)
	assert.Equal(t, "release", config.Release.ReleaseBranch)
	assert.Equal(t, 100, config.Release.ClosedPRLimit)
	assert.False(t, config.Release.FailOnPartial)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("RELEASE_PR_REPOSITORY", "acme/shop")
	t.Setenv("RELEASE_PR_HEAD", "develop")

	flags := newFlags(t,
		"-r", "acme/web",
		"--head", "main",
		"--release-branch", "releases/",
		"--timeout", "5s",
		"--closed-pr-limit", "300",
		"--fail-on-partial",
	)

	config, err := LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "web", config.Release.Repo)
	assert.Equal(t, "main", config.Release.Head)
	assert.Equal(t, "releases", config.Release.ReleaseBranch)
	assert.Equal(t, 5*time.Second, config.GitHub.Timeout)
	assert.Equal(t, 300, config.Release.ClosedPRLimit)
	assert.True(t, config.Release.FailOnPartial)
}

func TestLoadConfigUnchangedFlagsKeepEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("RELEASE_PR_REPOSITORY", "acme/shop")
	t.Setenv("RELEASE_PR_BASE", "live")

	config, err := LoadConfig(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "live", config.Release.Base)
}

func TestLoadGitHubEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		endpoint string
		expected string
	}{
		{name: "Default GitHub.com", expected: "https://api.github.com/"},
		{name: "GitHub Enterprise", domain: "github.example.com", expected: "https://github.example.com/api/v3/"},
		{name: "Explicit endpoint wins", domain: "github.example.com", endpoint: "http://localhost:8080", expected: "http://localhost:8080/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GITHUB_TOKEN", "test-token")
			t.Setenv("RELEASE_PR_REPOSITORY", "acme/shop")
			t.Setenv("GITHUB_DOMAIN", tt.domain)
			t.Setenv("GITHUB_API_URL", tt.endpoint)

			config, err := LoadConfig(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, config.GitHub.Endpoint)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "test-token")

	path := filepath.Join(t.TempDir(), "release-pr.yaml")
	content := "repository: acme/shop\nbase: prod\nclosed_pr_limit: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "shop", config.Release.Repo)
	assert.Equal(t, "prod", config.Release.Base)
	assert.Equal(t, 250, config.Release.ClosedPRLimit)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		args          []string
		errorContains string
	}{
		{
			name:          "Missing token",
			env:           map[string]string{"RELEASE_PR_REPOSITORY": "acme/shop"},
			errorContains: "GITHUB_TOKEN",
		},
		{
			name:          "Missing repository",
			env:           map[string]string{"GITHUB_TOKEN": "test-token"},
			errorContains: "RELEASE_PR_REPOSITORY",
		},
		{
			name:          "Invalid repository",
			env:           map[string]string{"GITHUB_TOKEN": "test-token", "RELEASE_PR_REPOSITORY": "acme"},
			errorContains: "invalid repository format",
		},
		{
			name:          "Non-positive limit",
			env:           map[string]string{"GITHUB_TOKEN": "test-token", "RELEASE_PR_REPOSITORY": "acme/shop"},
			args:          []string{"--closed-pr-limit", "0"},
			errorContains: "limit must be positive",
		},
		{
			name:          "Missing config file",
			env:           map[string]string{"GITHUB_TOKEN": "test-token", "RELEASE_PR_REPOSITORY": "acme/shop"},
			args:          []string{"--config", "/does/not/exist.yaml"},
			errorContains: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			config, err := LoadConfig(newFlags(t, tt.args...))
			require.Error(t, err)
			assert.Nil(t, config)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := ParseRepository("acme/shop")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "shop", repo)

	for _, invalid := range []string{"", "acme", "acme/", "/shop", "a/b/c"} {
		_, _, err := ParseRepository(invalid)
		assert.Error(t, err, invalid)
	}
}
