// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultHead          = "master"
	DefaultBase          = "production"
	DefaultReleaseBranch = "release"
	DefaultDomain        = "github.com"
	DefaultTimeout       = 30 * time.Second
	DefaultClosedPRLimit = 100
)

// Config holds all configuration parameters for one release run.
// It is built once by LoadConfig and treated as read-only afterwards.
type Config struct {
	GitHub  GitHubConfig
	Release ReleaseConfig
}

// GitHubConfig holds GitHub connection settings.
type GitHubConfig struct {
	Token    string
	Domain   string
	Endpoint string
	Timeout  time.Duration
}

// ReleaseConfig describes the repository and branches the release is prepared for.
type ReleaseConfig struct {
	Owner         string
	Repo          string
	Head          string
	Base          string
	ReleaseBranch string
	Template      string
	ClosedPRLimit int
	FailOnPartial bool
}

// Repository returns the repository in "owner/repo" form.
func (c ReleaseConfig) Repository() string {
	return c.Owner + "/" + c.Repo
}

// settings maps a viper key to its environment variable and command line flag.
var settings = []struct {
	key  string
	env  string
	flag string
}{
	{"token", "GITHUB_TOKEN", "token"},
	{"repository", "RELEASE_PR_REPOSITORY", "repository"},
	{"head", "RELEASE_PR_HEAD", "head"},
	{"base", "RELEASE_PR_BASE", "base"},
	{"release_branch", "RELEASE_PR_RELEASE_BRANCH", "release-branch"},
	{"endpoint", "GITHUB_API_URL", "endpoint"},
	{"domain", "GITHUB_DOMAIN", "domain"},
	{"template", "RELEASE_PR_TEMPLATE", "template"},
	{"timeout", "RELEASE_PR_TIMEOUT", "timeout"},
	{"closed_pr_limit", "RELEASE_PR_CLOSED_PR_LIMIT", "closed-pr-limit"},
	{"fail_on_partial", "RELEASE_PR_FAIL_ON_PARTIAL", "fail-on-partial"},
}

// RegisterFlags adds every configuration flag to the given flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("token", "", "GitHub token (defaults to $GITHUB_TOKEN)")
	flags.StringP("repository", "r", "", "GitHub repository name (e.g., 'owner/repo')")
	flags.String("head", DefaultHead, "Branch the release is cut from")
	flags.String("base", DefaultBase, "Production branch the release pull request targets")
	flags.String("release-branch", DefaultReleaseBranch, "Prefix of the per-version release branch")
	flags.String("endpoint", "", "GitHub API base URL (derived from --domain when empty)")
	flags.String("domain", DefaultDomain, "GitHub domain, e.g. github.example.com for GitHub Enterprise")
	flags.StringP("template", "t", "", "Path to a release message template")
	flags.Duration("timeout", DefaultTimeout, "Timeout applied to each GitHub API call")
	flags.Int("closed-pr-limit", DefaultClosedPRLimit, "Maximum number of closed pull requests considered for the release")
	flags.Bool("fail-on-partial", false, "Abort when the release pull request's commits cannot be listed")
}

// LoadConfig builds the configuration from defaults, an optional config file,
// environment variables and flags, in increasing order of precedence.
// flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("head", DefaultHead)
	v.SetDefault("base", DefaultBase)
	v.SetDefault("release_branch", DefaultReleaseBranch)
	v.SetDefault("domain", DefaultDomain)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("closed_pr_limit", DefaultClosedPRLimit)
	v.SetDefault("fail_on_partial", false)

	for _, s := range settings {
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	if flags != nil {
		for _, s := range settings {
			if f := flags.Lookup(s.flag); f != nil {
				if err := v.BindPFlag(s.key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", s.flag, err)
				}
			}
		}

		if path, err := flags.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:    v.GetString("token"),
			Domain:   v.GetString("domain"),
			Endpoint: v.GetString("endpoint"),
			Timeout:  v.GetDuration("timeout"),
		},
		Release: ReleaseConfig{
			Head:          v.GetString("head"),
			Base:          v.GetString("base"),
			ReleaseBranch: strings.Trim(v.GetString("release_branch"), "/"),
			Template:      v.GetString("template"),
			ClosedPRLimit: v.GetInt("closed_pr_limit"),
			FailOnPartial: v.GetBool("fail_on_partial"),
		},
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = DefaultDomain
	}
	if config.GitHub.Endpoint == "" {
		config.GitHub.Endpoint = APIURL(config.GitHub.Domain)
	}
	if !strings.HasSuffix(config.GitHub.Endpoint, "/") {
		config.GitHub.Endpoint += "/"
	}

	repository := v.GetString("repository")
	if repository != "" {
		owner, repo, err := ParseRepository(repository)
		if err != nil {
			return nil, err
		}
		config.Release.Owner, config.Release.Repo = owner, repo
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// APIURL returns the REST API base URL for a GitHub domain.
func APIURL(domain string) string {
	if domain == "" || domain == DefaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// ParseRepository splits "owner/repo" into its parts.
func ParseRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.Release.Owner == "" || config.Release.Repo == "" {
		missingVars = append(missingVars, "RELEASE_PR_REPOSITORY")
	}
	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %v", missingVars)
	}

	if config.Release.Head == "" || config.Release.Base == "" || config.Release.ReleaseBranch == "" {
		return fmt.Errorf("head, base and release branch must not be empty")
	}
	if config.Release.ClosedPRLimit <= 0 {
		return fmt.Errorf("closed pull request limit must be positive, got %d", config.Release.ClosedPRLimit)
	}
	if config.GitHub.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.GitHub.Timeout)
	}

	return nil
}
