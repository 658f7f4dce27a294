// Package cmd provides the command-line interface for release-pr.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/danielolaszy/release-pr/internal/config"
	"github.com/danielolaszy/release-pr/internal/github"
	"github.com/danielolaszy/release-pr/internal/logging"
	"github.com/danielolaszy/release-pr/internal/message"
	"github.com/danielolaszy/release-pr/internal/release"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the release-pr command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "release-pr",
		Short: "Create and maintain release pull requests",
		Long: `release-pr prepares a release pull request on GitHub.

It computes the next integer release version from the latest published
release, creates a release branch from the head branch, opens a pull request
from that branch into the production branch, and writes the list of merged
pull requests contained in the release into the pull request's description.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			if level != "" || format != "" {
				logLevel, logFormat := logSettings(level, format)
				logging.SetupLogger(cmd.ErrOrStderr(), logLevel, logFormat)
			}
		},
	}

	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (defaults to $LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (defaults to $LOG_FORMAT)")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newNextVersionCmd())
	rootCmd.AddCommand(newPreviewCmd())

	return rootCmd
}

// logSettings resolves the log level and format, falling back to $LOG_LEVEL
// and $LOG_FORMAT for whichever flag was not given.
func logSettings(level, format string) (logging.LogLevel, logging.LogFormat) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	return logging.ParseLevel(level), logging.LogFormat(strings.ToLower(format))
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the configuration and wires the GitHub client and pipeline for a command.
func setup(cmd *cobra.Command) (*release.Pipeline, *github.Client, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	client, err := github.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize github client: %w", err)
	}

	renderer, err := message.LoadRenderer(cfg.Release.Template)
	if err != nil {
		return nil, nil, err
	}

	pipeline := release.NewPipeline(client, renderer, release.Options{
		ReleaseBranch: cfg.Release.ReleaseBranch,
		FailOnPartial: cfg.Release.FailOnPartial,
	})
	return pipeline, client, nil
}
