package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danielolaszy/release-pr/internal/release"
	"gopkg.in/yaml.v3"
)

// summary is what commands print about a run.
type summary struct {
	Version     int    `json:"version" yaml:"version"`
	Branch      string `json:"branch,omitempty" yaml:"branch,omitempty"`
	PullRequest int    `json:"pull_request,omitempty" yaml:"pull_request,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Body        string `json:"body,omitempty" yaml:"body,omitempty"`
	Included    []int  `json:"included" yaml:"included"`
	Partial     bool   `json:"partial" yaml:"partial"`
	DryRun      bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

func newSummary(result *release.Result) summary {
	s := summary{
		Version:     int(result.Version),
		Branch:      result.Branch.Name,
		PullRequest: result.PullRequest.Number,
		URL:         result.PullRequest.URL,
		Title:       result.Message.Title,
		Included:    make([]int, 0, len(result.Included)),
		Partial:     result.Partial,
	}
	for _, pr := range result.Included {
		s.Included = append(s.Included, pr.Number)
	}
	return s
}

// checkOutputFormat rejects formats writeSummary cannot print.
func checkOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, expected text, json or yaml", format)
	}
}

// writeSummary prints s as text, json or yaml.
func writeSummary(w io.Writer, format string, s summary) error {
	if err := checkOutputFormat(format); err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, s)
	}
}

func writeText(w io.Writer, s summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Version: %d\n", s.Version)
	if s.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", s.Branch)
	}
	if s.DryRun {
		b.WriteString("Dry run: nothing was changed\n")
	}
	if s.PullRequest != 0 {
		fmt.Fprintf(&b, "Pull request: #%d", s.PullRequest)
		if s.URL != "" {
			fmt.Fprintf(&b, " %s", s.URL)
		}
		b.WriteString("\n")
	}
	if s.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", s.Title)
		nums := make([]string, len(s.Included))
		for i, n := range s.Included {
			nums[i] = fmt.Sprintf("#%d", n)
		}
		fmt.Fprintf(&b, "Included: %d [%s]\n", len(s.Included), strings.Join(nums, " "))
	}
	if s.Partial {
		b.WriteString("Warning: commits of the release pull request could not be listed, the list above may be incomplete\n")
	}
	if s.Body != "" {
		fmt.Fprintf(&b, "\n%s", s.Body)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
