// Package models defines data structures shared across the application.
package models

import (
	"strconv"
	"time"
)

// Version is the integer release number. The first release is 1.
type Version int

// String returns the version as it appears in branch names and titles.
func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// BranchRef is a git reference bound to a commit.
type BranchRef struct {
	// Name is the short branch name (e.g., "release/8")
	Name string

	// Ref is the fully qualified reference (e.g., "refs/heads/release/8")
	Ref string

	// SHA is the commit the reference points at
	SHA string
}

// PullRequest represents a GitHub pull request with the fields the release workflow reads.
type PullRequest struct {
	// Number is the pull request number in GitHub (e.g., 42)
	Number int

	// Title is the pull request's title
	Title string

	// Body is the pull request's description
	Body string

	// State is either "open" or "closed"
	State string

	// URL is the browser URL of the pull request
	URL string

	// HeadRef is the name of the source branch
	HeadRef string

	// HeadSHA is the commit at the tip of the source branch
	HeadSHA string

	// BaseRef is the name of the target branch
	BaseRef string

	// MergedAt is set once the pull request has been merged
	MergedAt *time.Time

	// MergeCommitSHA is the commit GitHub recorded for the merge, squash or rebase
	MergeCommitSHA string

	// Author is the login of the user who opened the pull request
	Author string

	// Assignee is the login of the first assignee, if any
	Assignee string
}

// Merged reports whether the pull request has a merge timestamp.
func (pr PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// Mention returns the login that release notes should credit: the assignee
// when one is set, otherwise the author.
func (pr PullRequest) Mention() string {
	if pr.Assignee != "" {
		return pr.Assignee
	}
	return pr.Author
}

// ReleaseMessage is the rendered title and body applied to the release pull request.
type ReleaseMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
