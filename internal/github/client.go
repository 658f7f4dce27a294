// Package github provides the GitHub operations used to prepare a release pull request.
package github

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/danielolaszy/release-pr/internal/config"
	"github.com/danielolaszy/release-pr/internal/logging"
	"github.com/danielolaszy/release-pr/pkg/models"
	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"
)

// placeholderTitle is used when opening the release pull request, before its
// description has been rendered.
const placeholderTitle = "Preparing release pull request..."

var (
	prExistsPattern     = regexp.MustCompile(`(?i)pull request already exists`)
	branchExistsPattern = regexp.MustCompile(`(?i)already exists`)
)

// Client runs the release operations against one repository.
type Client struct {
	gateway *Gateway
	release config.ReleaseConfig
}

// NewClient creates a GitHub client authenticated with the configured token.
// No request is made until one of the release operations is called.
func NewClient(cfg *config.Config) (*Client, error) {
	token := cfg.GitHub.Token
	if token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	logging.Info("github configuration",
		"api_url", cfg.GitHub.Endpoint,
		"repository", cfg.Release.Repository(),
		"token", logging.MaskSensitive(token))

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	gateway, err := NewGateway(tc, cfg.GitHub.Endpoint, cfg.GitHub.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{gateway: gateway, release: cfg.Release}, nil
}

func (c *Client) repoPath(format string, args ...any) string {
	return fmt.Sprintf("repos/%s/%s/", c.release.Owner, c.release.Repo) + fmt.Sprintf(format, args...)
}

// ReleaseBranchName returns the branch name used for a version, e.g. "release/8".
func (c *Client) ReleaseBranchName(version models.Version) string {
	return c.release.ReleaseBranch + "/" + version.String()
}

// NextReleaseVersion returns the latest release name plus one, or 1 when the
// repository has no published release.
func (c *Client) NextReleaseVersion(ctx context.Context) (models.Version, error) {
	resp, err := c.gateway.Get(ctx, c.repoPath("releases/latest"), nil)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		logging.Debug("no published release found", "repository", c.release.Repository())
		return 1, nil
	case http.StatusOK:
	default:
		return 0, &APIError{Op: "get latest release", StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	var release github.RepositoryRelease
	if err := resp.Decode(&release); err != nil {
		return 0, err
	}

	name := release.GetName()
	latest, err := strconv.Atoi(name)
	if err != nil || latest < 0 {
		return 0, fmt.Errorf("%w: latest release name %q is not an integer", ErrInvalidVersionFormat, name)
	}
	if latest == math.MaxInt {
		return 0, fmt.Errorf("%w: latest release name %q has no successor", ErrInvalidVersionFormat, name)
	}

	return models.Version(latest + 1), nil
}

// PrepareReleaseBranch creates the release branch for version at the head
// branch's current commit. An existing branch is not reused; it fails with
// ErrBranchAlreadyExists.
func (c *Client) PrepareReleaseBranch(ctx context.Context, version models.Version) (models.BranchRef, error) {
	resp, err := c.gateway.Get(ctx, c.repoPath("git/ref/heads/%s", c.release.Head), nil)
	if err != nil {
		return models.BranchRef{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.BranchRef{}, &APIError{Op: "get head branch " + c.release.Head, StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	var head github.Reference
	if err := resp.Decode(&head); err != nil {
		return models.BranchRef{}, err
	}
	sha := head.GetObject().GetSHA()
	if sha == "" {
		return models.BranchRef{}, fmt.Errorf("head branch %s has no commit sha", c.release.Head)
	}

	name := c.ReleaseBranchName(version)
	resp, err = c.gateway.Post(ctx, c.repoPath("git/refs"), &createRefRequest{
		Ref: "refs/heads/" + name,
		SHA: sha,
	})
	if err != nil {
		return models.BranchRef{}, err
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnprocessableEntity && branchExistsPattern.MatchString(resp.Message()):
		return models.BranchRef{}, fmt.Errorf("%w: %s", ErrBranchAlreadyExists, name)
	default:
		return models.BranchRef{}, &APIError{Op: "create branch " + name, StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	var created github.Reference
	if err := resp.Decode(&created); err != nil {
		return models.BranchRef{}, err
	}

	branch := models.BranchRef{
		Name: strings.TrimPrefix(created.GetRef(), "refs/heads/"),
		Ref:  created.GetRef(),
		SHA:  created.GetObject().GetSHA(),
	}
	logging.Debug("created release branch", "branch", branch.Name, "sha", branch.SHA)
	return branch, nil
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PrepareReleasePR opens a pull request from the release branch into the base
// branch. When GitHub reports that one already exists, the open pull request
// with the same head and base is returned instead.
func (c *Client) PrepareReleasePR(ctx context.Context, branch models.BranchRef) (models.PullRequest, error) {
	resp, err := c.gateway.Post(ctx, c.repoPath("pulls"), &github.NewPullRequest{
		Title: github.String(placeholderTitle),
		Head:  github.String(branch.Name),
		Base:  github.String(c.release.Base),
	})
	if err != nil {
		return models.PullRequest{}, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var pr github.PullRequest
		if err := resp.Decode(&pr); err != nil {
			return models.PullRequest{}, err
		}
		logging.Debug("opened release pull request", "number", pr.GetNumber())
		return toModel(&pr), nil
	case http.StatusUnprocessableEntity:
		message := resp.Message()
		if !prExistsPattern.MatchString(message) {
			return models.PullRequest{}, &PRCreationError{StatusCode: resp.StatusCode, Message: message}
		}
		logging.Debug("release pull request already exists", "branch", branch.Name, "message", message)
		return c.findOpenPR(ctx, branch)
	default:
		return models.PullRequest{}, &PRCreationError{StatusCode: resp.StatusCode, Message: resp.Message()}
	}
}

func (c *Client) findOpenPR(ctx context.Context, branch models.BranchRef) (models.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  c.release.Owner + ":" + branch.Name,
		Base:  c.release.Base,
	}

	prs, err := walkPages[*github.PullRequest](ctx, c.gateway, "list open pull requests", c.repoPath("pulls"), opts, 1)
	if err != nil {
		return models.PullRequest{}, err
	}
	if len(prs) == 0 {
		return models.PullRequest{}, fmt.Errorf("%w: %s into %s", ErrExistingPRNotFound, branch.Name, c.release.Base)
	}
	return toModel(prs[0]), nil
}

// GetPullRequest fetches a single pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, number int) (models.PullRequest, error) {
	resp, err := c.gateway.Get(ctx, c.repoPath("pulls/%d", number), nil)
	if err != nil {
		return models.PullRequest{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.PullRequest{}, &APIError{Op: fmt.Sprintf("get pull request #%d", number), StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	var pr github.PullRequest
	if err := resp.Decode(&pr); err != nil {
		return models.PullRequest{}, err
	}
	return toModel(&pr), nil
}

// Reconciliation is the set of merged pull requests contained in a release.
type Reconciliation struct {
	// PullRequests are ordered by merge time, oldest first.
	PullRequests []models.PullRequest

	// Commits is the number of commits found on the release pull request.
	Commits int

	// CommitErr is set when the commits could not be listed. PullRequests is
	// then empty even though the release may contain changes.
	CommitErr *CommitFetchError
}

// Partial reports whether the result is incomplete because commit listing failed.
func (r *Reconciliation) Partial() bool {
	return r.CommitErr != nil
}

// CollectReleasePRs determines which merged pull requests are part of the
// release pull request by matching their head or merge commit against the
// release pull request's commits.
//
// A failure to list the commits does not fail the call; it is recorded on
// the result. Failing to list closed pull requests does.
func (c *Client) CollectReleasePRs(ctx context.Context, releasePR models.PullRequest) (*Reconciliation, error) {
	result := &Reconciliation{}

	commits, err := walkPages[*github.RepositoryCommit](ctx, c.gateway, "list pull request commits",
		c.repoPath("pulls/%d/commits", releasePR.Number), &github.ListOptions{PerPage: perPage}, 0)
	if err != nil {
		result.CommitErr = &CommitFetchError{PR: releasePR.Number, Err: err}
		logging.Error("failed to list release pull request commits", "number", releasePR.Number, "error", err)
	}
	result.Commits = len(commits)

	shas := make(map[string]bool, len(commits))
	for _, commit := range commits {
		if sha := commit.GetSHA(); sha != "" {
			shas[sha] = true
		}
	}

	opts := &github.PullRequestListOptions{
		State:       "closed",
		Base:        c.release.Head,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: min(perPage, c.closedPRLimit())},
	}
	closed, err := walkPages[*github.PullRequest](ctx, c.gateway, "list closed pull requests",
		c.repoPath("pulls"), opts, c.closedPRLimit())
	if err != nil {
		return nil, err
	}

	result.PullRequests = matchMerged(closed, shas)

	logging.Debug("reconciled release pull requests",
		"commits", result.Commits,
		"closed_prs", len(closed),
		"matched", len(result.PullRequests))
	return result, nil
}

func (c *Client) closedPRLimit() int {
	if c.release.ClosedPRLimit > 0 {
		return c.release.ClosedPRLimit
	}
	return config.DefaultClosedPRLimit
}

// matchMerged keeps the merged pull requests whose head commit or merge commit
// is in shas, sorted by merge time. Checking both commits covers merge commits,
// squash merges and rebase merges.
func matchMerged(prs []*github.PullRequest, shas map[string]bool) []models.PullRequest {
	matched := make([]models.PullRequest, 0)
	seen := make(map[int]bool)

	for _, pr := range prs {
		candidate := toModel(pr)
		if !candidate.Merged() || seen[candidate.Number] {
			continue
		}
		if shas[candidate.HeadSHA] || shas[candidate.MergeCommitSHA] {
			seen[candidate.Number] = true
			matched = append(matched, candidate)
		}
	}

	slices.SortStableFunc(matched, func(a, b models.PullRequest) int {
		if n := a.MergedAt.Compare(*b.MergedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return matched
}

// UpdatePR replaces the title and body of a pull request.
func (c *Client) UpdatePR(ctx context.Context, pr models.PullRequest, message models.ReleaseMessage) (models.PullRequest, error) {
	resp, err := c.gateway.Patch(ctx, c.repoPath("pulls/%d", pr.Number), &message)
	if err != nil {
		return models.PullRequest{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.PullRequest{}, &APIError{Op: fmt.Sprintf("update pull request #%d", pr.Number), StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	var updated github.PullRequest
	if err := resp.Decode(&updated); err != nil {
		return models.PullRequest{}, err
	}
	return toModel(&updated), nil
}

// toModel converts a go-github pull request to our internal model.
func toModel(pr *github.PullRequest) models.PullRequest {
	return models.PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		Body:           pr.GetBody(),
		State:          pr.GetState(),
		URL:            pr.GetHTMLURL(),
		HeadRef:        pr.GetHead().GetRef(),
		HeadSHA:        pr.GetHead().GetSHA(),
		BaseRef:        pr.GetBase().GetRef(),
		MergedAt:       pr.MergedAt,
		MergeCommitSHA: pr.GetMergeCommitSHA(),
		Author:         pr.GetUser().GetLogin(),
		Assignee:       pr.GetAssignee().GetLogin(),
	}
}
