// Package release runs the release pull request workflow as a sequence of named
// stages: version, branch, pull request, reconcile, render and publish.
package release

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielolaszy/release-pr/internal/github"
	"github.com/danielolaszy/release-pr/internal/logging"
	"github.com/danielolaszy/release-pr/pkg/models"
)

// Stage names a step of the workflow.
type Stage string

const (
	StageVersion     Stage = "version"
	StageBranch      Stage = "branch"
	StagePullRequest Stage = "pull_request"
	StageReconcile   Stage = "reconcile"
	StageRender      Stage = "render"
	StagePublish     Stage = "publish"
)

// ErrPartialReconciliation aborts a run configured to fail when the release
// pull request's commits could not be listed.
var ErrPartialReconciliation = errors.New("release contents could not be determined")

// StageError records which stage of the workflow failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Service is the set of GitHub operations the workflow needs.
type Service interface {
	ReleaseBranchName(version models.Version) string
	NextReleaseVersion(ctx context.Context) (models.Version, error)
	PrepareReleaseBranch(ctx context.Context, version models.Version) (models.BranchRef, error)
	PrepareReleasePR(ctx context.Context, branch models.BranchRef) (models.PullRequest, error)
	CollectReleasePRs(ctx context.Context, releasePR models.PullRequest) (*github.Reconciliation, error)
	UpdatePR(ctx context.Context, pr models.PullRequest, message models.ReleaseMessage) (models.PullRequest, error)
}

// Renderer produces the release message for a version and its pull requests.
type Renderer interface {
	Render(version models.Version, prs []models.PullRequest) (models.ReleaseMessage, error)
}

// Options tune the workflow.
type Options struct {
	// ReleaseBranch is the release branch prefix, used to recover the version
	// of an existing release pull request.
	ReleaseBranch string

	// FailOnPartial aborts before publishing when commit listing failed.
	FailOnPartial bool
}

// Result collects the output of every completed stage.
type Result struct {
	Version     models.Version
	Branch      models.BranchRef
	PullRequest models.PullRequest
	Included    []models.PullRequest
	Message     models.ReleaseMessage
	Partial     bool
}

// Pipeline prepares and publishes release pull requests.
type Pipeline struct {
	service  Service
	renderer Renderer
	opts     Options
}

// NewPipeline creates a pipeline.
func NewPipeline(service Service, renderer Renderer, opts Options) *Pipeline {
	return &Pipeline{service: service, renderer: renderer, opts: opts}
}

// Run executes every stage in order and returns the published pull request.
// On failure the returned result still holds the output of the stages that
// completed, since a created branch or pull request persists on GitHub.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	version, err := p.service.NextReleaseVersion(ctx)
	if err != nil {
		return result, p.fail(StageVersion, err)
	}
	result.Version = version
	logging.Info("resolved release version", "version", version)

	branch, err := p.service.PrepareReleaseBranch(ctx, version)
	if err != nil {
		return result, p.fail(StageBranch, err)
	}
	result.Branch = branch
	logging.Info("created release branch", "branch", branch.Name, "sha", branch.SHA)

	pr, err := p.service.PrepareReleasePR(ctx, branch)
	if err != nil {
		return result, p.fail(StagePullRequest, err)
	}
	result.PullRequest = pr
	logging.Info("prepared release pull request", "number", pr.Number, "url", pr.URL)

	if err := p.describe(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// Preview reconciles and renders an existing release pull request without
// publishing anything.
func (p *Pipeline) Preview(ctx context.Context, pr models.PullRequest) (*Result, error) {
	result := &Result{PullRequest: pr}

	version, ok := p.VersionFromBranch(pr.HeadRef)
	if !ok {
		var err error
		if version, err = p.service.NextReleaseVersion(ctx); err != nil {
			return result, p.fail(StageVersion, err)
		}
	}
	result.Version = version
	result.Branch = models.BranchRef{Name: pr.HeadRef, Ref: "refs/heads/" + pr.HeadRef, SHA: pr.HeadSHA}

	if err := p.reconcile(ctx, result); err != nil {
		return result, err
	}
	if err := p.render(result); err != nil {
		return result, err
	}
	return result, nil
}

// Plan resolves the next version and the branch it would use without changing anything.
func (p *Pipeline) Plan(ctx context.Context) (*Result, error) {
	version, err := p.service.NextReleaseVersion(ctx)
	if err != nil {
		return &Result{}, p.fail(StageVersion, err)
	}
	name := p.service.ReleaseBranchName(version)
	return &Result{
		Version: version,
		Branch:  models.BranchRef{Name: name, Ref: "refs/heads/" + name},
	}, nil
}

// VersionFromBranch extracts the version from a release branch name such as "release/8".
func (p *Pipeline) VersionFromBranch(branch string) (models.Version, bool) {
	prefix := p.opts.ReleaseBranch + "/"
	if p.opts.ReleaseBranch == "" || !strings.HasPrefix(branch, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(branch, prefix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return models.Version(n), true
}

func (p *Pipeline) describe(ctx context.Context, result *Result) error {
	if err := p.reconcile(ctx, result); err != nil {
		return err
	}
	if err := p.render(result); err != nil {
		return err
	}

	updated, err := p.service.UpdatePR(ctx, result.PullRequest, result.Message)
	if err != nil {
		return p.fail(StagePublish, err)
	}
	result.PullRequest = updated
	logging.Info("published release pull request",
		"number", updated.Number,
		"title", updated.Title,
		"included", len(result.Included))
	return nil
}

func (p *Pipeline) reconcile(ctx context.Context, result *Result) error {
	rec, err := p.service.CollectReleasePRs(ctx, result.PullRequest)
	if err != nil {
		return p.fail(StageReconcile, err)
	}

	result.Included = rec.PullRequests
	result.Partial = rec.Partial()
	if rec.Partial() {
		logging.Warn("release contents are incomplete",
			"number", result.PullRequest.Number,
			"error", rec.CommitErr)
		if p.opts.FailOnPartial {
			return p.fail(StageReconcile, fmt.Errorf("%w: %w", ErrPartialReconciliation, rec.CommitErr))
		}
	}

	logging.Info("reconciled release contents",
		"commits", rec.Commits,
		"included", len(rec.PullRequests))
	return nil
}

func (p *Pipeline) render(result *Result) error {
	msg, err := p.renderer.Render(result.Version, result.Included)
	if err != nil {
		return p.fail(StageRender, err)
	}
	result.Message = msg
	return nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	logging.Error("release stage failed", "stage", stage, "error", err)
	return &StageError{Stage: stage, Err: err}
}
