package github

import (
	"context"
	"fmt"

	"github.com/cli/go-gh/v2/pkg/repository"

	"github.com/kyleking/gh-metahistory/internal/exec"
)

// currentRepository resolves the repository of the working directory.
// Tests replace it.
var currentRepository = repository.Current

// LocalContext is the Context of a local checkout outside of Actions. The
// event is always OtherEvent.
type LocalContext struct {
	sha   string
	host  string
	owner string
	repo  string
}

// NewLocalContext resolves the repository from git remotes (honoring
// GH_REPO) and the commit from `git rev-parse HEAD`.
func NewLocalContext(ctx context.Context, executor exec.CommandExecutor) (*LocalContext, error) {
	r, err := currentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to determine repository: %w", err)
	}
	sha, err := exec.HeadSHA(ctx, executor)
	if err != nil {
		return nil, fmt.Errorf("failed to determine HEAD: %w", err)
	}
	return &LocalContext{sha: sha, host: r.Host, owner: r.Owner, repo: r.Name}, nil
}

func (c *LocalContext) SHA() string  { return c.sha }
func (c *LocalContext) Event() Event { return OtherEvent{Name: "local", Payload: map[string]any{}} }
func (c *LocalContext) Org() string  { return c.owner }
func (c *LocalContext) Repo() string { return c.repo }

func (c *LocalContext) baseURL() string {
	host := c.host
	if host == "" {
		host = "github.com"
	}
	return fmt.Sprintf("https://%s/%s/%s", host, c.owner, c.repo)
}

func (c *LocalContext) RepoURL() string {
	return fmt.Sprintf("%s/tree/%s", c.baseURL(), c.sha)
}

// ActionURL points at the repository's Actions tab since no job exists.
func (c *LocalContext) ActionURL() string {
	return c.baseURL() + "/actions"
}
