package github

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

// DefaultServerURL is used when GITHUB_SERVER_URL is unset.
const DefaultServerURL = "https://github.com"

// Context describes the repository and event a run was triggered for.
type Context interface {
	SHA() string
	Event() Event
	Org() string
	Repo() string
	// RepoURL links to the repository tree at SHA.
	RepoURL() string
	// ActionURL links to the job that produced the run.
	ActionURL() string
}

// ActionContext is the Context of a GitHub Actions job, read from the
// runner's environment variables and event payload file.
type ActionContext struct {
	sha       string
	event     Event
	owner     string
	repo      string
	serverURL string
	runID     string
	job       string
}

// NewActionContext reads the Actions environment through getenv. The event
// payload is loaded from GITHUB_EVENT_PATH when set.
func NewActionContext(getenv func(string) string) (*ActionContext, error) {
	gh, err := githubactions.New(githubactions.WithGetenv(getenv)).Context()
	if err != nil {
		return nil, fmt.Errorf("failed to read actions context: %w", err)
	}

	owner, repo, err := splitRepository(gh.Repository)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if gh.EventPath != "" {
		if gh.Event == nil {
			return nil, fmt.Errorf("event payload %s not found", gh.EventPath)
		}
		if payload, err = json.Marshal(gh.Event); err != nil {
			return nil, fmt.Errorf("failed to read event payload: %w", err)
		}
	}

	event, sha, err := parseEvent(gh.EventName, payload, gh.SHA)
	if err != nil {
		return nil, err
	}

	serverURL := strings.TrimSuffix(gh.ServerURL, "/")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	return &ActionContext{
		sha:       sha,
		event:     event,
		owner:     owner,
		repo:      repo,
		serverURL: serverURL,
		runID:     strconv.FormatInt(gh.RunID, 10),
		job:       gh.Job,
	}, nil
}

// InActions reports whether getenv describes a GitHub Actions runner.
func InActions(getenv func(string) string) bool {
	return getenv("GITHUB_ACTIONS") == "true"
}

func (c *ActionContext) SHA() string  { return c.sha }
func (c *ActionContext) Event() Event { return c.event }
func (c *ActionContext) Org() string  { return c.owner }
func (c *ActionContext) Repo() string { return c.repo }

func (c *ActionContext) baseURL() string {
	return fmt.Sprintf("%s/%s/%s", c.serverURL, c.owner, c.repo)
}

func (c *ActionContext) RepoURL() string {
	return fmt.Sprintf("%s/tree/%s", c.baseURL(), c.sha)
}

func (c *ActionContext) ActionURL() string {
	return fmt.Sprintf("%s/actions/runs/%s/jobs/%s", c.baseURL(), c.runID, c.job)
}

func splitRepository(full string) (string, string, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(full), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid GITHUB_REPOSITORY %q: expected owner/repo", full)
	}
	return owner, repo, nil
}
