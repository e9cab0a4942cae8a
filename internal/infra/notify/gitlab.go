package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/notify"
)

const defaultGitLabAPI = "https://gitlab.com/api/v4"

// GitLab opens one issue per alert so findings land in the team's tracker.
type GitLab struct {
	BaseURL   string
	ProjectID string
	Token     string
	HTTP      *http.Client
}

func NewGitLab(baseURL, projectID, token string) *GitLab {
	if baseURL == "" {
		baseURL = defaultGitLabAPI
	}
	return &GitLab{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Token:     token,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GitLab) Channel() string { return "gitlab_issue" }

type gitlabIssue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
}

func (g *GitLab) Send(ctx context.Context, a domain.Alert) error {
	issue := gitlabIssue{
		Title:       fmt.Sprintf("[Security Alert] %s", a.Name),
		Description: fmt.Sprintf("## Automated Analysis\n\n%s", a.Text),
		Labels:      []string{"rca", "auto-generated", "security"},
	}
	body, err := json.Marshal(issue)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/projects/%s/issues", g.BaseURL, g.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gitlab request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PRIVATE-TOKEN", g.Token)

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gitlab send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gitlab issue create error (status %d)", resp.StatusCode)
	}
	return nil
}
