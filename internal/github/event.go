// Package github exposes the repository and triggering-event context of a
// run, either from a GitHub Actions environment or from a local checkout.
package github

import (
	"encoding/json"
	"fmt"
)

// Event names as reported in GITHUB_EVENT_NAME.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
)

// Event is one of PushEvent, PullRequestEvent or OtherEvent.
type Event interface {
	eventName() string
}

// PushEvent is a branch or tag push.
type PushEvent struct {
	Ref       string
	ShaBefore string
	ShaAfter  string
}

// PullRequestEvent is a pull_request trigger.
type PullRequestEvent struct {
	Number     int
	BaseRef    string
	BaseRefSha string
	State      string
}

// OtherEvent is any trigger without dedicated handling. Payload holds the
// raw event document.
type OtherEvent struct {
	Name    string
	Payload map[string]any
}

func (PushEvent) eventName() string        { return EventPush }
func (PullRequestEvent) eventName() string { return EventPullRequest }
func (e OtherEvent) eventName() string     { return e.Name }

// EventName returns the GitHub event name for e.
func EventName(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}

type pushPayload struct {
	Ref    string `json:"ref"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type pullRequestPayload struct {
	Number      int `json:"number"`
	PullRequest *struct {
		State string `json:"state"`
		Head  struct {
			SHA string `json:"sha"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"base"`
	} `json:"pull_request"`
}

// parseEvent decodes the payload of the named event and returns the event
// together with the commit it targets. fallbackSHA is used for events that
// carry no commit of their own.
func parseEvent(name string, payload []byte, fallbackSHA string) (Event, string, error) {
	switch name {
	case EventPush:
		var p pushPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, "", fmt.Errorf("failed to parse push payload: %w", err)
		}
		if p.After == "" {
			return nil, "", fmt.Errorf("push payload has no after sha")
		}
		return PushEvent{Ref: p.Ref, ShaBefore: p.Before, ShaAfter: p.After}, p.After, nil

	case EventPullRequest:
		var p pullRequestPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, "", fmt.Errorf("failed to parse pull_request payload: %w", err)
		}
		if p.PullRequest == nil {
			return nil, "", fmt.Errorf("pull_request payload has no pull_request object")
		}
		ev := PullRequestEvent{
			Number:     p.Number,
			BaseRef:    p.PullRequest.Base.Ref,
			BaseRefSha: p.PullRequest.Base.SHA,
			State:      p.PullRequest.State,
		}
		return ev, p.PullRequest.Head.SHA, nil

	default:
		raw := map[string]any{}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &raw); err != nil {
				return nil, "", fmt.Errorf("failed to parse %s payload: %w", name, err)
			}
		}
		return OtherEvent{Name: name, Payload: raw}, fallbackSHA, nil
	}
}
