// Package action reads inputs from and writes outputs to the GitHub Actions
// runner environment.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sethvargo/go-githubactions"

	"github.com/kyleking/gh-metahistory/internal/result"
)

// ErrInputRequired is returned when a required input is empty.
var ErrInputRequired = errors.New("input required and not supplied")

// IO is the action's input and output surface.
type IO interface {
	// Get returns the trimmed value of an input, or "" when unset.
	Get(key string) string
	// Set writes a string output.
	Set(key, value string) error
	// SetObject writes value as a JSON output.
	SetObject(key string, value any) error
}

// Validator parses raw input bytes into T.
type Validator[T any] interface {
	Parse(raw []byte) result.Result[T]
}

// GetObject reads key as JSON and validates it. A nil validator decodes the
// JSON directly into T.
func GetObject[T any](in IO, key string, validator Validator[T]) result.Result[T] {
	raw := in.Get(key)
	if raw == "" {
		return result.Err[T](fmt.Errorf("%w: %s", ErrInputRequired, key))
	}
	if validator != nil {
		return validator.Parse([]byte(raw))
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return result.Err[T](fmt.Errorf("failed to parse input %s: %w", key, err))
	}
	return result.Ok(v)
}

// EnvIO implements IO over the runner's INPUT_* variables and the
// GITHUB_OUTPUT file.
type EnvIO struct {
	action *githubactions.Action
}

// NewEnvIO creates an EnvIO. stdout receives legacy set-output commands
// when GITHUB_OUTPUT is not set.
func NewEnvIO(getenv func(string) string, stdout io.Writer) *EnvIO {
	return &EnvIO{action: newAction(getenv, stdout)}
}

func newAction(getenv func(string) string, out io.Writer) *githubactions.Action {
	if out == nil {
		out = io.Discard
	}
	return githubactions.New(githubactions.WithGetenv(getenv), githubactions.WithWriter(out))
}

// InputEnvName returns the environment variable holding input key.
func InputEnvName(key string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(key, " ", "_"))
}

func (e *EnvIO) Get(key string) string {
	return e.action.GetInput(key)
}

// Set appends a heredoc entry to GITHUB_OUTPUT, falling back to the
// set-output command when the file is unavailable.
func (e *EnvIO) Set(key, value string) error {
	e.action.SetOutput(key, value)
	return nil
}

func (e *EnvIO) SetObject(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode output %s: %w", key, err)
	}
	return e.Set(key, string(raw))
}
