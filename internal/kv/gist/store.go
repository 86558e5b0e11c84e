// Package gist stores key-value documents as files of a single GitHub Gist.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/kyleking/gh-metahistory/internal/kv"
)

// DefaultDescription is written to the gist on every update.
const DefaultDescription = "Automated Gist update from metahistory"

// Client is the subset of the go-gh REST client used by Store.
type Client interface {
	DoWithContext(ctx context.Context, method string, path string, body io.Reader, response interface{}) error
	RequestWithContext(ctx context.Context, method string, path string, body io.Reader) (*http.Response, error)
}

// Config configures a gist-backed store.
type Config struct {
	ID          string
	Host        string
	Token       string
	Description string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Store implements kv.Store on top of one gist. Each key is kept in a file
// named "{key}.json".
type Store struct {
	client      Client
	id          string
	description string
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	RawURL    string `json:"raw_url"`
}

type gistResponse struct {
	ID    string               `json:"id"`
	Files map[string]*gistFile `json:"files"`
}

// New creates a Store using a go-gh REST client built from cfg.
func New(cfg Config) (*Store, error) {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("gist id is required")
	}
	client, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: cfg.Token,
		Host:      cfg.Host,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return NewWithClient(client, id, cfg.Description), nil
}

// NewWithClient creates a Store over an existing client.
func NewWithClient(client Client, id, description string) *Store {
	if description == "" {
		description = DefaultDescription
	}
	return &Store{client: client, id: id, description: description}
}

// FileName returns the gist file name used for key.
func FileName(key string) string {
	return key + ".json"
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	file, err := s.file(ctx, key)
	if err != nil {
		return nil, err
	}
	if !file.Truncated {
		return []byte(file.Content), nil
	}
	return s.fetchRaw(ctx, key, file.RawURL)
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.patch(ctx, key, map[string]any{"content": string(value)})
}

// Delete removes the key's file from the gist. The gist API accepts a
// delete for a missing file, so absence is checked first.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.file(ctx, key); err != nil {
		return err
	}
	return s.patch(ctx, key, nil)
}

func (s *Store) file(ctx context.Context, key string) (*gistFile, error) {
	var resp gistResponse
	if err := s.client.DoWithContext(ctx, http.MethodGet, s.path(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to read gist %s: %w", s.id, err)
	}
	file, ok := resp.Files[FileName(key)]
	if !ok || file == nil {
		return nil, kv.ErrNotFound
	}
	return file, nil
}

// fetchRaw downloads a file the API response truncated.
func (s *Store) fetchRaw(ctx context.Context, key, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("gist file %s is truncated without a raw url", FileName(key))
	}
	resp, err := s.client.RequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raw gist file %s: %w", FileName(key), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raw gist file %s: %w", FileName(key), err)
	}
	return raw, nil
}

// patch updates a single file. A nil file deletes it.
func (s *Store) patch(ctx context.Context, key string, file map[string]any) error {
	var entry any
	if file != nil {
		entry = file
	}
	body, err := json.Marshal(map[string]any{
		"description": s.description,
		"files": map[string]any{
			FileName(key): entry,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode gist update: %w", err)
	}
	if err := s.client.DoWithContext(ctx, http.MethodPatch, s.path(), bytes.NewReader(body), nil); err != nil {
		return fmt.Errorf("failed to update gist %s: %w", s.id, err)
	}
	return nil
}

func (s *Store) path() string {
	return "gists/" + s.id
}
