// Package api provides typed access to the generation backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CheatB/zachot-sub000/pkg/httpapi"
)

// Sentinel errors for the status codes the wizard reacts to.
var (
	// ErrNotFound means the referenced draft no longer exists server-side.
	ErrNotFound = errors.New("draft not found")
	// ErrConflict means the draft was already promoted to a running job.
	// The server does not distinguish other conflict causes, so neither
	// do we.
	ErrConflict = errors.New("draft conflict")
)

// Client talks to the generation service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithToken sets the bearer token for all requests.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}
	if result != nil && resp.StatusCode != http.StatusNoContent {
		var env httpapi.Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if !env.OK {
			if env.Error != nil {
				return fmt.Errorf("%s %s: %s: %s", method, path, env.Error.Code, env.Error.Message)
			}
			return fmt.Errorf("%s %s: response not ok", method, path)
		}
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	}
	raw, _ := io.ReadAll(resp.Body)
	var env httpapi.Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, env.Error.Code, env.Error.Message)
	}
	return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, string(raw))
}

// CreateDraft persists a brand new draft.
func (c *Client) CreateDraft(ctx context.Context, req CreateDraftRequest) (Draft, error) {
	var result Draft
	if err := c.do(ctx, http.MethodPost, "/generations", req, &result); err != nil {
		return Draft{}, err
	}
	return result, nil
}

// UpdateDraft applies a partial update to an existing draft.
func (c *Client) UpdateDraft(ctx context.Context, id string, req UpdateDraftRequest) (Draft, error) {
	var result Draft
	if err := c.do(ctx, http.MethodPatch, "/generations/"+id, req, &result); err != nil {
		return Draft{}, err
	}
	return result, nil
}

// GetDraft fetches a draft for the rehydrate-then-resume flow.
func (c *Client) GetDraft(ctx context.Context, id string) (Draft, error) {
	var result Draft
	if err := c.do(ctx, http.MethodGet, "/generations/"+id, nil, &result); err != nil {
		return Draft{}, err
	}
	return result, nil
}

// SuggestDetails proposes a goal and idea for a topic.
func (c *Client) SuggestDetails(ctx context.Context, req DetailsRequest) (DetailsSuggestion, error) {
	var result DetailsSuggestion
	if err := c.do(ctx, http.MethodPost, "/suggest/details", req, &result); err != nil {
		return DetailsSuggestion{}, err
	}
	return result, nil
}

// SuggestStructure proposes an ordered section outline.
func (c *Client) SuggestStructure(ctx context.Context, req StructureRequest) (StructureSuggestion, error) {
	var result StructureSuggestion
	if err := c.do(ctx, http.MethodPost, "/suggest/structure", req, &result); err != nil {
		return StructureSuggestion{}, err
	}
	return result, nil
}

// SuggestSources proposes a citation list.
func (c *Client) SuggestSources(ctx context.Context, req SourcesRequest) (SourcesSuggestion, error) {
	var result SourcesSuggestion
	if err := c.do(ctx, http.MethodPost, "/suggest/sources", req, &result); err != nil {
		return SourcesSuggestion{}, err
	}
	return result, nil
}

// Cost returns the price and balance verdict for a draft.
func (c *Client) Cost(ctx context.Context, id string) (Cost, error) {
	var result Cost
	if err := c.do(ctx, http.MethodGet, "/generations/"+id+"/cost", nil, &result); err != nil {
		return Cost{}, err
	}
	return result, nil
}

// CreateJob launches the irreversible generation job for a draft.
func (c *Client) CreateJob(ctx context.Context, id string) (Job, error) {
	var result Job
	if err := c.do(ctx, http.MethodPost, "/generations/"+id+"/jobs", nil, &result); err != nil {
		return Job{}, err
	}
	return result, nil
}
