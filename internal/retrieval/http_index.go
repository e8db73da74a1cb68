package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoval/attestor/internal/model"
)

// HTTPIndex queries a remote vector-search service. The wire contract
// mirrors the common dense-retrieval shape: POST the query vector and a
// filter, receive ranked hits.
type HTTPIndex struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPIndex creates a client for a remote search service
func NewHTTPIndex(baseURL string, timeout time.Duration) *HTTPIndex {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPIndex{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
	}
}

type searchRequest struct {
	Vector        []float32 `json:"vector"`
	Kind          string    `json:"kind"`
	ExcludeAuthor string    `json:"exclude_author,omitempty"`
	K             int       `json:"k"`
}

type searchResponse struct {
	Hits []Hit `json:"hits"`
}

// Search posts the query vector to the remote service
func (h *HTTPIndex) Search(ctx context.Context, vec []float32, kind model.ContentKind, excludeAuthor string, k int) ([]Hit, error) {
	body, err := json.Marshal(searchRequest{
		Vector:        vec,
		Kind:          string(kind),
		ExcludeAuthor: excludeAuthor,
		K:             k,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service error: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return parsed.Hits, nil
}

// Add pushes one entry to the remote service's index
func (h *HTTPIndex) Add(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(map[string]interface{}{
		"submission_id": entry.SubmissionID,
		"author":        entry.Author,
		"file_name":     entry.FileName,
		"kind":          string(entry.Kind),
		"excerpt":       entry.Excerpt,
		"vector":        entry.Vector,
	})
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/index", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("index service error: status %d", resp.StatusCode)
	}
	return nil
}
