// Package scholar queries external academic paper providers (arXiv and
// PubMed). Provider failures degrade to empty result lists; they are never
// surfaced to the caller.
package scholar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"assistant/types"
)

const (
	defaultArxivURL  = "http://export.arxiv.org/api/query"
	defaultEutilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
)

// Searcher is the paper-search collaborator interface consumed by the
// orchestrator.
type Searcher interface {
	SearchAll(ctx context.Context, query string, maxResults int) []types.Paper
}

// Client talks to both providers. ArxivURL and EutilsURL may be overridden
// before first use, which the tests rely on.
type Client struct {
	ArxivURL  string
	EutilsURL string

	email  string
	httpc  *http.Client
	logger *slog.Logger
}

var _ Searcher = (*Client)(nil)

// New creates a provider client. The email is sent with PubMed requests as
// NCBI asks of E-utilities users.
func New(email string) *Client {
	return &Client{
		ArxivURL:  defaultArxivURL,
		EutilsURL: defaultEutilsURL,
		email:     email,
		httpc:     &http.Client{Timeout: 20 * time.Second},
		logger:    slog.Default(),
	}
}

// SearchAll queries both providers sequentially and interleaves their
// results round-robin, assuming each provider returns relevance order.
// At most 2*maxResults papers are returned.
func (c *Client) SearchAll(ctx context.Context, query string, maxResults int) []types.Paper {
	arxivPapers, err := c.SearchArxiv(ctx, query, maxResults)
	if err != nil {
		c.logger.Error("arxiv search failed", "error", err)
		arxivPapers = nil
	}

	pubmedPapers, err := c.SearchPubMed(ctx, query, maxResults)
	if err != nil {
		c.logger.Error("pubmed search failed", "error", err)
		pubmedPapers = nil
	}

	return interleave(arxivPapers, pubmedPapers, maxResults*2)
}

// interleave merges two relevance-ordered lists round-robin, capped at limit.
// This trusts provider ordering; it is not a scored merge.
func interleave(a, b []types.Paper, limit int) []types.Paper {
	combined := make([]types.Paper, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			combined = append(combined, a[i])
		}
		if i < len(b) {
			combined = append(combined, b[i])
		}
	}
	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

// get issues a GET and returns the body, treating non-200 statuses as errors.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
