package scholar

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"assistant/types"
)

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// SearchArxiv queries the arXiv Atom API, sorted by relevance.
func (c *Client) SearchArxiv(ctx context.Context, query string, maxResults int) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")

	body, err := c.get(ctx, c.ArxivURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv: decode feed: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
		papers = append(papers, types.Paper{
			Title:     collapseWhitespace(entry.Title),
			Authors:   authors,
			Summary:   strings.TrimSpace(entry.Summary),
			Published: datePart(entry.Published),
			URL:       entryPDFLink(entry),
			Source:    "arXiv",
			ID:        arxivShortID(entry.ID),
		})
	}
	return papers, nil
}

// entryPDFLink prefers the entry's explicit pdf link and falls back to
// rewriting the abstract URL.
func entryPDFLink(entry atomEntry) string {
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			return link.Href
		}
	}
	return strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
}

// arxivShortID extracts e.g. "2301.01234v1" from an abstract URL.
func arxivShortID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// datePart truncates an RFC3339 timestamp to its date.
func datePart(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// collapseWhitespace undoes the feed's line wrapping inside titles.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
