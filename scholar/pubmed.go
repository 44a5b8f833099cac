package scholar

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"assistant/types"
)

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// pubmedArticleSet mirrors the efetch XML down to the fields we keep.
type pubmedArticleSet struct {
	Articles []struct {
		Citation struct {
			Article struct {
				Title    string `xml:"ArticleTitle"`
				Abstract struct {
					Text []string `xml:"AbstractText"`
				} `xml:"Abstract"`
				Authors []struct {
					LastName string `xml:"LastName"`
					ForeName string `xml:"ForeName"`
				} `xml:"AuthorList>Author"`
				Journal struct {
					PubDate struct {
						Year  string `xml:"Year"`
						Month string `xml:"Month"`
						Day   string `xml:"Day"`
					} `xml:"JournalIssue>PubDate"`
				} `xml:"Journal"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

// SearchPubMed queries PubMed through the NCBI E-utilities: esearch for ids,
// efetch for article details.
func (c *Client) SearchPubMed(ctx context.Context, query string, maxResults int) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")
	params.Set("email", c.email)

	body, err := c.get(ctx, c.EutilsURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed: %w", err)
	}

	var search esearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("pubmed: decode esearch: %w", err)
	}
	ids := search.Result.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	params = url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")
	params.Set("email", c.email)

	body, err = c.get(ctx, c.EutilsURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed: %w", err)
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("pubmed: decode efetch: %w", err)
	}

	papers := make([]types.Paper, 0, len(set.Articles))
	for i, rec := range set.Articles {
		if i >= len(ids) {
			break
		}
		article := rec.Citation.Article

		authors := make([]string, 0, len(article.Authors))
		for _, a := range article.Authors {
			if a.LastName != "" && a.ForeName != "" {
				authors = append(authors, a.LastName+" "+a.ForeName)
			}
		}

		var dateParts []string
		for _, part := range []string{
			article.Journal.PubDate.Year,
			article.Journal.PubDate.Month,
			article.Journal.PubDate.Day,
		} {
			if part != "" {
				dateParts = append(dateParts, part)
			}
		}

		papers = append(papers, types.Paper{
			Title:     strings.TrimSpace(article.Title),
			Authors:   authors,
			Summary:   strings.Join(article.Abstract.Text, " "),
			Published: strings.Join(dateParts, "-"),
			URL:       fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", ids[i]),
			Source:    "PubMed",
			ID:        ids[i],
		})
	}
	return papers, nil
}
