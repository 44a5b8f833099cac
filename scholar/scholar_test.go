package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistant/types"
)

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.01234v1</id>
    <title>Attention Is
  All You Need</title>
    <summary>  We propose a new architecture.  </summary>
    <published>2023-01-03T18:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2301.01234v1" rel="alternate"/>
    <link href="http://arxiv.org/pdf/2301.01234v1" title="pdf" rel="related"/>
  </entry>
</feed>`

func TestSearchArxiv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:transformers", r.URL.Query().Get("search_query"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sortBy"))
		fmt.Fprint(w, arxivFeed)
	}))
	defer srv.Close()

	c := New("test@example.com")
	c.ArxivURL = srv.URL

	papers, err := c.SearchArxiv(context.Background(), "transformers", 5)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	p := papers[0]
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, "We propose a new architecture.", p.Summary)
	assert.Equal(t, "2023-01-03", p.Published)
	assert.Equal(t, "http://arxiv.org/pdf/2301.01234v1", p.URL)
	assert.Equal(t, "arXiv", p.Source)
	assert.Equal(t, "2301.01234v1", p.ID)
}

func TestSearchArxivServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("test@example.com")
	c.ArxivURL = srv.URL

	_, err := c.SearchArxiv(context.Background(), "anything", 5)
	assert.Error(t, err)
}

const pubmedEfetch = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2022</Year><Month>Mar</Month></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>A study of things.</ArticleTitle>
        <Abstract>
          <AbstractText>Background part.</AbstractText>
          <AbstractText>Results part.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Curie</LastName><ForeName>Marie</ForeName></Author>
          <Author><LastName>Anonymous</LastName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestSearchPubMed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			fmt.Fprint(w, `{"esearchresult":{"idlist":["12345"]}}`)
		case strings.Contains(r.URL.Path, "efetch"):
			assert.Equal(t, "12345", r.URL.Query().Get("id"))
			fmt.Fprint(w, pubmedEfetch)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New("test@example.com")
	c.EutilsURL = srv.URL

	papers, err := c.SearchPubMed(context.Background(), "proteins", 5)
	require.NoError(t, err)
	require.Len(t, papers, 1)

	p := papers[0]
	assert.Equal(t, "A study of things.", p.Title)
	assert.Equal(t, []string{"Curie Marie"}, p.Authors)
	assert.Equal(t, "Background part. Results part.", p.Summary)
	assert.Equal(t, "2022-Mar", p.Published)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345/", p.URL)
	assert.Equal(t, "PubMed", p.Source)
	assert.Equal(t, "12345", p.ID)
}

func TestSearchPubMedNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer srv.Close()

	c := New("test@example.com")
	c.EutilsURL = srv.URL

	papers, err := c.SearchPubMed(context.Background(), "nothing", 5)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func paper(source, id string) types.Paper {
	return types.Paper{Source: source, ID: id}
}

func TestInterleave(t *testing.T) {
	a := []types.Paper{paper("arXiv", "a1"), paper("arXiv", "a2"), paper("arXiv", "a3")}
	b := []types.Paper{paper("PubMed", "p1"), paper("PubMed", "p2")}

	t.Run("round robin order", func(t *testing.T) {
		merged := interleave(a, b, 10)
		ids := make([]string, len(merged))
		for i, p := range merged {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"a1", "p1", "a2", "p2", "a3"}, ids)
	})

	t.Run("cap respected", func(t *testing.T) {
		merged := interleave(a, b, 4)
		assert.Len(t, merged, 4)
		assert.Equal(t, "p2", merged[3].ID)
	})

	t.Run("one empty side", func(t *testing.T) {
		merged := interleave(nil, b, 10)
		assert.Len(t, merged, 2)
	})
}

func TestSearchAllDegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("test@example.com")
	c.ArxivURL = srv.URL
	c.EutilsURL = srv.URL

	assert.Empty(t, c.SearchAll(context.Background(), "anything", 3))
}
