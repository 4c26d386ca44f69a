package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mybookshelf/catalog/internal/domain"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string        // User's search query
	Kinds []domain.Kind // Document kinds to include (empty = all)

	// Filters
	Genres   []string // Genre names, matched case-insensitively, OR across names
	Language string   // Language code

	// Pagination
	Limit  int
	Offset int

	SortBy string // "relevance" (default), "title", "recent"
}

// Default and maximum page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// SearchResult represents the search results.
type SearchResult struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is one matching document.
type Hit struct {
	ID         string            `json:"id"`
	Kind       domain.Kind       `json:"kind"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	params.Limit = min(params.Limit, MaxLimit)
	params.Offset = max(params.Offset, 0)

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.Query != "" {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("authors")
	}
	searchRequest.Fields = []string{"kind", "title"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if k, ok := hit.Fields["kind"].(string); ok {
			h.Kind = domain.Kind(k)
		}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Titles rank above author names, which rank above series titles and
	// descriptions. Author documents match on their title (the name).
	if text := strings.TrimSpace(params.Query); text != "" {
		textQueries := []query.Query{
			match(text, "title", 3.0),
			match(text, "authors", 2.0),
			match(text, "series", 1.5),
			match(text, "description", 0.5),
		}

		// Fuzzy matching for typo tolerance on title
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(text) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(text))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Kinds) > 0 {
		kindQueries := make([]query.Query, len(params.Kinds))
		for i, k := range params.Kinds {
			kindQueries[i] = term(string(k), "kind")
		}
		queries = append(queries, bleve.NewDisjunctionQuery(kindQueries...))
	}

	if len(params.Genres) > 0 {
		genreQueries := make([]query.Query, len(params.Genres))
		for i, g := range params.Genres {
			genreQueries[i] = term(strings.ToLower(strings.TrimSpace(g)), "genres")
		}
		queries = append(queries, bleve.NewDisjunctionQuery(genreQueries...))
	}

	if params.Language != "" {
		queries = append(queries, term(params.Language, "language"))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

func match(text, field string, boost float64) query.Query {
	q := bleve.NewMatchQuery(text)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func term(value, field string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title":
		req.SortBy([]string{"title", "_id"})
	case "recent":
		req.SortBy([]string{"-modified", "_id"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}
