// Package search validates and shapes full-text search requests
// before they reach the database.
package search

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/db"
)

const (
	// PageSize is the fixed page size for search results
	PageSize = 20

	minQueryLen   = 2
	maxQueryLen   = 100
	excerptRunes  = 240
)

var (
	markupRe     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Result is one search hit with a plain-text excerpt
type Result struct {
	PostID         string    `json:"post_id"`
	BoardSlug      string    `json:"board_slug"`
	BoardName      string    `json:"board_name"`
	Title          string    `json:"title"`
	Excerpt        string    `json:"excerpt"`
	AuthorNickname string    `json:"author_nickname"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Page is one page of search results
type Page struct {
	Query    string    `json:"query"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int64     `json:"total"`
	Results  []*Result `json:"results"`
}

// PostSearcher runs the ranked query; *db.PostRepository satisfies it
type PostSearcher interface {
	SearchPosts(ctx context.Context, query string, page, pageSize int, isAdmin bool) ([]*db.SearchRow, error)
}

// Gateway validates queries and shapes results
type Gateway struct {
	searcher PostSearcher
}

// NewGateway creates a search gateway
func NewGateway(searcher PostSearcher) *Gateway {
	return &Gateway{searcher: searcher}
}

// Search validates the query and returns one page of hits. Admin
// callers see all live posts; everyone else only published ones.
func (g *Gateway) Search(ctx context.Context, query string, page int, isAdmin bool) (*Page, error) {
	query = strings.TrimSpace(query)
	if n := utf8.RuneCountInString(query); n < minQueryLen || n > maxQueryLen {
		return nil, apperr.Validation("Search query must be between 2 and 100 characters")
	}
	if page < 1 {
		page = 1
	}

	rows, err := g.searcher.SearchPosts(ctx, query, page, PageSize, isAdmin)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(rows))
	var total int64
	for _, row := range rows {
		total = row.TotalCount
		results = append(results, &Result{
			PostID:         row.PostID,
			BoardSlug:      row.BoardSlug,
			BoardName:      row.BoardName,
			Title:          row.Title,
			Excerpt:        Excerpt(row.Excerpt),
			AuthorNickname: row.AuthorNickname,
			Status:         row.Status,
			CreatedAt:      row.CreatedAt,
		})
	}

	return &Page{
		Query:    query,
		Page:     page,
		PageSize: PageSize,
		Total:    total,
		Results:  results,
	}, nil
}

// Excerpt strips markup, collapses whitespace, and truncates to the
// excerpt length
func Excerpt(content string) string {
	plain := markupRe.ReplaceAllString(content, "")
	plain = whitespaceRe.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)

	runes := []rune(plain)
	if len(runes) > excerptRunes {
		return string(runes[:excerptRunes])
	}
	return plain
}
