package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Page is one remote wiki page in storage markup, as returned by a fetcher.
type Page struct {
	ID           string
	Title        string
	URL          string
	Storage      string // raw storage-format body
	LastModified time.Time
}

// PageFetcher lists pages from a remote wiki-style system. Implementations
// own pagination and authentication; the source only needs the full set.
type PageFetcher interface {
	FetchPages(ctx context.Context) ([]Page, error)
}

// PageSource adapts a PageFetcher into a Source producing storage-format
// documents. maxPages of 0 means unlimited.
type PageSource struct {
	fetcher  PageFetcher
	maxPages int
	logger   *slog.Logger
}

// NewPageSource creates a page source over fetcher.
func NewPageSource(fetcher PageFetcher, maxPages int, logger *slog.Logger) *PageSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageSource{fetcher: fetcher, maxPages: maxPages, logger: logger}
}

// Enumerate fetches all pages and maps them to documents, sorted by title so
// the order does not depend on the remote listing order. Pages with an empty
// body are dropped here rather than wasting an embed call downstream.
func (s *PageSource) Enumerate(ctx context.Context) ([]Document, error) {
	pages, err := s.fetcher.FetchPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pages: %w", err)
	}

	if s.maxPages > 0 && len(pages) > s.maxPages {
		s.logger.Info("limiting page source",
			"available", len(pages),
			"max_pages", s.maxPages)
		pages = pages[:s.maxPages]
	}

	docs := make([]Document, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Storage) == "" {
			s.logger.Debug("skipping empty page", "page_id", page.ID, "title", page.Title)
			continue
		}

		name := page.Title
		if name == "" {
			name = page.ID
		}

		docs = append(docs, Document{
			Name:         name,
			Path:         page.URL,
			Raw:          page.Storage,
			Format:       FormatStorage,
			LastModified: page.LastModified,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	s.logger.Debug("enumerated page source", "documents", len(docs))
	return docs, nil
}
