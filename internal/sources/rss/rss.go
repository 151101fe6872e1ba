// Package rss reads headline feeds (RSS or Atom) with gofeed.
package rss

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/mselser95/market-dashboard/internal/sources"
	"go.uber.org/zap"
)

// Name identifies this adapter in errors and metrics.
const Name = "rss"

// Source implements sources.FeedSource for one feed URL.
type Source struct {
	name   string
	url    string
	parser *gofeed.Parser
	logger *zap.Logger
}

// Config holds feed configuration.
type Config struct {
	Name       string
	URL        string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zap.Logger
}

// New creates a feed source.
func New(cfg *Config) *Source {
	parser := gofeed.NewParser()
	parser.Client = cfg.HTTPClient
	if parser.Client == nil {
		parser.Client = &http.Client{Timeout: 10 * time.Second}
	}
	parser.UserAgent = cfg.UserAgent

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Source{
		name:   cfg.Name,
		url:    cfg.URL,
		parser: parser,
		logger: logger,
	}
}

// FetchEntries downloads and parses the feed. Entries keep feed order.
// Summaries are reduced to plain text.
func (s *Source) FetchEntries(ctx context.Context) ([]sources.FeedEntry, error) {
	start := time.Now()
	defer func() {
		sources.FetchDurationSeconds.WithLabelValues(Name).Observe(time.Since(start).Seconds())
	}()

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		sources.FetchErrorsTotal.WithLabelValues(Name).Inc()
		return nil, sources.Wrap(Name, s.name, err)
	}

	entries := make([]sources.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		entries = append(entries, sources.FeedEntry{
			Title:       strings.TrimSpace(item.Title),
			Summary:     PlainText(summary),
			Link:        strings.TrimSpace(item.Link),
			PublishedAt: published,
		})
	}

	s.logger.Debug("feed-fetched",
		zap.String("feed", s.name),
		zap.Int("entries", len(entries)))

	return entries, nil
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
