package marketdata

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultTitle   = "No title"
	maxSummaryRune = 200
)

// GetNewsHeadlines merges the most recent entries of every configured feed,
// newest first, and returns at most limit of them. A failing feed is skipped.
//
// Entries without a publish time are stamped with the fetch time, which
// sorts them ahead of dated entries.
func (f *Fetcher) GetNewsHeadlines(ctx context.Context, limit int) []types.Headline {
	defer observe("news", time.Now())

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetNewsHeadlines",
		trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	if limit <= 0 {
		return []types.Headline{}
	}

	if cached, ok := f.cache.Get(newsKey); ok {
		if headlines, ok := cached.([]types.Headline); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return truncate(headlines, limit)
		}
	}

	v, _ := f.loadOnce(newsKey, func() (interface{}, bool) {
		var (
			merged    []types.Headline
			succeeded int
		)
		for _, feed := range f.feeds {
			f.throttle("feed", feed.Name, f.limits.Feed)
			UpstreamFetchesTotal.WithLabelValues("news").Inc()

			entries, err := feed.Source.FetchEntries(detach(ctx))
			if err != nil {
				span.RecordError(err)
				ItemFailuresTotal.WithLabelValues("news").Inc()
				f.logger.Warn("news-source-skipped",
					zap.String("feed", feed.Name),
					zap.Error(err))
				continue
			}

			succeeded++
			merged = append(merged, f.topHeadlines(feed.Name, entries)...)
		}

		sortHeadlines(merged)

		// Cache the full merge so any limit can be served from it.
		if succeeded > 0 {
			f.cache.Set(newsKey, merged, f.ttl.News)
		}

		span.SetAttributes(attribute.Int("feeds_ok", succeeded))
		return merged, true
	})

	// The merge is shared by every caller of the flight; hand out copies.
	headlines, _ := v.([]types.Headline)
	return truncate(headlines, limit)
}

// topHeadlines shapes the most recent entries of one feed.
func (f *Fetcher) topHeadlines(source string, entries []sources.FeedEntry) []types.Headline {
	now := f.now()

	headlines := make([]types.Headline, 0, len(entries))
	for _, e := range entries {
		published := now
		if e.PublishedAt != nil {
			published = *e.PublishedAt
		}

		title := e.Title
		if title == "" {
			title = defaultTitle
		}

		headlines = append(headlines, types.Headline{
			Title:       title,
			Summary:     truncateRunes(e.Summary, maxSummaryRune),
			Link:        e.Link,
			Source:      source,
			PublishedAt: published,
		})
	}

	sortHeadlines(headlines)
	if len(headlines) > f.headlinesPerFeed {
		headlines = headlines[:f.headlinesPerFeed]
	}
	return headlines
}

func sortHeadlines(h []types.Headline) {
	sort.SliceStable(h, func(i, j int) bool { return h[i].PublishedAt.After(h[j].PublishedAt) })
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
