// Package search implements fuzzy, skim-style matching over a snapshot
// of recent clipboard items. Search is never persisted; it re-runs on
// every query against whatever items the caller hands it, and it never
// decrypts envelopes — encrypted items are matched on their plaintext
// preview_text and data_type fields only.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

// source adapts a snapshot of items to fuzzy.Source, matching against
// each item's preview_text when present, falling back to its data_type.
type source struct {
	items []domain.Item
}

func (s source) String(i int) string {
	item := s.items[i]
	if item.PreviewText != nil {
		return *item.PreviewText
	}
	return string(item.DataType)
}

func (s source) Len() int { return len(s.items) }

// Find runs a fuzzy query over items. An empty query returns every item
// unchanged, preserving input order. Otherwise each item is scored
// case-insensitively against preview_text (or data_type when absent);
// non-matches are excluded, and the surviving items are sorted by score
// descending, ties broken by timestamp descending.
func Find(items []domain.Item, query string) []domain.Item {
	if strings.TrimSpace(query) == "" {
		out := make([]domain.Item, len(items))
		copy(out, items)
		return out
	}

	matches := fuzzy.FindFrom(query, source{items: items})

	type scored struct {
		item  domain.Item
		score int
	}
	results := make([]scored, len(matches))
	for i, m := range matches {
		results[i] = scored{item: items[m.Index], score: m.Score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].item.Timestamp.After(results[j].item.Timestamp)
	})

	out := make([]domain.Item, len(results))
	for i, r := range results {
		out[i] = r.item
	}
	return out
}
