package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/kyleking/gh-metahistory/internal/metadata"
)

type itemSource metadata.InputArray

func (s itemSource) String(i int) string { return s[i].Name }
func (s itemSource) Len() int            { return len(s) }

// FilterItems returns the items whose names fuzzy-match pattern, best match
// first. An empty pattern returns items unchanged.
func FilterItems(items metadata.InputArray, pattern string) metadata.InputArray {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return items
	}

	matches := fuzzy.FindFrom(pattern, itemSource(items))
	out := make(metadata.InputArray, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

// FilterEntries applies FilterItems to every entry. Entries left without
// items are kept so positions in a pull request's history stay stable.
func FilterEntries(entries []metadata.HistoryEntry, pattern string) []metadata.HistoryEntry {
	if strings.TrimSpace(pattern) == "" {
		return entries
	}
	out := make([]metadata.HistoryEntry, len(entries))
	for i, e := range entries {
		e.Items = FilterItems(e.Items, pattern)
		out[i] = e
	}
	return out
}
