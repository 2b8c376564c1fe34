package model

import "strings"

// NormalizeList trims entries, drops blanks, and deduplicates while keeping
// first-seen order. Normalizing an already-normalized list is a no-op; an
// all-blank input collapses to nil.
func NormalizeList(entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
