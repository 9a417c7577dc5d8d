// Package hierarchy builds the région → commune → village lookup used by
// the cascading selectors of the entry form. The structure is an immutable
// snapshot: it is rebuilt from the tabular source when the cache layer
// decides to, never mutated in place.
package hierarchy

import (
	"sort"
	"strings"
)

// Row is one (region, commune, village) record from the tabular source.
type Row struct {
	Region  string
	Commune string
	Village string
}

// Hierarchy maps region → commune → sorted, de-duplicated village list.
type Hierarchy map[string]map[string][]string

// Sentinel is the leading empty option every selector list starts with.
const Sentinel = ""

// Build assembles a Hierarchy from raw rows. All three fields are trimmed;
// a row missing any of them is skipped entirely. Villages are de-duplicated
// within their (region, commune) pair and each list is sorted ascending.
func Build(rows []Row) Hierarchy {
	h := Hierarchy{}
	seen := map[[3]string]bool{}
	for _, r := range rows {
		region := strings.TrimSpace(r.Region)
		commune := strings.TrimSpace(r.Commune)
		village := strings.TrimSpace(r.Village)
		if region == "" || commune == "" || village == "" {
			continue
		}
		key := [3]string{region, commune, village}
		if seen[key] {
			continue
		}
		seen[key] = true
		if h[region] == nil {
			h[region] = map[string][]string{}
		}
		h[region][commune] = append(h[region][commune], village)
	}
	for _, communes := range h {
		for _, villages := range communes {
			sort.Strings(villages)
		}
	}
	return h
}

// Regions returns every region name ascending, preceded by the sentinel.
func (h Hierarchy) Regions() []string {
	out := []string{Sentinel}
	for region := range h {
		out = append(out, region)
	}
	sort.Strings(out[1:])
	return out
}

// Communes returns the communes of a region ascending, preceded by the
// sentinel. An empty or unknown region yields just the sentinel.
func (h Hierarchy) Communes(region string) []string {
	out := []string{Sentinel}
	communes, ok := h[region]
	if !ok {
		return out
	}
	for commune := range communes {
		out = append(out, commune)
	}
	sort.Strings(out[1:])
	return out
}

// Villages returns the villages of a (region, commune) pair, preceded by
// the sentinel. If either key is empty or unknown, just the sentinel.
func (h Hierarchy) Villages(region, commune string) []string {
	out := []string{Sentinel}
	communes, ok := h[region]
	if !ok {
		return out
	}
	villages, ok := communes[commune]
	if !ok {
		return out
	}
	return append(out, villages...)
}
