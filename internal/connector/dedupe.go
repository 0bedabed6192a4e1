package connector

import "strings"

// Deduplicate collapses records describing the same paper. Records
// sharing a DOI (case-insensitive) are merged; records without a DOI
// are deduplicated by the first 100 characters of the lowercased
// title, first occurrence winning.
func Deduplicate(records []Record) []Record {
	byDOI := make(map[string][]Record)
	var doiOrder []string
	var noDOI []Record

	for _, r := range records {
		if r.DOI != "" {
			key := strings.ToLower(r.DOI)
			if _, seen := byDOI[key]; !seen {
				doiOrder = append(doiOrder, key)
			}
			byDOI[key] = append(byDOI[key], r)
		} else {
			noDOI = append(noDOI, r)
		}
	}

	var deduplicated []Record
	for _, key := range doiOrder {
		deduplicated = append(deduplicated, mergeRecords(byDOI[key]))
	}

	titleSeen := make(map[string]bool)
	for _, r := range noDOI {
		key := titleKey(r.Title)
		if titleSeen[key] {
			continue
		}
		titleSeen[key] = true
		deduplicated = append(deduplicated, r)
	}

	return deduplicated
}

// mergeRecords combines records for the same paper, taking the best
// information from each source. Single-member groups pass through
// untouched, with no "sources" annotation.
func mergeRecords(group []Record) Record {
	if len(group) == 1 {
		return group[0]
	}

	merged := group[0]
	sources := make([]string, 0, len(group))
	for _, r := range group {
		sources = append(sources, r.Source)
	}

	// Fresh map so merging never mutates an input record's metadata.
	metadata := make(map[string]string, len(merged.Metadata)+1)
	for k, v := range merged.Metadata {
		metadata[k] = v
	}

	for _, r := range group[1:] {
		if r.Abstract != "" && len(r.Abstract) > len(merged.Abstract) {
			merged.Abstract = r.Abstract
		}
		if len(r.Authors) > len(merged.Authors) {
			merged.Authors = r.Authors
		}
		if r.Score > merged.Score {
			merged.Score = r.Score
		}
		for k, v := range r.Metadata {
			metadata[k] = v
		}
	}

	metadata["sources"] = strings.Join(sources, ",")
	merged.Metadata = metadata

	return merged
}

func titleKey(title string) string {
	key := strings.TrimSpace(strings.ToLower(title))
	if len(key) > 100 {
		key = key[:100]
	}
	return key
}
