package layout

import "sort"

// ComputeMetadata derives metadata from a mapping list and the catalog.
// It is a pure function and idempotent: recomputing over an unchanged
// mapping list yields identical results. Informational fields
// (LastTestResult, TestPerformed, Notes) are carried over from prev
// untouched.
func ComputeMetadata(cfg Configuration, catalog Catalog, prev Metadata) Metadata {
	md := Metadata{
		LastTestResult: prev.LastTestResult,
		TestPerformed:  prev.TestPerformed,
		Notes:          prev.Notes,
	}

	distinctColumns := make(map[int]bool)
	boundTargets := make(map[string]bool)
	counts := make(map[string]int)

	for _, m := range cfg.Mappings {
		if !m.Bound() {
			continue
		}
		md.MappedFieldCount++
		distinctColumns[m.SourceColumnIndex] = true
		boundTargets[m.TargetField] = true
		counts[CategoryOf(m.TargetField)]++
	}
	md.TotalColumns = len(distinctColumns)

	required := catalog.RequiredFields()
	md.RequiredFieldCount = len(required)
	for _, name := range required {
		if boundTargets[name] {
			md.RequiredFieldsMappedCount++
		}
	}

	if len(counts) > 0 {
		md.CategoryCounts = counts
		md.Categories = make([]string, 0, len(counts))
		for cat := range counts {
			md.Categories = append(md.Categories, cat)
		}
		sort.Strings(md.Categories)
	}

	return md
}
