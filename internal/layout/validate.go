package layout

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks a configuration for structural problems. It is a
// total function: it never fails, even for structurally empty input,
// and always returns a result.
//
// Errors block saving; warnings do not. A required catalog field left
// unmapped is deliberately a warning so that incomplete drafts can
// still be saved.
func Validate(cfg Configuration, catalog Catalog) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(cfg.Name) == "" {
		result.Errors = append(result.Errors, "layout name is required")
	}

	if cfg.HeaderRowIndex <= 0 {
		result.Errors = append(result.Errors, "header row index must be greater than zero")
	}

	if len(cfg.Mappings) == 0 {
		result.Errors = append(result.Errors, "at least one field must be mapped")
	}

	// Group bound mappings by column index; every group larger than one
	// is a conflict.
	byColumn := make(map[int][]string)
	for _, m := range cfg.Mappings {
		if m.Bound() {
			byColumn[m.SourceColumnIndex] = append(byColumn[m.SourceColumnIndex], m.TargetField)
		}
	}
	duplicated := make([]int, 0, len(byColumn))
	for idx, targets := range byColumn {
		if len(targets) > 1 {
			duplicated = append(duplicated, idx)
		}
	}
	sort.Ints(duplicated)
	for _, idx := range duplicated {
		targets := byColumn[idx]
		result.Errors = append(result.Errors,
			fmt.Sprintf("column %d is mapped to multiple fields", idx))
		for _, target := range targets {
			result.Fields = append(result.Fields, FieldValidation{
				Field: target,
				Error: fmt.Sprintf("shares column %d with another field", idx),
				Suggestion: fmt.Sprintf("bind %q to a different column or unbind it",
					target),
			})
		}
	}

	// Required catalog fields with no bound mapping.
	bound := make(map[string]bool, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		if m.Bound() {
			bound[m.TargetField] = true
		}
	}
	for _, name := range catalog.RequiredFields() {
		if !bound[name] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("required field not mapped: %s", name))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
