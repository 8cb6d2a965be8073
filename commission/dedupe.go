/*
dedupe.go - Near-duplicate sales-opportunity removal

PURPOSE:
  Sales systems may log the same opportunity multiple times under slightly
  different course-name strings (a program name vs. its abbreviated module
  name). After deduplication the engine guarantees at most one SalesRecord
  per (identity, course-name-equivalence-class), which keeps the
  completion-to-sale join from fanning out.

TWO PASSES:
  1. Exact pre-pass: duplicates on (identity, course name) keep the
     chronologically last record. Shrinks groups before the O(n^2) pass.
  2. Substring pass: per identity, every unordered pair of records is
     compared by course name; if one name contains the other
     (case-insensitive, post-normalization), the later-index record is
     removed.

COMPLEXITY:
  O(n^2) within identity groups only. Groups are small - a student holds
  few opportunities - so this is fine at report-generation scale and is
  not meant for streaming ingestion.
*/
package commission

import "strings"

// Deduplicate removes redundant sales records. The input is not mutated;
// survivors keep their original relative order.
func Deduplicate(sales []SalesRecord) []SalesRecord {
	sales = dropExactDuplicates(sales)
	return dropContainedCourses(sales)
}

// dropExactDuplicates keeps, for each (identity, course name), the record
// with the latest closed date; ties keep the later-index record.
func dropExactDuplicates(sales []SalesRecord) []SalesRecord {
	type key struct{ identity, course string }

	keep := make(map[key]int, len(sales)) // key -> surviving index
	for i, s := range sales {
		k := key{s.Identity, s.CourseName}
		prev, seen := keep[k]
		if !seen || !sales[prev].ClosedDate.After(s.ClosedDate) {
			keep[k] = i
		}
	}

	out := make([]SalesRecord, 0, len(keep))
	for i, s := range sales {
		if keep[key{s.Identity, s.CourseName}] == i {
			out = append(out, s)
		}
	}
	return out
}

// dropContainedCourses removes, within each identity group, the later-index
// record of any pair whose course names overlap by substring containment.
// Course names are already uppercased by normalization, so containment is
// effectively case-insensitive.
func dropContainedCourses(sales []SalesRecord) []SalesRecord {
	byIdentity := make(map[string][]int, len(sales))
	for i, s := range sales {
		byIdentity[s.Identity] = append(byIdentity[s.Identity], i)
	}

	removed := make(map[int]bool)
	for _, group := range byIdentity {
		for a := 0; a < len(group); a++ {
			if removed[group[a]] {
				continue
			}
			for b := a + 1; b < len(group); b++ {
				if removed[group[b]] {
					continue
				}
				first := sales[group[a]].CourseName
				second := sales[group[b]].CourseName
				if first == "" || second == "" {
					continue
				}
				if strings.Contains(first, second) || strings.Contains(second, first) {
					removed[group[b]] = true
				}
			}
		}
	}

	out := make([]SalesRecord, 0, len(sales)-len(removed))
	for i, s := range sales {
		if !removed[i] {
			out = append(out, s)
		}
	}
	return out
}
