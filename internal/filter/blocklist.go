package filter

import (
	"regexp"
	"sort"
	"strings"
)

// LineIssue flags one problematic blocklist line. Line numbers are 1-based.
type LineIssue struct {
	Line  int    `json:"line"`
	Entry string `json:"entry"`
}

// ValidationReport summarizes a blocklist validation pass.
type ValidationReport struct {
	Duplicates       []LineIssue `json:"duplicates"`
	WhitespaceIssues []LineIssue `json:"whitespace_issues"`
}

// Clean reports whether the blocklist has no issues.
func (r *ValidationReport) Clean() bool {
	return len(r.Duplicates) == 0 && len(r.WhitespaceIssues) == 0
}

// ValidateBlocklist checks raw blocklist lines for duplicates and
// leading or trailing whitespace. Comparison is case-insensitive after
// trimming; blank lines are ignored.
func ValidateBlocklist(lines []string) *ValidationReport {
	report := &ValidationReport{}
	seen := make(map[string]bool, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if line != trimmed {
			report.WhitespaceIssues = append(report.WhitespaceIssues, LineIssue{Line: i + 1, Entry: line})
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			report.Duplicates = append(report.Duplicates, LineIssue{Line: i + 1, Entry: trimmed})
			continue
		}
		seen[key] = true
	}
	return report
}

// OptimizeTitles removes title entries made redundant by a shorter entry:
// if "Engineer" is listed, "Senior Engineer" can never fire first. Entries
// are compared with the same word-boundary matching the engine uses.
// Surviving entries keep their input order.
func OptimizeTitles(entries []string) ([]string, []string, error) {
	type compiled struct {
		index int
		entry string
		re    *regexp.Regexp
	}

	items := make([]compiled, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		re, err := compileTitlePattern(entry)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, compiled{index: i, entry: entry, re: re})
	}

	// Shortest first so broader entries subsume longer ones; ties keep
	// input order.
	byLength := make([]compiled, len(items))
	copy(byLength, items)
	sort.SliceStable(byLength, func(a, b int) bool {
		return len(byLength[a].entry) < len(byLength[b].entry)
	})

	removed := make(map[int]bool)
	var dropped []string
	for _, shorter := range byLength {
		if removed[shorter.index] {
			continue
		}
		for _, longer := range items {
			if longer.index == shorter.index || removed[longer.index] {
				continue
			}
			if len(longer.entry) <= len(shorter.entry) {
				continue
			}
			if shorter.re.MatchString(longer.entry) {
				removed[longer.index] = true
				dropped = append(dropped, longer.entry)
			}
		}
	}

	var kept []string
	for _, item := range items {
		if !removed[item.index] {
			kept = append(kept, item.entry)
		}
	}
	return kept, dropped, nil
}

// OptimizeCompanies partitions company entries into those whose normalized
// link matches a link observed in the ledger and those never seen. Unseen
// entries are candidates for removal but the decision stays with the user.
func OptimizeCompanies(entries, observedLinks []string) (seen, unseen []string) {
	observed := make(map[string]bool, len(observedLinks))
	for _, link := range observedLinks {
		observed[NormalizeCompanyLink(link)] = true
	}
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		if observed[NormalizeCompanyLink(trimmed)] {
			seen = append(seen, trimmed)
		} else {
			unseen = append(unseen, trimmed)
		}
	}
	return seen, unseen
}
