package ingest

import (
	"fmt"
	"strings"
)

// Row is one data row keyed by its sanitized header label.
type Row map[string]string

// headerKeywords mark a row as a likely header inside a noisy sheet.
var headerKeywords = []string{
	"施設", "区", "合計", "0歳", "０歳", "1歳", "１歳", "受入", "待ち", "児童",
}

const (
	headerScanLimit  = 120 // rows inspected when hunting for the header
	headerMinCells   = 5   // a header row has at least this many labels
	blankRunLimit    = 10  // consecutive blank rows that end the table
	keywordBonus     = 10
	monthScanRows    = 20
	monthScanCols    = 10
)

// FindHeaderRow scores the first rows of a sheet and returns the index
// of the most header-like one, or -1 when the sheet has no table.
// Score is nonempty-cell count plus a bonus when any domain keyword
// appears; the first best-scoring row wins ties.
func FindHeaderRow(rows [][]string) int {
	best, bestScore := -1, -1
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		nonempty := 0
		hasKW := false
		for _, c := range rows[i] {
			if strings.TrimSpace(c) == "" {
				continue
			}
			nonempty++
			if !hasKW {
				for _, kw := range headerKeywords {
					if strings.Contains(c, kw) {
						hasKW = true
						break
					}
				}
			}
		}
		score := nonempty
		if hasKW {
			score += keywordBonus
		}
		if nonempty >= headerMinCells && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// SanitizeHeader gives every column a unique, nonempty key: blank cells
// become col{i}, repeated labels get _2, _3 suffixes.
func SanitizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int)
	for i, h := range header {
		key := strings.TrimSpace(h)
		if key == "" {
			key = fmt.Sprintf("col%d", i)
		}
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			key = fmt.Sprintf("%s_%d", key, n+1)
		} else {
			seen[key] = 1
		}
		out[i] = key
	}
	return out
}

// TableRows converts everything below the header row into labeled rows,
// stopping after a run of fully blank rows (trailing sheet noise).
func TableRows(rows [][]string, headerIdx int) []Row {
	if headerIdx < 0 || headerIdx >= len(rows) {
		return nil
	}
	header := SanitizeHeader(rows[headerIdx])
	var out []Row
	blanks := 0
	for _, raw := range rows[headerIdx+1:] {
		if isBlank(raw) {
			blanks++
			if blanks >= blankRunLimit {
				break
			}
			continue
		}
		blanks = 0
		row := make(Row, len(header))
		for i, key := range header {
			if i < len(raw) {
				row[key] = raw[i]
			} else {
				row[key] = ""
			}
		}
		out = append(out, row)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseSheet resolves the month label and extracts the table from one
// sheet. fiscalYear is the fiscal start year scraped alongside the
// file's link, or 0 when unknown; it backs the last resolution step.
// month is "" when no step could resolve it; rows is nil when the sheet
// holds no table.
func ParseSheet(rows [][]string, title string, fiscalYear int) (month string, out []Row) {
	month = MonthFromText(title)
	if month == "" {
		scanR := len(rows)
		if scanR > monthScanRows {
			scanR = monthScanRows
		}
	scan:
		for _, r := range rows[:scanR] {
			scanC := len(r)
			if scanC > monthScanCols {
				scanC = monthScanCols
			}
			for _, c := range r[:scanC] {
				if month = MonthFromText(c); month != "" {
					break scan
				}
			}
		}
	}

	hidx := FindHeaderRow(rows)
	if hidx < 0 {
		return month, nil
	}
	out = TableRows(rows, hidx)

	if m := MonthFromUpdatedColumn(out); m != "" {
		month = m
	}

	if month == "" && fiscalYear > 0 {
		mm := MonthNumberFromText(title)
		if mm == 0 {
		scan2:
			for _, r := range rows[:min(len(rows), 10)] {
				for _, c := range r[:min(len(r), 6)] {
					if mm = MonthNumberFromText(c); mm != 0 {
						break scan2
					}
				}
			}
		}
		if mm != 0 {
			month = MonthFromFiscalYear(mm, fiscalYear)
		}
	}
	return month, out
}
