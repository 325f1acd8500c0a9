package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"hoikumap/internal/jptext"
)

// Month labels are canonical first-of-month dates, YYYY-MM-01. Reiwa
// years convert as gregorian = 2018 + reiwa; the fiscal year starts in
// April, so months 1..3 belong to the following calendar year.

var (
	reiwaMonthRe    = regexp.MustCompile(`令和\s*(元|\d{1,2})\s*年\s*(\d{1,2})\s*月`)
	gregMonthRe     = regexp.MustCompile(`(20\d{2})\s*年\s*(\d{1,2})\s*月`)
	numericMonthRe  = regexp.MustCompile(`(20\d{2})[-/\.](\d{1,2})`)
	bareMonthRe     = regexp.MustCompile(`(\d{1,2})\s*月`)
	reiwaFiscalRe   = regexp.MustCompile(`令和\s*(元|\d{1,2})\s*年度`)
	gregFiscalRe    = regexp.MustCompile(`(20\d{2})\s*年度`)
	updatedColumnRe = regexp.MustCompile(`更新日|基準日|時点`)
)

func reiwaYear(s string) int {
	if s == "元" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

func formatMonth(year, month int) string {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-01", year, month)
}

// MonthFromText extracts a canonical month label from free text: a
// Reiwa era date, a Gregorian 年/月 date, or a numeric YYYY-MM. Widths
// are folded first so full-width digits match. Returns "" when no
// pattern applies.
func MonthFromText(text string) string {
	t := jptext.FoldWidth(text)
	if m := reiwaMonthRe.FindStringSubmatch(t); m != nil {
		mm, _ := strconv.Atoi(m[2])
		return formatMonth(2018+reiwaYear(m[1]), mm)
	}
	if m := gregMonthRe.FindStringSubmatch(t); m != nil {
		yy, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return formatMonth(yy, mm)
	}
	if m := numericMonthRe.FindStringSubmatch(t); m != nil {
		yy, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return formatMonth(yy, mm)
	}
	return ""
}

// MonthNumberFromText extracts a bare month number ("4月") when no year
// is present. Returns 0 when nothing matches.
func MonthNumberFromText(text string) int {
	t := jptext.FoldWidth(text)
	if reiwaMonthRe.MatchString(t) || gregMonthRe.MatchString(t) {
		return 0
	}
	if m := bareMonthRe.FindStringSubmatch(t); m != nil {
		mm, _ := strconv.Atoi(m[1])
		if mm >= 1 && mm <= 12 {
			return mm
		}
	}
	return 0
}

// FiscalYearFromText extracts a fiscal start year from a 年度 label,
// Reiwa or Gregorian. Returns 0 when nothing matches.
func FiscalYearFromText(text string) int {
	t := jptext.FoldWidth(text)
	if m := reiwaFiscalRe.FindStringSubmatch(t); m != nil {
		return 2018 + reiwaYear(m[1])
	}
	if m := gregFiscalRe.FindStringSubmatch(t); m != nil {
		yy, _ := strconv.Atoi(m[1])
		return yy
	}
	return 0
}

// MonthFromFiscalYear resolves a bare month number against the fiscal
// year that starts in April: April through December fall in the start
// year, January through March in the next.
func MonthFromFiscalYear(month, fiscalYear int) string {
	if month >= 4 {
		return formatMonth(fiscalYear, month)
	}
	return formatMonth(fiscalYear+1, month)
}

// MonthFromUpdatedColumn scans the extracted rows for an as-of column
// (更新日, 基準日, 時点) and resolves the first parseable value in it.
// The dated column beats every label guess because it reflects what the
// sheet actually contains.
func MonthFromUpdatedColumn(rows []Row) string {
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for key := range row {
			if updatedColumnRe.MatchString(key) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			if m := MonthFromText(row[key]); m != "" {
				return m
			}
		}
	}
	return ""
}
