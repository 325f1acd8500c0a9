package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hoikumap/internal/jptext"
)

// Column guessing works on sanitized header keys. The published
// workbooks never agree on labels across years, so each role is found
// by a cascade: known exact labels first, then label substrings, and
// for the facility id a content probe as the last resort.

var facilityIDLabels = []string{
	"施設番号", "施設・事業所番号", "事業所番号", "施設ID", "施設No", "No",
}

var nameLabels = []string{
	"施設・事業所名", "施設名", "事業所名", "保育所名", "施設・事業名",
}

var wardLabels = []string{
	"区", "区名", "行政区",
}

var totalLabels = []string{
	"合計", "計", "総数",
}

var (
	digitRunRe = regexp.MustCompile(`\d{4,}`)
	countRe    = regexp.MustCompile(`-?\d+`)
	ageLabelRe = regexp.MustCompile(`(\d)\s*[・･~〜、-]?\s*(\d)?\s*歳`)
)

const (
	idProbeSample  = 200
	idProbeRatio   = 0.3
	idProbeMinHits = 10
)

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func findLabel(rows []Row, labels []string) string {
	if len(rows) == 0 {
		return ""
	}
	for _, want := range labels {
		for _, key := range sortedKeys(rows[0]) {
			if jptext.FoldWidth(key) == jptext.FoldWidth(want) {
				return key
			}
		}
	}
	return ""
}

// FacilityIDKey finds the column holding the facility number. Exact
// labels win; then any label combining 番号/ID with 施設/事業所; finally
// a content probe that accepts a column where enough sampled cells hold
// a 4+ digit run. Returns an error when no column qualifies, which
// aborts the ingest rather than merging rows on a guessed key.
func FacilityIDKey(rows []Row) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to probe for a facility id column")
	}
	if key := findLabel(rows, facilityIDLabels); key != "" {
		return key, nil
	}

	for _, key := range sortedKeys(rows[0]) {
		k := jptext.FoldWidth(key)
		hasNo := strings.Contains(k, "番号") || strings.Contains(strings.ToUpper(k), "ID")
		hasFac := strings.Contains(k, "施設") || strings.Contains(k, "事業所")
		if hasNo && hasFac {
			return key, nil
		}
	}

	sample := rows
	if len(sample) > idProbeSample {
		sample = sample[:idProbeSample]
	}
	for _, key := range sortedKeys(rows[0]) {
		hits, nonempty := 0, 0
		for _, row := range sample {
			v := strings.TrimSpace(row[key])
			if v == "" {
				continue
			}
			nonempty++
			if digitRunRe.MatchString(jptext.FoldWidth(v)) {
				hits++
			}
		}
		if nonempty == 0 {
			continue
		}
		if float64(hits) >= idProbeRatio*float64(nonempty) && hits >= idProbeMinHits {
			return key, nil
		}
	}
	return "", fmt.Errorf("no facility id column found among %v", sortedKeys(rows[0]))
}

// NameKey finds the facility name column: exact labels, then any label
// carrying both 施設/事業所/保育 and 名.
func NameKey(rows []Row) string {
	if key := findLabel(rows, nameLabels); key != "" {
		return key
	}
	if len(rows) == 0 {
		return ""
	}
	for _, key := range sortedKeys(rows[0]) {
		k := jptext.FoldWidth(key)
		if !strings.Contains(k, "名") {
			continue
		}
		if strings.Contains(k, "施設") || strings.Contains(k, "事業所") || strings.Contains(k, "保育") {
			return key
		}
	}
	return ""
}

// WardKey finds the ward column: exact labels, then the first label
// ending in 区.
func WardKey(rows []Row) string {
	if key := findLabel(rows, wardLabels); key != "" {
		return key
	}
	if len(rows) == 0 {
		return ""
	}
	for _, key := range sortedKeys(rows[0]) {
		if strings.HasSuffix(jptext.FoldWidth(key), "区") {
			return key
		}
	}
	return ""
}

// TotalKey finds the totals column, or "" when the sheet has none.
func TotalKey(rows []Row) string {
	return findLabel(rows, totalLabels)
}

// AgeKeys maps age 0..5 to the header key holding that age's count.
// A bracket label like 3〜5歳 is assigned to every age it covers.
func AgeKeys(rows []Row) map[int]string {
	out := make(map[int]string)
	if len(rows) == 0 {
		return out
	}
	for _, key := range sortedKeys(rows[0]) {
		m := ageLabelRe.FindStringSubmatch(jptext.FoldWidth(key))
		if m == nil {
			continue
		}
		lo, _ := strconv.Atoi(m[1])
		hi := lo
		if m[2] != "" {
			hi, _ = strconv.Atoi(m[2])
		}
		if lo > 5 || hi > 5 || hi < lo {
			continue
		}
		for age := lo; age <= hi; age++ {
			if _, taken := out[age]; !taken {
				out[age] = key
			}
		}
	}
	return out
}

// dashes the published sheets use for "zero".
var dashValues = map[string]bool{
	"-": true, "－": true, "ー": true, "−": true, "―": true, "‐": true, "—": true,
}

// ParseCount interprets one count cell. Blank cells return nil (the
// sheet genuinely has no value there); dash variants mean zero; numbers
// are read after width folding and comma stripping. Unparseable text
// returns nil.
func ParseCount(cell string) *int {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	if dashValues[s] {
		zero := 0
		return &zero
	}
	s = jptext.FoldWidth(s)
	s = strings.ReplaceAll(s, ",", "")
	if m := countRe.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return &n
		}
	}
	return nil
}
