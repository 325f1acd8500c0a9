package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"hoikumap/internal/ingest"
	"hoikumap/internal/jptext"
)

// measure is one parsed workbook table: per-facility, per-age counts
// plus the sheet's own totals column when it has one.
type measure struct {
	counts    map[string]map[int]*int
	totals    map[string]*int
	names     map[string]string
	wards     map[string]string
	order     []string
	bracket35 bool
}

func parseMeasure(rows []ingest.Row) (*measure, error) {
	idKey, err := ingest.FacilityIDKey(rows)
	if err != nil {
		return nil, err
	}
	nameKey := ingest.NameKey(rows)
	wardKey := ingest.WardKey(rows)
	totalKey := ingest.TotalKey(rows)
	ageKeys := ingest.AgeKeys(rows)

	m := &measure{
		counts: make(map[string]map[int]*int),
		totals: make(map[string]*int),
		names:  make(map[string]string),
		wards:  make(map[string]string),
		// one column covering the whole bracket must not be summed three times
		bracket35: ageKeys[3] != "" && ageKeys[3] == ageKeys[4] && ageKeys[3] == ageKeys[5],
	}

	for _, row := range rows {
		id := strings.TrimSpace(jptext.FoldWidth(row[idKey]))
		if id == "" {
			continue
		}
		if _, seen := m.counts[id]; seen {
			continue
		}
		m.order = append(m.order, id)
		ages := make(map[int]*int)
		for age := 0; age <= 5; age++ {
			if key := ageKeys[age]; key != "" {
				ages[age] = ingest.ParseCount(row[key])
			}
		}
		m.counts[id] = ages
		if totalKey != "" {
			m.totals[id] = ingest.ParseCount(row[totalKey])
		}
		if nameKey != "" {
			m.names[id] = jptext.NormalizeSpace(row[nameKey])
		}
		if wardKey != "" {
			m.wards[id] = jptext.NormalizeSpace(row[wardKey])
		}
	}
	if len(m.order) == 0 {
		return nil, fmt.Errorf("table has no usable facility rows")
	}
	return m, nil
}

func (m *measure) age(id string, age int) *int {
	if m == nil {
		return nil
	}
	return m.counts[id][age]
}

// group35 returns the 3-5 bracket figure: the bracket column verbatim
// when the sheet publishes one, otherwise the sum of the single ages.
func (m *measure) group35(id string) *int {
	if m == nil {
		return nil
	}
	if m.bracket35 {
		return m.counts[id][3]
	}
	return SumCounts(m.counts[id][3], m.counts[id][4], m.counts[id][5])
}

// total returns the facility total: the sheet's own totals column when
// present, otherwise the sum across ages.
func (m *measure) total(id string) *int {
	if m == nil {
		return nil
	}
	if t, ok := m.totals[id]; ok && t != nil {
		return t
	}
	return SumCounts(m.age(id, 0), m.age(id, 1), m.age(id, 2), m.group35(id))
}

// hasSingleAges reports whether the sheet publishes ages 3..5
// individually, which decides whether ages_0_5 is worth emitting.
func (m *measure) hasSingleAges() bool {
	return m != nil && !m.bracket35
}

// BuildSnapshot merges the three measure tables for one month. accept
// and wait are required; enrolled may be nil when the month predates
// that workbook. Facilities keep the accept table's order, with rows
// only the other tables know appended by id. A non-empty wardScope
// names the snapshot's ward and drops facilities outside it; empty
// scope covers the whole city.
func BuildSnapshot(month, wardScope string, accept, wait, enrolled []ingest.Row) (*Snapshot, error) {
	if month == "" {
		return nil, fmt.Errorf("snapshot month is empty")
	}
	wardScope = strings.TrimSpace(wardScope)
	acc, err := parseMeasure(accept)
	if err != nil {
		return nil, fmt.Errorf("accept table: %w", err)
	}
	wt, err := parseMeasure(wait)
	if err != nil {
		return nil, fmt.Errorf("wait table: %w", err)
	}
	var enr *measure
	if len(enrolled) > 0 {
		enr, err = parseMeasure(enrolled)
		if err != nil {
			return nil, fmt.Errorf("enrolled table: %w", err)
		}
	}

	ids := append([]string(nil), acc.order...)
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	var extra []string
	for _, m := range []*measure{wt, enr} {
		if m == nil {
			continue
		}
		for _, id := range m.order {
			if !known[id] {
				known[id] = true
				extra = append(extra, id)
			}
		}
	}
	sort.Strings(extra)
	ids = append(ids, extra...)

	snap := &Snapshot{Month: month, Ward: wardScope}
	if snap.Ward == "" {
		snap.Ward = "横浜市"
	}
	for _, id := range ids {
		// sheets prefix wards with the city name inconsistently
		ward := strings.ReplaceAll(
			firstNonEmpty(acc.wards[id], wt.wards[id], wardOf(enr, id)), "横浜市", "")
		if wardScope != "" && !strings.Contains(ward, wardScope) {
			continue
		}
		f := &Facility{
			FacilityID: id,
			Name:       firstNonEmpty(acc.names[id], wt.names[id], nameOf(enr, id)),
			Ward:       ward,
			AgeGroups:  make(map[string]*AgeStats, len(ageGroupKeys)),
		}
		for age := 0; age <= 2; age++ {
			f.AgeGroups[fmt.Sprintf("%d", age)] = BuildAgeStats(acc.age(id, age), wt.age(id, age), ageOf(enr, id, age))
		}
		f.AgeGroups["3-5"] = BuildAgeStats(acc.group35(id), wt.group35(id), group35Of(enr, id))
		f.Totals = BuildAgeStats(acc.total(id), wt.total(id), totalOf(enr, id))

		if acc.hasSingleAges() || wt.hasSingleAges() {
			f.Ages05 = make(map[string]*AgeStats, 6)
			for age := 0; age <= 5; age++ {
				f.Ages05[fmt.Sprintf("%d", age)] = BuildAgeStats(acc.age(id, age), wt.age(id, age), ageOf(enr, id, age))
			}
		}
		snap.Facilities = append(snap.Facilities, f)
	}
	return snap, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func nameOf(m *measure, id string) string {
	if m == nil {
		return ""
	}
	return m.names[id]
}

func wardOf(m *measure, id string) string {
	if m == nil {
		return ""
	}
	return m.wards[id]
}

func ageOf(m *measure, id string, age int) *int {
	if m == nil {
		return nil
	}
	return m.age(id, age)
}

func group35Of(m *measure, id string) *int {
	if m == nil {
		return nil
	}
	return m.group35(id)
}

func totalOf(m *measure, id string) *int {
	if m == nil {
		return nil
	}
	return m.total(id)
}
