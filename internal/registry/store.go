package registry

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"

	"hoikumap/internal/jptext"
)

// Store holds the registry table in memory: row order is preserved for
// the file round-trip, the id index serves the merge joins.
type Store struct {
	fields []string
	rows   []*Record
	byID   map[string]*Record
}

// NewStore returns an empty store with the canonical schema.
func NewStore() *Store {
	return &Store{
		fields: append([]string(nil), Columns...),
		byID:   make(map[string]*Record),
	}
}

// Load reads the registry CSV. Missing canonical columns are appended
// to the schema (existing column order is never disturbed); unknown
// columns are kept. A UTF-8 BOM on the header is tolerated.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("registry %s has no header row", path)
	}

	header := all[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	s := &Store{
		fields: append([]string(nil), header...),
		byID:   make(map[string]*Record),
	}
	for _, c := range Columns {
		if !contains(s.fields, c) {
			s.fields = append(s.fields, c)
		}
	}

	for _, line := range all[1:] {
		rec := &Record{}
		for i, col := range header {
			if i < len(line) {
				rec.Set(col, line[i])
			}
		}
		s.append(rec)
	}
	return s, nil
}

// Save writes the whole table to path via a temp file so an interrupted
// run never leaves a truncated registry behind.
func (s *Store) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.fields); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range s.rows {
		line := make([]string, len(s.fields))
		for i, col := range s.fields {
			line[i] = rec.Get(col)
		}
		if err := w.Write(line); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// Fields returns the current schema in file order.
func (s *Store) Fields() []string { return s.fields }

// Records returns the rows in file order. The slice is shared; callers
// mutate records in place, which is how reconciliation applies repairs.
func (s *Store) Records() []*Record { return s.rows }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// Get returns the record for a facility id, or nil.
func (s *Store) Get(facilityID string) *Record {
	return s.byID[strings.TrimSpace(facilityID)]
}

// Add appends a new record. Rows with a blank or duplicate facility_id
// are rejected: the id is the one immutable join key.
func (s *Store) Add(rec *Record) error {
	id := strings.TrimSpace(rec.FacilityID)
	if id == "" {
		return fmt.Errorf("record has no facility_id")
	}
	if _, dup := s.byID[id]; dup {
		return fmt.Errorf("facility_id %s already present", id)
	}
	s.append(rec)
	return nil
}

func (s *Store) append(rec *Record) {
	s.rows = append(s.rows, rec)
	if id := strings.TrimSpace(rec.FacilityID); id != "" {
		s.byID[id] = rec
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

// SanitizeStations blanks nearest_station, walk_minutes and
// station_kana together on every row whose stored station fails the
// validity check, so the row is picked up for repair instead of
// carrying garbage forward. Returns the number of rows blanked.
func SanitizeStations(s *Store) int {
	n := 0
	for _, rec := range s.rows {
		st := strings.TrimSpace(rec.NearestStation)
		wm, wmOK := rec.WalkMinutesInt()
		bad := false
		if st != "" && !jptext.LooksLikeStation(st) {
			bad = true
		}
		if st == "" && strings.TrimSpace(rec.WalkMinutes) != "" {
			// walk minutes without a station is meaningless
			bad = true
		}
		if wmOK && (wm <= 0 || wm >= 200) {
			bad = true
		}
		if strings.TrimSpace(rec.WalkMinutes) != "" && !wmOK {
			bad = true
		}
		if bad {
			rec.NearestStation = ""
			rec.WalkMinutes = ""
			rec.StationKana = ""
			n++
		}
	}
	if n > 0 {
		log.Printf("[Registry] sanitized %d rows with invalid station data", n)
	}
	return n
}
