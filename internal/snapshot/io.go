package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var monthFileRe = regexp.MustCompile(`^(\d{4}-\d{2}-01)\.json$`)

// FileName returns the snapshot file name for a month label.
func FileName(month string) string { return month + ".json" }

// Load reads one month snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// Save writes a snapshot atomically, two-space indented so the data
// files diff cleanly in version control.
func Save(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// monthIndex is the months.json document. The wrapping object is the
// contract with the site and the other pipeline stages.
type monthIndex struct {
	Months []string `json:"months"`
}

// LoadMonths reads the month index, or falls back to scanning the data
// directory when the index file is missing.
func LoadMonths(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "months.json"))
	if os.IsNotExist(err) {
		return ScanMonthFiles(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read month index: %w", err)
	}
	var idx monthIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode month index: %w", err)
	}
	return normalizeMonths(idx.Months), nil
}

// SaveMonths writes the month index sorted ascending with duplicates
// dropped.
func SaveMonths(dir string, months []string) error {
	idx := monthIndex{Months: normalizeMonths(months)}
	if idx.Months == nil {
		idx.Months = []string{}
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode month index: %w", err)
	}
	path := filepath.Join(dir, "months.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write month index: %w", err)
	}
	return os.Rename(tmp, path)
}

// ScanMonthFiles lists the month labels present as snapshot files.
func ScanMonthFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan data dir: %w", err)
	}
	var months []string
	for _, e := range entries {
		if m := monthFileRe.FindStringSubmatch(e.Name()); m != nil {
			months = append(months, m[1])
		}
	}
	return normalizeMonths(months), nil
}

func normalizeMonths(months []string) []string {
	seen := make(map[string]bool, len(months))
	out := months[:0]
	for _, m := range months {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
