package jptext

import (
	"regexp"
	"strings"
)

// nonStationWords mark a places result that is definitely not a train
// station even when it sits near one.
var nonStationWords = []string{
	"入口", "交番", "バス", "停留所", "公園", "小学校", "中学校", "高校",
	"病院", "郵便局", "市役所", "区役所", "図書館", "消防", "警察",
	"マンション", "ハイツ", "コーポ",
}

// exitSuffixes are station sub-features a nearby search sometimes
// returns instead of the station itself.
var exitSuffixes = []string{
	"東口", "西口", "南口", "北口", "改札", "出口", "駅前",
}

var blockLotRe = regexp.MustCompile(`\d+丁目|\d+番地?|\d+号`)

// StationBase strips annotations and the 駅 suffix, returning the bare
// station name used as a cache key.
func StationBase(name string) string {
	n := StripParens(NormalizeSpace(name))
	n = strings.TrimSuffix(n, "駅")
	return strings.TrimSpace(n)
}

// NormalizeStationName canonicalizes a candidate station name: the 駅
// suffix is appended when the source returned the bare name, and
// anything trailing an interior 駅 is cut.
func NormalizeStationName(name string) string {
	n := StripParens(NormalizeSpace(name))
	if i := strings.Index(n, "駅"); i >= 0 {
		return n[:i+len("駅")]
	}
	if n == "" {
		return ""
	}
	return n + "駅"
}

// LooksLikeStation reports whether a value is acceptable as a nearest
// station: ends with 駅, not an exit/gate, no disallowed nouns, no
// block-lot address fragments. Invalid values are treated as absent by
// every caller.
func LooksLikeStation(name string) bool {
	n := NormalizeSpace(name)
	if n == "" || !strings.HasSuffix(n, "駅") {
		return false
	}
	base := strings.TrimSuffix(n, "駅")
	if base == "" {
		return false
	}
	for _, suf := range exitSuffixes {
		if strings.HasSuffix(base, suf) || strings.HasSuffix(n, suf) {
			return false
		}
	}
	for _, w := range nonStationWords {
		if strings.Contains(n, w) {
			return false
		}
	}
	return !blockLotRe.MatchString(n)
}

// AddressInScope checks that a formatted address belongs to the target
// city and, when a ward filter is active, to that ward.
func AddressInScope(addr, city, ward string) bool {
	a := NormalizeSpace(addr)
	if city != "" && !strings.Contains(a, city) {
		return false
	}
	if ward != "" && !strings.Contains(a, ward) {
		return false
	}
	return true
}
