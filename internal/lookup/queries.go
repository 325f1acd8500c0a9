package lookup

import (
	"strings"

	"hoikumap/internal/jptext"
)

// facility type keywords tried in cascade order. 保育園 is the common
// register even for facilities officially named 保育所.
var typeKeywords = []string{"保育園", "保育所", "認定こども園"}

// QueryCascade builds the search queries for one facility, most
// specific first: the stored address hint, then city+ward qualified
// variants with each facility-type keyword, bare, and the same set
// again with the operator brand prefix stripped. Duplicates are
// dropped while preserving order, so the cascade is safe to execute
// front to back until the first hit.
func QueryCascade(name, address, city, ward string) []string {
	name = jptext.NormalizeSpace(name)
	area := jptext.NormalizeSpace(city + ward)

	var qs []string
	if addr := jptext.NormalizeSpace(address); addr != "" {
		qs = append(qs, name+" "+addr)
	}

	bases := []string{name}
	if stripped := jptext.StripBrandPrefix(name); stripped != name && stripped != "" {
		bases = append(bases, stripped)
	}
	for _, base := range bases {
		for _, kw := range typeKeywords {
			if strings.Contains(base, kw) {
				qs = append(qs, base+" "+area)
				continue
			}
			qs = append(qs, base+" "+kw+" "+area)
		}
		qs = append(qs, base+" "+area)
	}

	seen := make(map[string]bool, len(qs))
	out := qs[:0]
	for _, q := range qs {
		q = jptext.NormalizeSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// FirstHit runs the cascade until a query yields results. A denied
// call stops immediately; other failures fall through to the next
// query. The query that produced the hit is returned for the ledger.
func FirstHit[T any](queries []string, search func(string) ([]T, error)) (hits []T, query string, err error) {
	var lastErr error
	for _, q := range queries {
		res, err := search(q)
		if err != nil {
			if IsDenied(err) {
				return nil, q, err
			}
			lastErr = err
			continue
		}
		if len(res) > 0 {
			return res, q, nil
		}
		lastErr = tagErr(TagNoResults, "no results for %q", q)
	}
	if lastErr == nil {
		lastErr = tagErr(TagNoResults, "empty query cascade")
	}
	return nil, "", lastErr
}
