package snapshot

import "math"

// SumCounts adds optional counts. The result is nil only when every
// input is nil; a known zero plus an unknown stays a known zero,
// matching how the sheets mix dashes and blanks in one bracket.
func SumCounts(vals ...*int) *int {
	sum, seen := 0, false
	for _, v := range vals {
		if v == nil {
			continue
		}
		seen = true
		sum += *v
	}
	if !seen {
		return nil
	}
	return &sum
}

// Ratio computes wait pressure per estimated capacity slot, rounded to
// three decimals. nil when the wait is unknown or the capacity is
// unknown or zero.
func Ratio(wait, capacity *int) *float64 {
	if wait == nil || capacity == nil || *capacity == 0 {
		return nil
	}
	r := math.Round(float64(*wait)/float64(*capacity)*1000) / 1000
	return &r
}

// BuildAgeStats derives the capacity estimate and wait ratio from the
// three raw measures. Capacity is estimated as accepting plus already
// enrolled.
func BuildAgeStats(accept, wait, enrolled *int) *AgeStats {
	capEst := SumCounts(accept, enrolled)
	return &AgeStats{
		Accept:             accept,
		Wait:               wait,
		Enrolled:           enrolled,
		CapacityEst:        capEst,
		WaitPerCapacityEst: Ratio(wait, capEst),
	}
}
