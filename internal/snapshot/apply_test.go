package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoikumap/internal/registry"
)

func masterRecord() *registry.Record {
	return &registry.Record{
		FacilityID: "1001", Name: "日吉保育園", NameKana: "ひよしほいくえん",
		Ward: "港北区", Address: "横浜市港北区日吉2丁目",
		Lat: "35.5536", Lng: "139.6464",
		Phone: "045-000-0000", Website: "https://example.jp",
		NearestStation: "日吉駅", StationKana: "ひよし", WalkMinutes: "7",
	}
}

func TestApplyMaster_InjectsNonBlankFields(t *testing.T) {
	f := &Facility{FacilityID: "1001", Name: "日吉保育園", Ward: "港北区"}
	n := ApplyMaster(f, masterRecord())

	assert.Positive(t, n)
	assert.Equal(t, "ひよしほいくえん", f.NameKana)
	assert.Equal(t, "横浜市港北区日吉2丁目", f.Address)
	require.NotNil(t, f.Lat)
	assert.Equal(t, 35.5536, *f.Lat)
	require.NotNil(t, f.WalkMinutes)
	assert.Equal(t, 7, *f.WalkMinutes)
	assert.Equal(t, "日吉駅", f.NearestStation)
}

func TestApplyMaster_NeverBlanksPopulatedFields(t *testing.T) {
	f := &Facility{FacilityID: "1001", Name: "日吉保育園", Ward: "港北区",
		Phone: "045-111-1111", Notes: "仮設園舎"}
	rec := &registry.Record{FacilityID: "1001"}

	n := ApplyMaster(f, rec)
	assert.Zero(t, n)
	assert.Equal(t, "045-111-1111", f.Phone)
	assert.Equal(t, "仮設園舎", f.Notes)
	assert.Equal(t, "日吉保育園", f.Name)
}

func TestApplyMaster_Idempotent(t *testing.T) {
	f := &Facility{FacilityID: "1001", Name: "日吉保育園", Ward: "港北区"}
	rec := masterRecord()
	assert.Positive(t, ApplyMaster(f, rec))
	assert.Zero(t, ApplyMaster(f, rec), "second application changes nothing")
}

func TestApplyMasterAll_CountsUnmatched(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(masterRecord()))

	snap := &Snapshot{Month: "2024-04-01", Facilities: []*Facility{
		{FacilityID: "1001", Name: "日吉保育園", Ward: "港北区"},
		{FacilityID: "9999", Name: "未登録の園", Ward: "港北区"},
	}}
	changed, unmatched := ApplyMasterAll(snap, store)
	assert.Positive(t, changed)
	assert.Equal(t, 1, unmatched)
}
