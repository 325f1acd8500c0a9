package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoikumap/internal/lookup"
	"hoikumap/internal/registry"
)

func TestSeedStationCache(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(&registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区", Lat: "35.5536", Lng: "139.6464"}))
	require.NoError(t, store.Add(&registry.Record{
		FacilityID: "2", Name: "座標なしの園", Ward: "港北区"}))

	cache, err := lookup.LoadStationCache(filepath.Join(t.TempDir(), "stations_cache.json"))
	require.NoError(t, err)

	st := &fakeStations{stations: []lookup.Station{
		{Name: "日吉駅", Lat: 35.5532, Lng: 139.6469, Types: []string{"train_station"}},
		{Name: "日吉交番前", Lat: 35.5530, Lng: 139.6470, Types: []string{"transit_station"}},
		{Name: "綱島駅", Lat: 35.5370, Lng: 139.6340, Types: []string{"train_station"}},
	}}

	added, err := SeedStationCache(context.Background(), baseConfig(), store, st, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, added, "invalid names are not cached")

	s, ok := cache.Get("日吉駅")
	require.True(t, ok)
	assert.Equal(t, "ひよし", s.Kana)
}

func TestSeedStationCache_RespectsLimit(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(&registry.Record{
		FacilityID: "1", Name: "x", Ward: "港北区", Lat: "35.5536", Lng: "139.6464"}))

	cache, err := lookup.LoadStationCache(filepath.Join(t.TempDir(), "stations_cache.json"))
	require.NoError(t, err)

	st := &fakeStations{stations: []lookup.Station{
		{Name: "日吉駅", Lat: 35.5532, Lng: 139.6469},
		{Name: "綱島駅", Lat: 35.5370, Lng: 139.6340},
		{Name: "菊名駅", Lat: 35.5100, Lng: 139.6300},
	}}

	cfg := baseConfig()
	cfg.StationSeedLimit = 2
	_, err = SeedStationCache(context.Background(), cfg, store, st, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestSeedStationCache_DeniedStops(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(&registry.Record{
		FacilityID: "1", Name: "x", Ward: "港北区", Lat: "35.55", Lng: "139.64"}))

	cache, err := lookup.LoadStationCache(filepath.Join(t.TempDir(), "stations_cache.json"))
	require.NoError(t, err)

	st := &fakeStations{err: &lookup.TagError{Tag: lookup.TagDenied}}
	_, err = SeedStationCache(context.Background(), baseConfig(), store, st, cache, nil)
	assert.True(t, lookup.IsDenied(err))
}
