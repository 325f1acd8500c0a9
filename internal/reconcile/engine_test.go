package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoikumap/internal/lookup"
	"hoikumap/internal/registry"
)

type fakeFinder struct {
	details *lookup.PlaceDetails
	err     error
	calls   int
}

func (f *fakeFinder) Name() string { return "fake" }

func (f *fakeFinder) Find(ctx context.Context, name, address string) (*lookup.PlaceDetails, string, error) {
	f.calls++
	return f.details, "query:" + name, f.err
}

type fakeStations struct {
	stations []lookup.Station
	err      error
	calls    int
}

func (f *fakeStations) Provider() string { return "fake-nearby" }

func (f *fakeStations) Nearby(ctx context.Context, lat, lng float64, radiusM int) ([]lookup.Station, error) {
	f.calls++
	return f.stations, f.err
}

type fakeWalker struct {
	minutes int
	err     error
}

func (f *fakeWalker) Walk(ctx context.Context, a, b, c, d float64) (int, error) {
	return f.minutes, f.err
}

func hiyoshiDetails() *lookup.PlaceDetails {
	return &lookup.PlaceDetails{
		Name:    "日吉保育園",
		Address: "神奈川県横浜市港北区日吉2丁目1-1",
		Lat:     35.5536,
		Lng:     139.6464,
		Phone:   "045-000-0000",
		Website: "https://example.jp",
		MapURL:  "https://maps.google.com/?cid=1",
	}
}

func hiyoshiStation() lookup.Station {
	return lookup.Station{Name: "日吉駅", Lat: 35.5532, Lng: 139.6469, Types: []string{"train_station"}}
}

func newEngine(t *testing.T, store *registry.Store, finder FacilityFinder, st StationFinder, w WalkEstimator) *Engine {
	t.Helper()
	dir := t.TempDir()
	cache, err := lookup.LoadStationCache(filepath.Join(dir, "stations_cache.json"))
	require.NoError(t, err)
	return &Engine{
		Cfg:          baseConfig(),
		Store:        store,
		Finder:       finder,
		Stations:     st,
		Walker:       w,
		Cache:        cache,
		RunID:        "test-run",
		RegistryPath: filepath.Join(dir, "master_facilities.csv"),
		MissPath:     filepath.Join(dir, "misses.csv"),
	}
}

func blankRow(id, name string) *registry.Record {
	return &registry.Record{FacilityID: id, Name: name, Ward: "港北区"}
}

func TestRun_FillsBlankRow(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "日吉保育園")))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 7})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Empty(t, sum.Misses)

	rec := store.Get("1")
	assert.Equal(t, "神奈川県横浜市港北区日吉2丁目1-1", rec.Address)
	assert.Equal(t, "045-000-0000", rec.Phone)
	assert.Equal(t, "日吉駅", rec.NearestStation)
	assert.Equal(t, "7", rec.WalkMinutes)
	assert.Equal(t, "ひよし", rec.StationKana)
	assert.NotEmpty(t, rec.Lat)

	// both output files were written
	_, err = os.Stat(e.RegistryPath)
	assert.NoError(t, err)
	_, err = os.Stat(e.MissPath)
	assert.NoError(t, err)
}

func TestRun_DeniedAbortsButPersists(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "一つ目")))
	require.NoError(t, store.Add(blankRow("2", "二つ目")))

	finder := &fakeFinder{err: &lookup.TagError{Tag: lookup.TagDenied}}
	e := newEngine(t, store, finder, &fakeStations{}, &fakeWalker{})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.Aborted)
	assert.Equal(t, 1, finder.calls, "no lookups after a denial")
	require.Len(t, sum.Misses, 1)

	_, err = os.Stat(e.RegistryPath)
	assert.NoError(t, err, "finished work is persisted on abort")
}

func TestRun_OutOfScopeAddressSkipsRow(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "川崎の保育園")))

	d := hiyoshiDetails()
	d.Address = "神奈川県川崎市中原区1-1"
	e := newEngine(t, store, &fakeFinder{details: d},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Misses, 1)
	assert.Equal(t, ReasonAddressOutOfScope, sum.Misses[0].Reason)

	rec := store.Get("1")
	assert.Equal(t, "", rec.Address, "nothing applied from an out-of-scope hit")
	assert.Equal(t, "", rec.NearestStation, "station pass skipped for a tainted row")
}

func TestRun_FacilityNotFound(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "謎の保育園")))

	finder := &fakeFinder{err: &lookup.TagError{Tag: lookup.TagNoResults}}
	e := newEngine(t, store, finder, &fakeStations{}, &fakeWalker{})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.Aborted)
	require.Len(t, sum.Misses, 2)
	assert.Equal(t, ReasonFacilityNotFound, sum.Misses[0].Reason)
	assert.Equal(t, ReasonNoLatLng, sum.Misses[1].Reason, "station pass still reports the missing coordinates")
}

func TestRun_MaxUpdatesCap(t *testing.T) {
	store := registry.NewStore()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, store.Add(blankRow(id, "保育園"+id)))
	}

	finder := &fakeFinder{details: hiyoshiDetails()}
	e := newEngine(t, store, finder, &fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})
	e.Cfg.MaxUpdates = 2

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Updated)
	assert.Equal(t, "", store.Get("3").Address, "rows past the cap stay untouched")
}

func TestRun_PopulatedStationKeptWithoutOverwrite(t *testing.T) {
	store := registry.NewStore()
	rec := &registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区",
		Address: "横浜市港北区日吉2丁目", Lat: "35.5536", Lng: "139.6464",
		Phone: "045-999-9999", Website: "https://old.example.jp", MapURL: "https://maps.example.jp",
		NearestStation: "綱島駅", WalkMinutes: "12", StationKana: "つなしま",
	}
	require.NoError(t, store.Add(rec))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "綱島駅", rec.NearestStation)
	assert.Equal(t, "12", rec.WalkMinutes)
	assert.Equal(t, "045-999-9999", rec.Phone, "populated phone kept without the overwrite toggle")
}

func TestRun_OverwriteStationReplacesCouple(t *testing.T) {
	store := registry.NewStore()
	rec := &registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区",
		Address: "横浜市港北区日吉2丁目", Lat: "35.5536", Lng: "139.6464",
		Phone: "045-999-9999", Website: "https://w", MapURL: "https://m",
		NearestStation: "綱島駅", WalkMinutes: "12", StationKana: "つなしま",
	}
	require.NoError(t, store.Add(rec))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})
	e.Cfg.OverwriteStation = true

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "日吉駅", rec.NearestStation)
	assert.Equal(t, "5", rec.WalkMinutes)
	assert.Equal(t, "ひよし", rec.StationKana)
}

func TestRun_FillsBlankWalkForKeptStation(t *testing.T) {
	store := registry.NewStore()
	rec := &registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区",
		Address: "横浜市港北区日吉2丁目", Lat: "35.5536", Lng: "139.6464",
		Phone: "p", Website: "w", MapURL: "m",
		NearestStation: "日吉駅",
	}
	require.NoError(t, store.Add(rec))

	st := &fakeStations{stations: []lookup.Station{hiyoshiStation()}}
	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()}, st, &fakeWalker{minutes: 7})
	require.NoError(t, e.Cache.Upsert(lookup.CachedStation{Name: "日吉駅", Kana: "ひよし", Lat: 35.5532, Lng: 139.6469}))

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, "日吉駅", rec.NearestStation, "the kept station survives")
	assert.Equal(t, "7", rec.WalkMinutes)
	assert.Equal(t, "ひよし", rec.StationKana)
	assert.Equal(t, 0, st.calls, "a cached station needs no lookup")
}

func TestRun_FillsBlankWalkWithoutCacheEntry(t *testing.T) {
	store := registry.NewStore()
	rec := &registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区",
		Address: "横浜市港北区日吉2丁目", Lat: "35.5536", Lng: "139.6464",
		Phone: "p", Website: "w", MapURL: "m",
		NearestStation: "日吉駅",
	}
	require.NoError(t, store.Add(rec))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 7})

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "日吉駅", rec.NearestStation)
	assert.Equal(t, "7", rec.WalkMinutes, "a station without a walk time is repaired, not skipped forever")
}

func TestRun_EmptyAddressFailsStrictCheck(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "日吉保育園")))

	d := hiyoshiDetails()
	d.Address = ""
	e := newEngine(t, store, &fakeFinder{details: d},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Misses, 1)
	assert.Equal(t, ReasonAddressOutOfScope, sum.Misses[0].Reason)

	rec := store.Get("1")
	assert.Equal(t, "", rec.Lat, "geometry from an unverifiable hit is not written")
	assert.Equal(t, "", rec.NearestStation)
}

func TestRun_SecondPassChangesNothing(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "日吉保育園")))
	require.NoError(t, store.Add(blankRow("2", "綱島保育園")))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 7})

	first, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Updated)

	second, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated, "a repaired registry reconciles to itself")
	assert.Equal(t, 0, second.Cells)
	assert.Equal(t, 0, second.Sanitized)
}

func TestRun_WardFilterSkipsOtherWards(t *testing.T) {
	store := registry.NewStore()
	require.NoError(t, store.Add(blankRow("1", "日吉保育園")))
	other := blankRow("2", "鶴見の保育園")
	other.Ward = "鶴見区"
	require.NoError(t, store.Add(other))

	finder := &fakeFinder{details: hiyoshiDetails()}
	e := newEngine(t, store, finder, &fakeStations{stations: []lookup.Station{hiyoshiStation()}}, &fakeWalker{minutes: 5})
	e.Cfg.WardFilter = "港北区"

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Scanned)
	assert.Equal(t, "", store.Get("2").Address)
}

func TestRun_StationCacheFallback(t *testing.T) {
	store := registry.NewStore()
	rec := &registry.Record{
		FacilityID: "1", Name: "日吉保育園", Ward: "港北区",
		Address: "横浜市港北区日吉2丁目", Lat: "35.5536", Lng: "139.6464",
		Phone: "p", Website: "w", MapURL: "m",
	}
	require.NoError(t, store.Add(rec))

	e := newEngine(t, store, &fakeFinder{details: hiyoshiDetails()},
		&fakeStations{}, &fakeWalker{minutes: 6})
	require.NoError(t, e.Cache.Upsert(lookup.CachedStation{Name: "日吉駅", Kana: "ひよし", Lat: 35.5532, Lng: 139.6469}))

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.Misses)
	assert.Equal(t, "日吉駅", rec.NearestStation)
	assert.Equal(t, "6", rec.WalkMinutes)
}

func TestWriteMisses_ColumnsAndHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "misses.csv")
	require.NoError(t, WriteMisses(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "facility_id,name,ward,reason,query", strings.TrimSpace(string(data)))

	require.NoError(t, WriteMisses(path, []Miss{{FacilityID: "1", Name: "x", Ward: "港北区", Reason: ReasonWalkFailed, Query: "q"}}))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,x,港北区,walk_failed,q")
}
