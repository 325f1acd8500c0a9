package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacilityIDKey_ExactLabel(t *testing.T) {
	rows := []Row{{"施設番号": "1234", "施設名": "x"}}
	key, err := FacilityIDKey(rows)
	require.NoError(t, err)
	assert.Equal(t, "施設番号", key)
}

func TestFacilityIDKey_SubstringLabel(t *testing.T) {
	rows := []Row{{"施設・事業所　番号": "1234", "名称": "x"}}
	key, err := FacilityIDKey(rows)
	require.NoError(t, err)
	assert.Equal(t, "施設・事業所　番号", key)
}

func TestFacilityIDKey_ContentProbe(t *testing.T) {
	var rows []Row
	for i := 0; i < 30; i++ {
		rows = append(rows, Row{
			"謎の列": fmt.Sprintf("%04d", 1000+i),
			"名称":  "x",
		})
	}
	key, err := FacilityIDKey(rows)
	require.NoError(t, err)
	assert.Equal(t, "謎の列", key)
}

func TestFacilityIDKey_ProbeNeedsEnoughHits(t *testing.T) {
	// plenty of digit cells by ratio but fewer than the hit floor
	rows := []Row{
		{"列": "1000", "名称": "x"},
		{"列": "1001", "名称": "y"},
	}
	_, err := FacilityIDKey(rows)
	assert.Error(t, err)
}

func TestFacilityIDKey_NoColumn(t *testing.T) {
	rows := []Row{{"名称": "x", "住所": "y"}}
	_, err := FacilityIDKey(rows)
	assert.Error(t, err)
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "施設名", NameKey([]Row{{"施設名": "x", "区": "y"}}))
	assert.Equal(t, "事業所の名称", NameKey([]Row{{"事業所の名称": "x", "区": "y"}}))
	assert.Equal(t, "", NameKey([]Row{{"住所": "x"}}))
}

func TestWardKey(t *testing.T) {
	assert.Equal(t, "区", WardKey([]Row{{"区": "港北区", "施設名": "x"}}))
	assert.Equal(t, "行政区", WardKey([]Row{{"行政区": "港北区"}}))
	assert.Equal(t, "所在区", WardKey([]Row{{"所在区": "港北区"}}))
	assert.Equal(t, "", WardKey([]Row{{"住所": "x"}}))
}

func TestAgeKeys(t *testing.T) {
	rows := []Row{{"0歳": "1", "1歳": "2", "2歳": "3", "3〜5歳": "4", "施設名": "x"}}
	got := AgeKeys(rows)
	assert.Equal(t, "0歳", got[0])
	assert.Equal(t, "1歳", got[1])
	assert.Equal(t, "2歳", got[2])
	assert.Equal(t, "3〜5歳", got[3])
	assert.Equal(t, "3〜5歳", got[4])
	assert.Equal(t, "3〜5歳", got[5])
}

func TestAgeKeys_FullWidth(t *testing.T) {
	got := AgeKeys([]Row{{"０歳": "1", "１歳": "2"}})
	assert.Equal(t, "０歳", got[0])
	assert.Equal(t, "１歳", got[1])
}

func TestParseCount(t *testing.T) {
	iptr := func(n int) *int { return &n }
	tests := []struct {
		in   string
		want *int
	}{
		{"3", iptr(3)},
		{"１２", iptr(12)},
		{"1,234", iptr(1234)},
		{"-", iptr(0)},
		{"－", iptr(0)},
		{"―", iptr(0)},
		{"", nil},
		{"  ", nil},
		{"受付中", nil},
	}
	for _, tt := range tests {
		got := ParseCount(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
		} else {
			require.NotNil(t, got, "input %q", tt.in)
			assert.Equal(t, *tt.want, *got, "input %q", tt.in)
		}
	}
}
