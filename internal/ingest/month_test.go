package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthFromText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"令和6年4月入所状況", "2024-04-01"},
		{"令和元年10月", "2019-10-01"},
		{"令和７年１月", "2025-01-01"},
		{"2023年11月時点", "2023-11-01"},
		{"2024/04 入所", "2024-04-01"},
		{"2024-4", "2024-04-01"},
		{"4月", ""},
		{"概要", ""},
		{"令和6年13月", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthFromText(tt.in), "input %q", tt.in)
	}
}

func TestMonthNumberFromText(t *testing.T) {
	assert.Equal(t, 4, MonthNumberFromText("4月"))
	assert.Equal(t, 12, MonthNumberFromText("１２月分"))
	assert.Equal(t, 0, MonthNumberFromText("令和6年4月"), "a full date is not a bare month")
	assert.Equal(t, 0, MonthNumberFromText("13月"))
	assert.Equal(t, 0, MonthNumberFromText("概要"))
}

func TestFiscalYearFromText(t *testing.T) {
	assert.Equal(t, 2024, FiscalYearFromText("令和6年度受入状況"))
	assert.Equal(t, 2019, FiscalYearFromText("令和元年度"))
	assert.Equal(t, 2023, FiscalYearFromText("2023年度"))
	assert.Equal(t, 0, FiscalYearFromText("令和6年4月"))
}

func TestMonthFromFiscalYear(t *testing.T) {
	assert.Equal(t, "2024-04-01", MonthFromFiscalYear(4, 2024))
	assert.Equal(t, "2024-12-01", MonthFromFiscalYear(12, 2024))
	assert.Equal(t, "2025-01-01", MonthFromFiscalYear(1, 2024))
	assert.Equal(t, "2025-03-01", MonthFromFiscalYear(3, 2024))
}

func TestMonthFromUpdatedColumn(t *testing.T) {
	rows := []Row{
		{"施設名": "x", "更新日": "ただの文字"},
		{"施設名": "y", "更新日": "令和6年5月1日"},
	}
	assert.Equal(t, "2024-05-01", MonthFromUpdatedColumn(rows))
	assert.Equal(t, "", MonthFromUpdatedColumn([]Row{{"施設名": "x"}}))
}
