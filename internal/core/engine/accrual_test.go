package engine_test

import (
	"testing"
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNote(principal string, rate string, compounding domain.CompoundingPolicy) domain.ConvertibleNote {
	issue := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.ConvertibleNote{
		NoteID:        "note_1",
		StakeholderID: "stk_1",
		Principal:     domain.MustMoney(principal),
		InterestRate:  decimal.RequireFromString(rate),
		Compounding:   compounding,
		IssueDate:     issue,
		MaturityDate:  issue.AddDate(3, 0, 0),
		Status:        domain.NoteActive,
	}
}

func TestAccrue_SimpleInterest(t *testing.T) {
	note := testNote("100000", "0.10", domain.CompoundingSimple)

	tests := []struct {
		name string
		days int
		want string
	}{
		{name: "no time elapsed", days: 0, want: "0"},
		{name: "73 days is a fifth of a year", days: 73, want: "2000"},
		{name: "one full year", days: 365, want: "10000"},
		{name: "two full years keeps simple", days: 730, want: "20000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asOf := note.IssueDate.AddDate(0, 0, tt.days)
			got, err := engine.Accrue(note, asOf)
			require.NoError(t, err)
			assert.True(t, got.Equal(domain.MustMoney(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAccrue_CompoundedAnnually(t *testing.T) {
	note := testNote("100000", "0.10", domain.CompoundingAnnually)

	tests := []struct {
		name string
		days int
		want string
	}{
		{name: "first year is effectively simple", days: 365, want: "10000"},
		{name: "second year compounds on the first", days: 730, want: "21000"},
		// 100000 * 1.1^2 * (1 + 0.10*73/365) - 100000
		{name: "partial final year pro-rates simply", days: 803, want: "23420"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asOf := note.IssueDate.AddDate(0, 0, tt.days)
			got, err := engine.Accrue(note, asOf)
			require.NoError(t, err)
			assert.True(t, got.Equal(domain.MustMoney(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAccrue_BeforeIssueDateFails(t *testing.T) {
	note := testNote("100000", "0.10", domain.CompoundingSimple)

	_, err := engine.Accrue(note, note.IssueDate.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
}

func TestAccrue_Idempotent(t *testing.T) {
	note := testNote("250000", "0.08", domain.CompoundingAnnually)
	asOf := note.IssueDate.AddDate(0, 0, 500)

	first, err := engine.Accrue(note, asOf)
	require.NoError(t, err)
	second, err := engine.Accrue(note, asOf)
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "accrual must be a pure function of (note, asOf)")
}

func TestAccrue_ZeroRate(t *testing.T) {
	note := testNote("100000", "0", domain.CompoundingAnnually)

	got, err := engine.Accrue(note, note.IssueDate.AddDate(2, 0, 0))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
