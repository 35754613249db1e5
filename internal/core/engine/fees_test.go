package engine_test

import (
	"testing"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFeeSchedule() engine.FeeSchedule {
	return engine.FeeSchedule{
		PlatformRates: map[engine.InvestmentType]decimal.Decimal{
			engine.InvestmentDirect:    decimal.RequireFromString("0.02"),
			engine.InvestmentSyndicate: decimal.RequireFromString("0.05"),
		},
		PlatformMinimum: domain.MustMoney("100"),
		CarryRate:       decimal.RequireFromString("0.20"),
		ProcessingRate:  decimal.RequireFromString("0.029"),
		ProcessingFixed: domain.MustMoney("0.30"),
	}
}

func TestPlatformFee(t *testing.T) {
	sched := testFeeSchedule()

	tests := []struct {
		name   string
		amount string
		typ    engine.InvestmentType
		want   string
	}{
		{name: "direct rate", amount: "100000", typ: engine.InvestmentDirect, want: "2000"},
		{name: "syndicate rate", amount: "100000", typ: engine.InvestmentSyndicate, want: "5000"},
		{name: "minimum floor applies to small amounts", amount: "1000", typ: engine.InvestmentDirect, want: "100"},
		{name: "zero amount still pays the floor", amount: "0", typ: engine.InvestmentDirect, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.PlatformFee(sched, domain.MustMoney(tt.amount), tt.typ)
			require.NoError(t, err)
			assert.True(t, got.Equal(domain.MustMoney(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPlatformFee_UnknownTypeFails(t *testing.T) {
	_, err := engine.PlatformFee(testFeeSchedule(), domain.MustMoney("1000"), engine.InvestmentType("MYSTERY"))
	require.Error(t, err)
}

func TestCarryFee(t *testing.T) {
	sched := testFeeSchedule()

	tests := []struct {
		name    string
		initial string
		current string
		want    string
	}{
		// 150,000 profit at 20% carry.
		{name: "profit pays carry", initial: "100000", current: "250000", want: "30000"},
		{name: "break-even pays nothing", initial: "100000", current: "100000", want: "0"},
		{name: "loss pays nothing", initial: "100000", current: "40000", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.CarryFee(sched, domain.MustMoney(tt.initial), domain.MustMoney(tt.current))
			require.NoError(t, err)
			assert.True(t, got.Equal(domain.MustMoney(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestProcessingFee(t *testing.T) {
	got, err := engine.ProcessingFee(testFeeSchedule(), domain.MustMoney("100"))
	require.NoError(t, err)
	// 100 * 0.029 + 0.30
	assert.True(t, got.Equal(domain.MustMoney("3.20")), "got %s", got)
}

func TestFees_ComposableAndOrderAgnostic(t *testing.T) {
	sched := testFeeSchedule()
	amount := domain.MustMoney("50000")

	platform, err := engine.PlatformFee(sched, amount, engine.InvestmentDirect)
	require.NoError(t, err)
	processing, err := engine.ProcessingFee(sched, amount)
	require.NoError(t, err)
	carry, err := engine.CarryFee(sched, amount, domain.MustMoney("60000"))
	require.NoError(t, err)

	total := platform.Add(processing).Add(carry)
	totalReordered := carry.Add(platform).Add(processing)
	assert.True(t, total.Equal(totalReordered))

	net := amount.Sub(total)
	assert.True(t, net.Add(total).Equal(amount), "net + fees must reconstruct the gross amount")
}

func TestFees_NegativeAmountsFail(t *testing.T) {
	sched := testFeeSchedule()

	_, err := engine.PlatformFee(sched, domain.MustMoney("-1"), engine.InvestmentDirect)
	assert.Error(t, err)
	_, err = engine.ProcessingFee(sched, domain.MustMoney("-1"))
	assert.Error(t, err)
	_, err = engine.CarryFee(sched, domain.MustMoney("-1"), domain.MustMoney("10"))
	assert.Error(t, err)
}
