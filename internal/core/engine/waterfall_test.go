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

func preferredHolding(id, stakeholder string, shares int64, pricePerShare string, terms domain.ShareClassTerms) domain.SecurityHolding {
	return domain.SecurityHolding{
		HoldingID:          id,
		CapTableID:         "ct_1",
		StakeholderID:      stakeholder,
		Class:              domain.ClassPreferred,
		Terms:              &terms,
		Shares:             shares,
		IssuePricePerShare: domain.MustMoney(pricePerShare),
		IssueDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func commonHolding(id, stakeholder string, shares int64) domain.SecurityHolding {
	return domain.SecurityHolding{
		HoldingID:          id,
		CapTableID:         "ct_1",
		StakeholderID:      stakeholder,
		Class:              domain.ClassCommon,
		Shares:             shares,
		IssuePricePerShare: domain.MustMoney("0.0001"),
		IssueDate:          time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func nonParticipating(rank int) domain.ShareClassTerms {
	return domain.ShareClassTerms{
		PreferenceMultiple: decimal.NewFromInt(1),
		SeniorityRank:      intPtr(rank),
		ConversionRatio:    decimal.NewFromInt(1),
	}
}

func snapshotOf(holdings ...domain.SecurityHolding) domain.CapTableSnapshot {
	var total int64
	for _, h := range holdings {
		total += h.Shares
	}
	return domain.CapTableSnapshot{
		CapTableID:         "ct_1",
		Version:            1,
		AsOf:               time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Holdings:           holdings,
		FullyDilutedShares: total,
	}
}

func payoutByHolding(res engine.WaterfallResult, holdingID string) engine.Payout {
	for _, p := range res.Payouts {
		if p.HoldingID == holdingID {
			return p
		}
	}
	return engine.Payout{}
}

// assertConservation checks TotalDistributed + Residual == proceeds exactly,
// and that TotalDistributed equals the sum of the individual payouts.
func assertConservation(t *testing.T, res engine.WaterfallResult, proceeds domain.Money) {
	t.Helper()
	sum := domain.ZeroMoney
	for _, p := range res.Payouts {
		sum = sum.Add(p.Total)
	}
	assert.True(t, sum.Equal(res.TotalDistributed), "payout sum %s != total distributed %s", sum, res.TotalDistributed)
	assert.True(t, res.TotalDistributed.Add(res.Residual).Equal(proceeds),
		"distributed %s + residual %s != proceeds %s", res.TotalDistributed, res.Residual, proceeds)
	assert.False(t, res.Residual.IsNegative())
}

func TestComputeWaterfall_PreferencesExhaustProRataWithinRank(t *testing.T) {
	// Two rank-0 non-participating 1x holders, $1,000,000 and $2,000,000
	// invested, plus a ~10% common holder. Proceeds of $2,500,000 cannot
	// cover the $3,000,000 of preferences, so rank 0 splits pro-rata by
	// preference owed and common receives nothing.
	snapshot := snapshotOf(
		preferredHolding("hld_a", "stk_a", 1000000, "1.00", nonParticipating(0)),
		preferredHolding("hld_b", "stk_b", 2000000, "1.00", nonParticipating(0)),
		commonHolding("hld_c", "stk_c", 333333),
	)
	proceeds := domain.MustMoney("2500000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	a := payoutByHolding(res, "hld_a")
	b := payoutByHolding(res, "hld_b")
	c := payoutByHolding(res, "hld_c")

	assert.True(t, a.Total.Equal(domain.MustMoney("833333.333333")), "a: %s", a.Total)
	assert.True(t, b.Total.Equal(domain.MustMoney("1666666.666667")), "b: %s", b.Total)
	assert.True(t, c.Total.IsZero(), "common gets nothing while preferences are unpaid, got %s", c.Total)
	assert.True(t, res.Residual.IsZero())
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_SeniorityOrdering(t *testing.T) {
	// Rank 0 is paid in full before rank 1 sees a cent.
	snapshot := snapshotOf(
		preferredHolding("hld_senior", "stk_a", 1000000, "1.00", nonParticipating(0)),
		preferredHolding("hld_junior", "stk_b", 1000000, "1.00", nonParticipating(1)),
		commonHolding("hld_common", "stk_c", 8000000),
	)
	proceeds := domain.MustMoney("1500000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	assert.True(t, payoutByHolding(res, "hld_senior").Total.Equal(domain.MustMoney("1000000")))
	assert.True(t, payoutByHolding(res, "hld_junior").Total.Equal(domain.MustMoney("500000")))
	assert.True(t, payoutByHolding(res, "hld_common").Total.IsZero())
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_ParticipatingPreferredWithCap(t *testing.T) {
	// Participating 1x preferred with a 2x cap: $1,000,000 invested, 10% of
	// the pool. At $12,000,000 proceeds the uncapped pro-rata share would be
	// $1,100,000 on top of the $1,000,000 preference, but the cap stops the
	// total at $2,000,000 and the excess flows to common.
	capMultiple := decimal.NewFromInt(2)
	terms := domain.ShareClassTerms{
		PreferenceMultiple:       decimal.NewFromInt(1),
		SeniorityRank:            intPtr(0),
		Participating:            true,
		ParticipationCapMultiple: &capMultiple,
		ConversionRatio:          decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(
		preferredHolding("hld_part", "stk_a", 1000000, "1.00", terms),
		commonHolding("hld_common", "stk_b", 9000000),
	)
	proceeds := domain.MustMoney("12000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	part := payoutByHolding(res, "hld_part")
	common := payoutByHolding(res, "hld_common")
	assert.True(t, part.Total.Equal(domain.MustMoney("2000000")), "capped total: %s", part.Total)
	assert.True(t, common.Total.Equal(domain.MustMoney("10000000")), "common absorbs the overflow: %s", common.Total)
	assert.True(t, res.Residual.IsZero())
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_ParticipatingPreferredUncapped(t *testing.T) {
	terms := domain.ShareClassTerms{
		PreferenceMultiple: decimal.NewFromInt(1),
		SeniorityRank:      intPtr(0),
		Participating:      true,
		ConversionRatio:    decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(
		preferredHolding("hld_part", "stk_a", 1000000, "1.00", terms),
		commonHolding("hld_common", "stk_b", 9000000),
	)
	proceeds := domain.MustMoney("11000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	// $1,000,000 preference, then 10% of the remaining $10,000,000.
	part := payoutByHolding(res, "hld_part")
	assert.True(t, part.Preference.Equal(domain.MustMoney("1000000")))
	assert.True(t, part.Participation.Equal(domain.MustMoney("1000000")))
	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("9000000")))
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_NonParticipatingElectsAsConverted(t *testing.T) {
	// 50/50 split, $1,000,000 preference vs a $5,000,000 as-converted slice
	// of $10,000,000: the holder converts and shares as common.
	snapshot := snapshotOf(
		preferredHolding("hld_pref", "stk_a", 1000000, "1.00", nonParticipating(0)),
		commonHolding("hld_common", "stk_b", 1000000),
	)
	proceeds := domain.MustMoney("10000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	pref := payoutByHolding(res, "hld_pref")
	assert.True(t, pref.ConvertedToCommon)
	assert.True(t, pref.Total.Equal(domain.MustMoney("5000000")), "as-converted: %s", pref.Total)
	assert.True(t, pref.Preference.IsZero())
	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("5000000")))
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_NonParticipatingKeepsPreferenceAtLowProceeds(t *testing.T) {
	snapshot := snapshotOf(
		preferredHolding("hld_pref", "stk_a", 1000000, "1.00", nonParticipating(0)),
		commonHolding("hld_common", "stk_b", 1000000),
	)
	proceeds := domain.MustMoney("1500000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	pref := payoutByHolding(res, "hld_pref")
	assert.False(t, pref.ConvertedToCommon)
	assert.True(t, pref.Total.Equal(domain.MustMoney("1000000")), "preference beats the $750,000 as-converted slice")
	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("500000")))
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_ResidualWhenClaimsRunOut(t *testing.T) {
	// A single capped participating holder and no common: once the cap is
	// hit nobody can absorb the rest, and the engine reports it explicitly.
	capMultiple := decimal.NewFromInt(2)
	terms := domain.ShareClassTerms{
		PreferenceMultiple:       decimal.NewFromInt(1),
		SeniorityRank:            intPtr(0),
		Participating:            true,
		ParticipationCapMultiple: &capMultiple,
		ConversionRatio:          decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(preferredHolding("hld_part", "stk_a", 1000000, "1.00", terms))
	proceeds := domain.MustMoney("5000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	assert.True(t, payoutByHolding(res, "hld_part").Total.Equal(domain.MustMoney("2000000")))
	assert.True(t, res.TotalDistributed.Equal(domain.MustMoney("2000000")))
	assert.True(t, res.Residual.Equal(domain.MustMoney("3000000")), "unclaimed proceeds are reported, never dropped")
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_UnknownRankFailsClosed(t *testing.T) {
	terms := domain.ShareClassTerms{
		PreferenceMultiple: decimal.NewFromInt(1),
		SeniorityRank:      nil, // unknown
		ConversionRatio:    decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(
		preferredHolding("hld_known", "stk_a", 1000000, "1.00", nonParticipating(0)),
		preferredHolding("hld_unknown", "stk_b", 1000000, "1.00", terms),
	)
	proceeds := domain.MustMoney("1200000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err, "an unknown rank degrades priority, it never crashes the computation")

	assert.True(t, payoutByHolding(res, "hld_known").Total.Equal(domain.MustMoney("1000000")))
	assert.True(t, payoutByHolding(res, "hld_unknown").Total.Equal(domain.MustMoney("200000")))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "hld_unknown")
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_NegativeProceedsFails(t *testing.T) {
	snapshot := snapshotOf(commonHolding("hld_common", "stk_a", 1000000))

	_, err := engine.ComputeWaterfall(snapshot, domain.MustMoney("-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidExitAmount)
}

func TestComputeWaterfall_ZeroProceeds(t *testing.T) {
	snapshot := snapshotOf(
		preferredHolding("hld_pref", "stk_a", 1000000, "1.00", nonParticipating(0)),
		commonHolding("hld_common", "stk_b", 1000000),
	)

	res, err := engine.ComputeWaterfall(snapshot, domain.ZeroMoney)
	require.NoError(t, err)
	for _, p := range res.Payouts {
		assert.True(t, p.Total.IsZero())
	}
	assert.True(t, res.TotalDistributed.IsZero())
	assert.True(t, res.Residual.IsZero())
}

func TestComputeWaterfall_EmptyCapTable(t *testing.T) {
	snapshot := domain.CapTableSnapshot{CapTableID: "ct_1", Version: 1}
	proceeds := domain.MustMoney("1000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)
	assert.Empty(t, res.Payouts)
	assert.True(t, res.Residual.Equal(proceeds))
}

func TestComputeWaterfall_SubPrecisionPreferenceNeverOverpays(t *testing.T) {
	// An invested amount with seven fractional digits settles upward under
	// banker's rounding (1.0000015 -> 1.000002). Proceeds of exactly the
	// amount owed must still cover the rank without the residual going
	// negative or the payout exceeding the proceeds.
	snapshot := snapshotOf(preferredHolding("hld_pref", "stk_a", 1, "1.0000015", nonParticipating(0)))
	proceeds := domain.MustMoney("1.0000015")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	pref := payoutByHolding(res, "hld_pref")
	assert.False(t, pref.Total.GreaterThan(proceeds), "paid %s out of %s", pref.Total, proceeds)
	assert.False(t, res.Residual.IsNegative(), "residual: %s", res.Residual)
	assert.True(t, res.TotalDistributed.Equal(proceeds))
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_SubPrecisionPreferenceSettlesWhenCovered(t *testing.T) {
	// With enough proceeds the same preference is paid at settled precision
	// and the rest flows to common, conserving the total exactly.
	snapshot := snapshotOf(
		preferredHolding("hld_pref", "stk_a", 1, "1.0000015", nonParticipating(0)),
		commonHolding("hld_common", "stk_b", 9),
	)
	proceeds := domain.MustMoney("5")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	assert.True(t, payoutByHolding(res, "hld_pref").Preference.Equal(domain.MustMoney("1.000002")))
	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("3.999998")))
	assert.True(t, res.Residual.IsZero())
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_ReservedPoolSliceIsResidual(t *testing.T) {
	// 100,000 of the 1,000,000 fully-diluted shares are an unissued option
	// pool. Its 10% slice of the proceeds belongs to nobody and must be
	// reported as residual, not spread across the issued holdings.
	snapshot := snapshotOf(commonHolding("hld_common", "stk_a", 900000))
	snapshot.FullyDilutedShares = 1000000
	proceeds := domain.MustMoney("1000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("900000")))
	assert.True(t, res.TotalDistributed.Equal(domain.MustMoney("900000")))
	assert.True(t, res.Residual.Equal(domain.MustMoney("100000")), "unissued pool slice: %s", res.Residual)
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_ReservedPoolWithParticipatingPreferred(t *testing.T) {
	// The reserve keeps its weight through the participation pass: after the
	// $1,000,000 preference, the remaining $9,000,000 splits 10/80/10 across
	// the participating preferred, common and the unissued pool.
	terms := domain.ShareClassTerms{
		PreferenceMultiple: decimal.NewFromInt(1),
		SeniorityRank:      intPtr(0),
		Participating:      true,
		ConversionRatio:    decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(
		preferredHolding("hld_part", "stk_a", 1000000, "1.00", terms),
		commonHolding("hld_common", "stk_b", 8000000),
	)
	snapshot.FullyDilutedShares = 10000000
	proceeds := domain.MustMoney("10000000")

	res, err := engine.ComputeWaterfall(snapshot, proceeds)
	require.NoError(t, err)

	part := payoutByHolding(res, "hld_part")
	assert.True(t, part.Preference.Equal(domain.MustMoney("1000000")))
	assert.True(t, part.Participation.Equal(domain.MustMoney("900000")), "participation: %s", part.Participation)
	assert.True(t, payoutByHolding(res, "hld_common").Total.Equal(domain.MustMoney("7200000")))
	assert.True(t, res.Residual.Equal(domain.MustMoney("900000")), "residual: %s", res.Residual)
	assertConservation(t, res, proceeds)
}

func TestComputeWaterfall_MonotoneInProceeds(t *testing.T) {
	// Raising proceeds must never lower any individual payout, across the
	// preference, election and participation regimes.
	capMultiple := decimal.NewFromInt(3)
	participating := domain.ShareClassTerms{
		PreferenceMultiple:       decimal.NewFromInt(1),
		SeniorityRank:            intPtr(1),
		Participating:            true,
		ParticipationCapMultiple: &capMultiple,
		ConversionRatio:          decimal.NewFromInt(1),
	}
	snapshot := snapshotOf(
		preferredHolding("hld_a", "stk_a", 1000000, "1.00", nonParticipating(0)),
		preferredHolding("hld_b", "stk_b", 500000, "2.00", participating),
		commonHolding("hld_c", "stk_c", 6000000),
	)

	prev := map[string]domain.Money{}
	for step := int64(0); step <= 20; step++ {
		proceeds := domain.NewMoneyFromInt(step * 1000000)
		res, err := engine.ComputeWaterfall(snapshot, proceeds)
		require.NoError(t, err)
		assertConservation(t, res, proceeds)
		for _, p := range res.Payouts {
			if last, ok := prev[p.HoldingID]; ok {
				assert.False(t, p.Total.LessThan(last),
					"payout for %s fell from %s to %s at proceeds %s", p.HoldingID, last, p.Total, proceeds)
			}
			prev[p.HoldingID] = p.Total
		}
	}
}
