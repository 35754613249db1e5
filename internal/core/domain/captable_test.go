package domain_test

import (
	"testing"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoHolderSnapshot() domain.CapTableSnapshot {
	ratio := decimal.NewFromInt(1)
	rank := 0
	return domain.CapTableSnapshot{
		CapTableID: "ct_1",
		Version:    1,
		AsOf:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Holdings: []domain.SecurityHolding{
			{
				HoldingID:          "hld_1",
				CapTableID:         "ct_1",
				StakeholderID:      "stk_founder",
				Class:              domain.ClassCommon,
				Shares:             7500000,
				IssuePricePerShare: domain.MustMoney("0.0001"),
			},
			{
				HoldingID:     "hld_2",
				CapTableID:    "ct_1",
				StakeholderID: "stk_investor",
				Class:         domain.ClassPreferred,
				Terms: &domain.ShareClassTerms{
					PreferenceMultiple: decimal.NewFromInt(1),
					SeniorityRank:      &rank,
					ConversionRatio:    ratio,
				},
				Shares:             2500000,
				IssuePricePerShare: domain.MustMoney("1.00"),
			},
		},
		FullyDilutedShares: 10000000,
	}
}

func TestCapTableSnapshot_OwnershipPercentages(t *testing.T) {
	s := twoHolderSnapshot()

	assert.True(t, s.OwnershipPercent(s.Holdings[0]).Equal(decimal.NewFromInt(75)))
	assert.True(t, s.OwnershipPercent(s.Holdings[1]).Equal(decimal.NewFromInt(25)))

	sum := decimal.Zero
	for _, pct := range s.OwnershipByHolding() {
		sum = sum.Add(pct)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(100)))
}

func TestCapTableSnapshot_ValidateCatchesOverIssuance(t *testing.T) {
	s := twoHolderSnapshot()
	s.FullyDilutedShares = 9000000

	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)
}

func TestCapTableSnapshot_PendingInstruments(t *testing.T) {
	s := twoHolderSnapshot()
	assert.False(t, s.HasPendingInstruments())

	s.Safes = append(s.Safes, domain.SafeAgreement{
		SafeID:        "safe_1",
		StakeholderID: "stk_safe",
		Principal:     domain.MustMoney("100000"),
		Kind:          domain.SafePostMoney,
		Status:        domain.SafeActive,
	})
	assert.True(t, s.HasPendingInstruments())

	s.Safes[0].Status = domain.SafeConverted
	assert.False(t, s.HasPendingInstruments())
}

func TestSecurityHolding_InvestedAndAsConverted(t *testing.T) {
	s := twoHolderSnapshot()
	preferred := s.Holdings[1]

	assert.True(t, preferred.InvestedAmount().Equal(domain.MustMoney("2500000")))
	assert.True(t, preferred.AsConvertedShares().Equal(decimal.NewFromInt(2500000)))
	assert.True(t, s.TotalAsConvertedShares().Equal(decimal.NewFromInt(10000000)))

	// A 2:1 conversion ratio doubles the common-equivalent count.
	two := decimal.NewFromInt(2)
	preferred.Terms.ConversionRatio = two
	assert.True(t, preferred.AsConvertedShares().Equal(decimal.NewFromInt(5000000)))
	assert.True(t, s.TotalAsConvertedShares().Equal(decimal.NewFromInt(12500000)),
		"snapshot total tracks the ratio change")
}

func TestSecurityHolding_Validate(t *testing.T) {
	s := twoHolderSnapshot()

	common := s.Holdings[0]
	common.Terms = &domain.ShareClassTerms{ConversionRatio: decimal.NewFromInt(1)}
	assert.Error(t, common.Validate(), "common must not carry preferred terms")

	preferred := s.Holdings[1]
	preferred.Terms = nil
	assert.Error(t, preferred.Validate(), "preferred requires terms")

	negative := s.Holdings[0]
	negative.Shares = -1
	assert.Error(t, negative.Validate())
}
