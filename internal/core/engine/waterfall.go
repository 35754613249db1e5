package engine

import (
	"fmt"
	"sort"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Payout is one holding's share of the exit proceeds, split into its
// preference and participation components.
type Payout struct {
	HoldingID     string       `json:"holdingID"`
	StakeholderID string       `json:"stakeholderID"`
	Preference    domain.Money `json:"preference"`
	Participation domain.Money `json:"participation"`
	Total         domain.Money `json:"total"`
	// ConvertedToCommon marks a non-participating preferred holder whose
	// as-converted value beat its preference, so it is paid as common.
	ConvertedToCommon bool `json:"convertedToCommon"`
}

// WaterfallResult is the full distribution of exit proceeds. The invariant
// TotalDistributed + Residual == min(proceeds, total claims) holds exactly at
// Money precision; a residual arises when proceeds exceed every claim or when
// part of the fully-diluted pool is unissued and its slice goes unclaimed.
type WaterfallResult struct {
	Payouts          []Payout     `json:"payouts"` // one per holding, snapshot order
	TotalDistributed domain.Money `json:"totalDistributed"`
	Residual         domain.Money `json:"residual"`
	// Warnings record non-fatal input oddities (e.g. an unknown seniority
	// rank treated as lowest priority) for the caller to log.
	Warnings []string `json:"warnings,omitempty"`
}

// waterfallClaim is the precomputed view of one holding the passes work from.
type waterfallClaim struct {
	holding       domain.SecurityHolding
	preferred     bool
	participating bool
	rank          int
	// prefOwed is invested * preference multiple, full precision.
	prefOwed domain.Money
	// capTotal bounds preference + participation for capped participating
	// preferred; nil means uncapped.
	capTotal *domain.Money
	// asConverted is the holding's common-equivalent share count.
	asConverted decimal.Decimal
}

// ComputeWaterfall distributes exitProceeds across the snapshot's holdings:
// liquidation preferences by ascending seniority rank (pari passu pro-rata by
// preference owed within a rank when proceeds exhaust), then participation
// for participating preferred (capped) and common pro-rata by as-converted
// ownership. Non-participating preferred take the greater of their preference
// or their as-converted value, resolved by a fixed-point election bounded by
// the holder count. Pure function; the snapshot is not mutated.
func ComputeWaterfall(snapshot domain.CapTableSnapshot, exitProceeds domain.Money) (WaterfallResult, error) {
	if exitProceeds.IsNegative() {
		return WaterfallResult{}, fmt.Errorf("%w: got %s", ErrInvalidExitAmount, exitProceeds)
	}
	if err := snapshot.Validate(); err != nil {
		return WaterfallResult{}, err
	}

	n := len(snapshot.Holdings)
	if n == 0 {
		return WaterfallResult{
			TotalDistributed: domain.ZeroMoney,
			Residual:         exitProceeds,
		}, nil
	}

	claims, warnings := buildClaims(snapshot)

	// Authorized-but-unissued shares (a reserved option pool, typically) keep
	// their fully-diluted weight in the participation pass. Their slice of the
	// pool belongs to nobody and comes back as residual.
	reserved := decimal.NewFromInt(snapshot.FullyDilutedShares - snapshot.IssuedShares())

	// Conversion election fixed point: each non-participating preferred
	// holder takes the greater of its realized payout with the preference
	// kept versus converted to common, holding everyone else's election
	// fixed, re-run until no election changes. Comparing realized payouts
	// (not ownership% x proceeds in isolation) keeps payouts monotone in
	// proceeds: a holder never elects into a smaller cheque. Bounded by the
	// holder count; a cycle is an invariant violation, not an excuse to loop
	// forever.
	var electable []int
	for i, c := range claims {
		if c.preferred && !c.participating {
			electable = append(electable, i)
		}
	}

	conv := make([]bool, n)
	var final []Payout
	var distributed domain.Money
	for iter := 0; ; iter++ {
		if iter > len(electable)+1 {
			return WaterfallResult{}, fmt.Errorf(
				"%w: conversion election did not converge within %d passes", apperrors.ErrInvariantViolation, iter)
		}
		payouts, paid := distribute(claims, conv, exitProceeds, reserved)

		changed := false
		for _, i := range electable {
			current := payouts[i].Total
			alt := make([]bool, n)
			copy(alt, conv)
			alt[i] = !conv[i]
			altPayouts, _ := distribute(claims, alt, exitProceeds, reserved)
			counterfactual := altPayouts[i].Total

			stay, converted := current, counterfactual
			if conv[i] {
				stay, converted = counterfactual, current
			}
			// Ties keep the preference: converting is only worth the paperwork
			// for a strictly larger payout.
			elect := converted.GreaterThan(stay)
			if elect != conv[i] {
				conv[i] = elect
				changed = true
			}
		}
		if !changed {
			final = payouts
			distributed = paid
			break
		}
	}

	return WaterfallResult{
		Payouts:          final,
		TotalDistributed: distributed,
		Residual:         exitProceeds.Sub(distributed),
		Warnings:         warnings,
	}, nil
}

func buildClaims(snapshot domain.CapTableSnapshot) ([]waterfallClaim, []string) {
	var warnings []string

	maxRank := 0
	for _, h := range snapshot.Holdings {
		if h.Class == domain.ClassPreferred && h.Terms != nil && h.Terms.SeniorityRank != nil && *h.Terms.SeniorityRank > maxRank {
			maxRank = *h.Terms.SeniorityRank
		}
	}

	claims := make([]waterfallClaim, len(snapshot.Holdings))
	for i, h := range snapshot.Holdings {
		c := waterfallClaim{holding: h, asConverted: h.AsConvertedShares()}
		if h.Class == domain.ClassPreferred && h.Terms != nil {
			c.preferred = true
			c.participating = h.Terms.Participating
			c.prefOwed = h.InvestedAmount().Mul(h.Terms.PreferenceMultiple)
			if h.Terms.ParticipationCapMultiple != nil {
				capped := h.InvestedAmount().Mul(*h.Terms.ParticipationCapMultiple)
				c.capTotal = &capped
			}
			if h.Terms.SeniorityRank != nil {
				c.rank = *h.Terms.SeniorityRank
			} else {
				// Fail closed: an unknown rank never jumps the queue.
				c.rank = maxRank + 1
				warnings = append(warnings,
					fmt.Sprintf("holding %s has unknown seniority rank; treated as lowest priority", h.HoldingID))
			}
		}
		claims[i] = c
	}
	return claims, warnings
}

// distribute runs one full preference-then-participation pass for a fixed
// conversion election. It returns per-holding payouts and the exact total
// paid out.
func distribute(claims []waterfallClaim, conv []bool, proceeds domain.Money, reserved decimal.Decimal) ([]Payout, domain.Money) {
	n := len(claims)
	payouts := make([]Payout, n)
	for i, c := range claims {
		payouts[i] = Payout{
			HoldingID:         c.holding.HoldingID,
			StakeholderID:     c.holding.StakeholderID,
			ConvertedToCommon: conv[i],
		}
	}

	remaining := proceeds

	// Preference passes, most senior rank first. Within a rank everyone is
	// pari passu: if proceeds run out mid-rank, what is left splits pro-rata
	// by preference owed and all lower ranks get nothing.
	byRank := map[int][]int{}
	for i, c := range claims {
		if c.preferred && !conv[i] && c.prefOwed.IsPositive() {
			byRank[c.rank] = append(byRank[c.rank], i)
		}
	}
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	for _, r := range ranks {
		if !remaining.IsPositive() {
			break
		}
		members := byRank[r]
		// Compare against settled amounts: banker's rounding can nudge a
		// sub-precision preference upward, and a rank is never paid more
		// than what remains.
		settled := make([]domain.Money, len(members))
		owedTotal := domain.ZeroMoney
		for k, i := range members {
			settled[k] = claims[i].prefOwed.Settle()
			owedTotal = owedTotal.Add(settled[k])
		}
		if remaining.Cmp(owedTotal) >= 0 {
			for k, i := range members {
				payouts[i].Preference = settled[k]
				remaining = remaining.Sub(settled[k])
			}
			continue
		}
		weights := make([]decimal.Decimal, len(members))
		for k, i := range members {
			weights[k] = claims[i].prefOwed.Decimal()
		}
		parts := splitProRata(remaining, weights)
		for k, i := range members {
			payouts[i].Preference = parts[k]
			remaining = remaining.Sub(parts[k])
		}
	}

	// Participation pass: common, converted holders and participating
	// preferred share the rest pro-rata by as-converted ownership. Capped
	// participants fill to their cap and the excess re-splits among the
	// uncapped, at most once per participant.
	if remaining.IsPositive() {
		remaining = participate(claims, conv, payouts, remaining, reserved)
	}

	for i := range payouts {
		payouts[i].Total = payouts[i].Preference.Add(payouts[i].Participation)
	}
	return payouts, proceeds.Sub(remaining)
}

func participate(claims []waterfallClaim, conv []bool, payouts []Payout, pool domain.Money, reserved decimal.Decimal) domain.Money {
	type participant struct {
		idx      int
		weight   decimal.Decimal
		headroom *domain.Money // nil = unbounded
	}
	var active []participant
	for i, c := range claims {
		if !c.asConverted.IsPositive() {
			continue
		}
		switch {
		case !c.preferred, conv[i]:
			active = append(active, participant{idx: i, weight: c.asConverted})
		case c.participating:
			p := participant{idx: i, weight: c.asConverted}
			if c.capTotal != nil {
				headroom := c.capTotal.Sub(payouts[i].Preference).Settle()
				if !headroom.IsPositive() {
					continue
				}
				p.headroom = &headroom
			}
			active = append(active, p)
		}
	}

	// The unissued reserve rides along as an extra weight in every split; its
	// slice accrues here instead of being paid and is returned with the pool.
	unclaimed := domain.ZeroMoney
	for pool.IsPositive() && len(active) > 0 {
		weights := make([]decimal.Decimal, len(active), len(active)+1)
		for k, p := range active {
			weights[k] = p.weight
		}
		if reserved.IsPositive() {
			weights = append(weights, reserved)
		}
		parts := splitProRata(pool, weights)
		if reserved.IsPositive() {
			slice := parts[len(active)]
			unclaimed = unclaimed.Add(slice)
			pool = pool.Sub(slice)
		}

		overflow := domain.ZeroMoney
		next := active[:0]
		for k, p := range active {
			amt := parts[k]
			if p.headroom != nil && amt.GreaterThan(*p.headroom) {
				overflow = overflow.Add(amt.Sub(*p.headroom))
				amt = *p.headroom
				payouts[p.idx].Participation = payouts[p.idx].Participation.Add(amt)
				pool = pool.Sub(amt)
				continue // capped out, drops from further rounds
			}
			payouts[p.idx].Participation = payouts[p.idx].Participation.Add(amt)
			pool = pool.Sub(amt)
			if p.headroom != nil {
				h := p.headroom.Sub(amt)
				p.headroom = &h
			}
			next = append(next, p)
		}
		if overflow.IsZero() {
			break
		}
		// What remains in pool is exactly the overflow; re-split it among the
		// participants that still have headroom.
		active = next
	}
	return pool.Add(unclaimed)
}

// splitProRata divides pool across weights, settling each part and assigning
// the rounding remainder to the largest weight so the parts sum to pool
// exactly. Every computed number stays traceable: part_i = pool * w_i / sum.
func splitProRata(pool domain.Money, weights []decimal.Decimal) []domain.Money {
	total := decimal.Zero
	maxIdx := 0
	for i, w := range weights {
		total = total.Add(w)
		if w.GreaterThan(weights[maxIdx]) {
			maxIdx = i
		}
	}
	out := make([]domain.Money, len(weights))
	if !total.IsPositive() {
		return out
	}
	allocated := domain.ZeroMoney
	for i, w := range weights {
		out[i] = pool.Mul(w.Div(total)).Settle()
		allocated = allocated.Add(out[i])
	}
	out[maxIdx] = out[maxIdx].Add(pool.Sub(allocated))
	return out
}
