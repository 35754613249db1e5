package engine

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RoundConfig carries the knobs the dilution engine needs. Nothing here is
// ambient state; the caller passes the config into every ApplyRound call.
type RoundConfig struct {
	// QualifiedFinancingThreshold is the minimum total raise that triggers
	// automatic conversion of outstanding SAFEs and notes.
	QualifiedFinancingThreshold domain.Money
	// NewID mints identifiers for issued holdings. Callers normally pass
	// uuid.NewString; tests may pass a deterministic generator.
	NewID func() string
}

// NewInvestment is a fresh cash investment into the round.
type NewInvestment struct {
	StakeholderID string       `json:"stakeholderID"`
	Amount        domain.Money `json:"amount"`
}

// IssuanceSource says where an issued block of shares came from.
type IssuanceSource string

const (
	SourceInvestment     IssuanceSource = "INVESTMENT"
	SourceSafeConversion IssuanceSource = "SAFE_CONVERSION"
	SourceNoteConversion IssuanceSource = "NOTE_CONVERSION"
)

// Issuance is one block of shares issued while applying a round.
type Issuance struct {
	HoldingID     string         `json:"holdingID"`
	StakeholderID string         `json:"stakeholderID"`
	Source        IssuanceSource `json:"source"`
	// SourceID is the converted instrument's ID for conversions, empty for
	// direct investments.
	SourceID      string       `json:"sourceID,omitempty"`
	Shares        int64        `json:"shares"`
	PricePerShare domain.Money `json:"pricePerShare"`
	Amount        domain.Money `json:"amount"` // cash in, or converting principal
}

// IssuanceReport is the audit record of a round application: every issued
// block, every converted instrument and the resulting ownership percentages.
type IssuanceReport struct {
	RoundID          string                     `json:"roundID"`
	Qualified        bool                       `json:"qualified"`
	TotalRaised      domain.Money               `json:"totalRaised"`
	SharesIssued     int64                      `json:"sharesIssued"`
	Issuances        []Issuance                 `json:"issuances"`
	ConvertedSafeIDs []string                   `json:"convertedSafeIDs"`
	ConvertedNoteIDs []string                   `json:"convertedNoteIDs"`
	OwnershipAfter   map[string]decimal.Decimal `json:"ownershipAfter"` // holdingID -> percent
}

// ApplyRound applies a financing round to a snapshot: issues shares for each
// new investment at the round price, converts outstanding instruments when
// the raise qualifies, and returns the diluted successor snapshot plus the
// issuance report. Existing share counts never change; only the fully-diluted
// denominator grows. The input snapshot is not mutated.
func ApplyRound(snapshot domain.CapTableSnapshot, round domain.EquityRound, investments []NewInvestment, cfg RoundConfig, asOf time.Time) (domain.CapTableSnapshot, IssuanceReport, error) {
	if round.Status != domain.RoundPlanning && round.Status != domain.RoundOpen {
		return domain.CapTableSnapshot{}, IssuanceReport{}, fmt.Errorf(
			"%w: round %s is %s and cannot be applied", apperrors.ErrInvalidState, round.RoundID, round.Status)
	}
	if err := round.Validate(); err != nil {
		return domain.CapTableSnapshot{}, IssuanceReport{}, err
	}
	if cfg.NewID == nil {
		return domain.CapTableSnapshot{}, IssuanceReport{}, fmt.Errorf("%w: round config needs an ID generator", apperrors.ErrInvalidInput)
	}

	totalRaised := domain.ZeroMoney
	for _, inv := range investments {
		if !inv.Amount.IsPositive() {
			return domain.CapTableSnapshot{}, IssuanceReport{}, fmt.Errorf(
				"%w: investment by %s must be positive, got %s", apperrors.ErrInvalidInput, inv.StakeholderID, inv.Amount)
		}
		totalRaised = totalRaised.Add(inv.Amount)
	}

	expectedPost := round.PreMoneyValuation.Add(totalRaised)
	if !round.PostMoneyValuation.Equal(expectedPost) {
		return domain.CapTableSnapshot{}, IssuanceReport{}, fmt.Errorf(
			"%w: round %s states %s, pre-money %s plus raise %s gives %s",
			ErrInvalidRoundTerms, round.RoundID, round.PostMoneyValuation, round.PreMoneyValuation, totalRaised, expectedPost)
	}

	report := IssuanceReport{
		RoundID:     round.RoundID,
		TotalRaised: totalRaised,
	}

	next := domain.CapTableSnapshot{
		CapTableID: snapshot.CapTableID,
		Version:    snapshot.Version + 1,
		AsOf:       asOf,
		Holdings:   append([]domain.SecurityHolding(nil), snapshot.Holdings...),
	}

	terms := round.NewShareTerms
	issue := func(result Issuance, price domain.Money) {
		t := terms
		holding := domain.SecurityHolding{
			HoldingID:          result.HoldingID,
			CapTableID:         snapshot.CapTableID,
			StakeholderID:      result.StakeholderID,
			Class:              domain.ClassPreferred,
			Terms:              &t,
			Shares:             result.Shares,
			IssuePricePerShare: price,
			IssueDate:          asOf,
		}
		next.Holdings = append(next.Holdings, holding)
		report.Issuances = append(report.Issuances, result)
		report.SharesIssued += result.Shares
	}

	for _, inv := range investments {
		shares := inv.Amount.FloorQuotient(round.PricePerShare)
		issue(Issuance{
			HoldingID:     cfg.NewID(),
			StakeholderID: inv.StakeholderID,
			Source:        SourceInvestment,
			Shares:        shares,
			PricePerShare: round.PricePerShare,
			Amount:        inv.Amount,
		}, round.PricePerShare)
	}

	qualified := !totalRaised.LessThan(cfg.QualifiedFinancingThreshold)
	report.Qualified = qualified

	for _, safe := range snapshot.Safes {
		if !qualified || safe.Status != domain.SafeActive {
			next.Safes = append(next.Safes, safe)
			continue
		}
		result, err := ConvertSafe(safe, round)
		if err != nil {
			return domain.CapTableSnapshot{}, IssuanceReport{}, err
		}
		issue(Issuance{
			HoldingID:     cfg.NewID(),
			StakeholderID: safe.StakeholderID,
			Source:        SourceSafeConversion,
			SourceID:      safe.SafeID,
			Shares:        result.Shares,
			PricePerShare: result.Price,
			Amount:        result.Principal,
		}, result.Price)
		report.ConvertedSafeIDs = append(report.ConvertedSafeIDs, safe.SafeID)
	}

	for _, note := range snapshot.Notes {
		if !qualified || note.Status != domain.NoteActive {
			next.Notes = append(next.Notes, note)
			continue
		}
		result, err := ConvertNote(note, round, asOf)
		if err != nil {
			return domain.CapTableSnapshot{}, IssuanceReport{}, err
		}
		issue(Issuance{
			HoldingID:     cfg.NewID(),
			StakeholderID: note.StakeholderID,
			Source:        SourceNoteConversion,
			SourceID:      note.NoteID,
			Shares:        result.Shares,
			PricePerShare: result.Price,
			Amount:        result.Principal,
		}, result.Price)
		report.ConvertedNoteIDs = append(report.ConvertedNoteIDs, note.NoteID)
	}

	next.FullyDilutedShares = snapshot.FullyDilutedShares + report.SharesIssued
	if err := next.Validate(); err != nil {
		return domain.CapTableSnapshot{}, IssuanceReport{}, err
	}
	report.OwnershipAfter = next.OwnershipByHolding()

	return next, report, nil
}
