package domain

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ShareClassKind distinguishes common stock from preferred stock.
type ShareClassKind string

const (
	ClassCommon    ShareClassKind = "COMMON"
	ClassPreferred ShareClassKind = "PREFERRED"
)

// ShareClassTerms carries the economic rights of a preferred share class.
// Common stock has no terms (nil).
type ShareClassTerms struct {
	// PreferenceMultiple is the liquidation preference as a multiple of the
	// invested amount (1.0 = 1x).
	PreferenceMultiple decimal.Decimal `json:"preferenceMultiple"`
	// SeniorityRank orders preference payment; lower ranks are paid first and
	// ties within a rank are pari passu. Nil means the rank is unknown; the
	// waterfall treats such holdings as lowest priority.
	SeniorityRank *int `json:"seniorityRank"`
	// Participating preferred receives its preference and then shares in the
	// remaining proceeds pro-rata.
	Participating bool `json:"participating"`
	// ParticipationCapMultiple bounds a participating holder's total payout at
	// cap * invested. Nil means uncapped.
	ParticipationCapMultiple *decimal.Decimal `json:"participationCapMultiple"`
	// ConversionRatio is the number of common shares one preferred share
	// converts into, usually 1.0.
	ConversionRatio decimal.Decimal `json:"conversionRatio"`
}

// Validate checks the terms for malformed values.
func (t ShareClassTerms) Validate() error {
	if t.PreferenceMultiple.IsNegative() {
		return fmt.Errorf("%w: preference multiple must not be negative, got %s", apperrors.ErrInvalidInput, t.PreferenceMultiple)
	}
	if t.SeniorityRank != nil && *t.SeniorityRank < 0 {
		return fmt.Errorf("%w: seniority rank must not be negative, got %d", apperrors.ErrInvalidInput, *t.SeniorityRank)
	}
	if t.ParticipationCapMultiple != nil && !t.ParticipationCapMultiple.IsPositive() {
		return fmt.Errorf("%w: participation cap multiple must be positive, got %s", apperrors.ErrInvalidInput, t.ParticipationCapMultiple)
	}
	if !t.ConversionRatio.IsPositive() {
		return fmt.Errorf("%w: conversion ratio must be positive, got %s", apperrors.ErrInvalidInput, t.ConversionRatio)
	}
	return nil
}

// SecurityHolding is an issued block of shares on a cap table. Share counts
// never change after issuance; only the computed ownership percentage moves
// as later rounds dilute the pool.
type SecurityHolding struct {
	HoldingID          string           `json:"holdingID"` // Primary key (UUID)
	CapTableID         string           `json:"capTableID"`
	StakeholderID      string           `json:"stakeholderID"`
	Class              ShareClassKind   `json:"class"`
	Terms              *ShareClassTerms `json:"terms,omitempty"` // nil for common
	Shares             int64            `json:"shares"`
	IssuePricePerShare Money            `json:"issuePricePerShare"`
	IssueDate          time.Time        `json:"issueDate"`
	AuditFields
}

// Validate checks structural invariants of the holding.
func (h SecurityHolding) Validate() error {
	if h.StakeholderID == "" {
		return fmt.Errorf("%w: holding %s has no stakeholder", apperrors.ErrInvalidInput, h.HoldingID)
	}
	if h.Shares < 0 {
		return fmt.Errorf("%w: holding %s has negative share count %d", apperrors.ErrInvalidInput, h.HoldingID, h.Shares)
	}
	if h.IssuePricePerShare.IsNegative() {
		return fmt.Errorf("%w: holding %s has negative issue price %s", apperrors.ErrInvalidInput, h.HoldingID, h.IssuePricePerShare)
	}
	switch h.Class {
	case ClassCommon:
		if h.Terms != nil {
			return fmt.Errorf("%w: common holding %s must not carry share class terms", apperrors.ErrInvalidInput, h.HoldingID)
		}
	case ClassPreferred:
		if h.Terms == nil {
			return fmt.Errorf("%w: preferred holding %s is missing share class terms", apperrors.ErrInvalidInput, h.HoldingID)
		}
		if err := h.Terms.Validate(); err != nil {
			return fmt.Errorf("holding %s: %w", h.HoldingID, err)
		}
	default:
		return fmt.Errorf("%w: holding %s has unknown share class %q", apperrors.ErrInvalidInput, h.HoldingID, h.Class)
	}
	return nil
}

// InvestedAmount is the original capital paid for the holding.
func (h SecurityHolding) InvestedAmount() Money {
	return h.IssuePricePerShare.MulInt(h.Shares)
}

// AsConvertedShares is the holding's common-equivalent share count
// (shares x conversion ratio; 1:1 for common).
func (h SecurityHolding) AsConvertedShares() decimal.Decimal {
	shares := decimal.NewFromInt(h.Shares)
	if h.Class == ClassPreferred && h.Terms != nil {
		return shares.Mul(h.Terms.ConversionRatio)
	}
	return shares
}
