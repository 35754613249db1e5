// Package engine implements the capitalization and liquidity waterfall
// computations: interest accrual, SAFE/note conversion, round application
// with dilution, exit waterfalls and fee calculations. Everything in this
// package is a pure, synchronous function of its inputs; it performs no I/O,
// holds no state and never logs. Callers own persistence and concurrency.
package engine

import (
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
)

// Sentinel failures of the engine. Each wraps one of the apperrors base
// kinds so callers can branch on either the specific or the general error.
var (
	// ErrInvalidDate is returned when an accrual is requested for a date
	// before the note's issue date.
	ErrInvalidDate = fmt.Errorf("%w: as-of date precedes issue date", apperrors.ErrInvalidInput)

	// ErrInvalidConversionTerms is returned when the computed conversion
	// price is zero or negative. The engine never silently clamps.
	ErrInvalidConversionTerms = fmt.Errorf("%w: conversion price must be positive", apperrors.ErrInvalidInput)

	// ErrInstrumentNotActive is returned when a conversion is attempted on an
	// instrument that is not in ACTIVE status.
	ErrInstrumentNotActive = fmt.Errorf("%w: instrument is not active", apperrors.ErrInvalidState)

	// ErrInvalidRoundTerms is returned when a round's stated post-money
	// valuation does not equal pre-money plus the total raise.
	ErrInvalidRoundTerms = fmt.Errorf("%w: post-money valuation must equal pre-money plus total raise", apperrors.ErrInvalidInput)

	// ErrInvalidExitAmount is returned for negative exit proceeds.
	ErrInvalidExitAmount = fmt.Errorf("%w: exit amount must not be negative", apperrors.ErrInvalidInput)
)
