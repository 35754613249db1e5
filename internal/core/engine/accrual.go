package engine

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// Accrue computes the interest accrued on a convertible note from its issue
// date up to asOf. Simple interest is principal * rate * days/365.
// Annually-compounded interest compounds over each whole elapsed year and
// pro-rates the partial final year with simple interest on the compounded
// balance. Intermediate math keeps full precision; rounding happens only at
// the return boundary.
func Accrue(note domain.ConvertibleNote, asOf time.Time) (domain.Money, error) {
	if asOf.Before(note.IssueDate) {
		return domain.ZeroMoney, fmt.Errorf("%w: note %s issued %s, accrual requested for %s",
			ErrInvalidDate, note.NoteID, note.IssueDate.Format("2006-01-02"), asOf.Format("2006-01-02"))
	}

	days := int64(asOf.Sub(note.IssueDate) / (24 * time.Hour))
	if days == 0 || note.InterestRate.IsZero() {
		return domain.ZeroMoney, nil
	}

	switch note.Compounding {
	case domain.CompoundingSimple:
		fraction := decimal.NewFromInt(days).Div(daysPerYear)
		interest := note.Principal.Mul(note.InterestRate).Mul(fraction)
		return interest.Settle(), nil

	case domain.CompoundingAnnually:
		wholeYears := days / 365
		remainderDays := days % 365

		growth := decimal.NewFromInt(1).Add(note.InterestRate)
		compounded := note.Principal.Mul(growth.Pow(decimal.NewFromInt(wholeYears)))
		if remainderDays > 0 {
			fraction := decimal.NewFromInt(remainderDays).Div(daysPerYear)
			simple := decimal.NewFromInt(1).Add(note.InterestRate.Mul(fraction))
			compounded = compounded.Mul(simple)
		}
		interest := compounded.Sub(note.Principal)
		return interest.Settle(), nil

	default:
		return domain.ZeroMoney, fmt.Errorf("%w: note %s has unknown compounding policy %q",
			apperrors.ErrInvalidInput, note.NoteID, note.Compounding)
	}
}
