package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Safe is the safes table row.
type Safe struct {
	SafeID          string           `db:"safe_id"`
	CapTableID      string           `db:"captable_id"`
	StakeholderID   string           `db:"stakeholder_id"`
	Principal       decimal.Decimal  `db:"principal"`
	Kind            string           `db:"kind"`
	ValuationCap    *decimal.Decimal `db:"valuation_cap"`
	DiscountPercent *decimal.Decimal `db:"discount_percent"`
	ProRataRights   bool             `db:"pro_rata_rights"`
	Status          string           `db:"status"`
	IssueDate       time.Time        `db:"issue_date"`
	AuditFields
}

// Note is the convertible_notes table row.
type Note struct {
	NoteID          string           `db:"note_id"`
	CapTableID      string           `db:"captable_id"`
	StakeholderID   string           `db:"stakeholder_id"`
	Principal       decimal.Decimal  `db:"principal"`
	InterestRate    decimal.Decimal  `db:"interest_rate"`
	Compounding     string           `db:"compounding"`
	IssueDate       time.Time        `db:"issue_date"`
	MaturityDate    time.Time        `db:"maturity_date"`
	ValuationCap    *decimal.Decimal `db:"valuation_cap"`
	DiscountPercent *decimal.Decimal `db:"discount_percent"`
	Status          string           `db:"status"`
	AuditFields
}
