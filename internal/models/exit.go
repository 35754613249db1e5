package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exit is the exit_events table row.
type Exit struct {
	ExitID        string          `db:"exit_id"`
	CapTableID    string          `db:"captable_id"`
	Type          string          `db:"type"`
	ExitDate      time.Time       `db:"exit_date"`
	TotalProceeds decimal.Decimal `db:"total_proceeds"`
	Status        string          `db:"status"`
	AuditFields
}

// Distribution is the distributions table row.
type Distribution struct {
	DistributionID string          `db:"distribution_id"`
	ExitID         string          `db:"exit_id"`
	StakeholderID  string          `db:"stakeholder_id"`
	GrossAmount    decimal.Decimal `db:"gross_amount"`
	TaxWithheld    decimal.Decimal `db:"tax_withheld"`
	NetAmount      decimal.Decimal `db:"net_amount"`
	Status         string          `db:"status"`
	AuditFields
}
