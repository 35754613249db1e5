package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapTable is the cap_tables table row. Version is the optimistic
// concurrency counter bumped on every round application.
type CapTable struct {
	CapTableID         string    `db:"captable_id"`
	Version            int64     `db:"version"`
	AsOf               time.Time `db:"as_of"`
	FullyDilutedShares int64     `db:"fully_diluted_shares"`
	AuditFields
}

// Holding is the holdings table row. Preferred share class terms live on the
// row as nullable columns; common rows leave them NULL.
type Holding struct {
	HoldingID                string           `db:"holding_id"`
	CapTableID               string           `db:"captable_id"`
	StakeholderID            string           `db:"stakeholder_id"`
	Class                    string           `db:"class"`
	Shares                   int64            `db:"shares"`
	IssuePricePerShare       decimal.Decimal  `db:"issue_price_per_share"`
	IssueDate                time.Time        `db:"issue_date"`
	PreferenceMultiple       *decimal.Decimal `db:"preference_multiple"`
	SeniorityRank            *int             `db:"seniority_rank"`
	Participating            *bool            `db:"participating"`
	ParticipationCapMultiple *decimal.Decimal `db:"participation_cap_multiple"`
	ConversionRatio          *decimal.Decimal `db:"conversion_ratio"`
	AuditFields
}
