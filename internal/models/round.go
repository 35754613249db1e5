package models

import (
	"github.com/shopspring/decimal"
)

// Round is the equity_rounds table row. The new share class terms attached to
// the round's preferred stock are stored inline.
type Round struct {
	RoundID                  string           `db:"round_id"`
	CapTableID               string           `db:"captable_id"`
	Type                     string           `db:"type"`
	TargetAmount             decimal.Decimal  `db:"target_amount"`
	PricePerShare            decimal.Decimal  `db:"price_per_share"`
	PreMoneyValuation        decimal.Decimal  `db:"pre_money_valuation"`
	PostMoneyValuation       decimal.Decimal  `db:"post_money_valuation"`
	PreferenceMultiple       decimal.Decimal  `db:"preference_multiple"`
	SeniorityRank            *int             `db:"seniority_rank"`
	Participating            bool             `db:"participating"`
	ParticipationCapMultiple *decimal.Decimal `db:"participation_cap_multiple"`
	ConversionRatio          decimal.Decimal  `db:"conversion_ratio"`
	Status                   string           `db:"status"`
	AuditFields
}
