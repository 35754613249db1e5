package models

// Stakeholder is the stakeholders table row.
type Stakeholder struct {
	StakeholderID string `db:"stakeholder_id"`
	Name          string `db:"name"`
	Role          string `db:"role"`
	AuditFields
}
