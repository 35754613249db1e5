package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	"github.com/angelstack/captable_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCapTableRepository struct {
	pool *pgxpool.Pool
}

func newPgxCapTableRepository(pool *pgxpool.Pool) portsrepo.CapTableRepositoryFacade {
	return &PgxCapTableRepository{pool: pool}
}

var _ portsrepo.CapTableRepositoryFacade = (*PgxCapTableRepository)(nil)

func toModelHolding(d domain.SecurityHolding) models.Holding {
	m := models.Holding{
		HoldingID:          d.HoldingID,
		CapTableID:         d.CapTableID,
		StakeholderID:      d.StakeholderID,
		Class:              string(d.Class),
		Shares:             d.Shares,
		IssuePricePerShare: d.IssuePricePerShare.Decimal(),
		IssueDate:          d.IssueDate,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
	if d.Terms != nil {
		pref := d.Terms.PreferenceMultiple
		participating := d.Terms.Participating
		ratio := d.Terms.ConversionRatio
		m.PreferenceMultiple = &pref
		m.SeniorityRank = d.Terms.SeniorityRank
		m.Participating = &participating
		m.ParticipationCapMultiple = d.Terms.ParticipationCapMultiple
		m.ConversionRatio = &ratio
	}
	return m
}

func toDomainHolding(m models.Holding) domain.SecurityHolding {
	d := domain.SecurityHolding{
		HoldingID:          m.HoldingID,
		CapTableID:         m.CapTableID,
		StakeholderID:      m.StakeholderID,
		Class:              domain.ShareClassKind(m.Class),
		Shares:             m.Shares,
		IssuePricePerShare: domain.NewMoneyFromDecimal(m.IssuePricePerShare),
		IssueDate:          m.IssueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
	if m.PreferenceMultiple != nil && m.ConversionRatio != nil {
		terms := domain.ShareClassTerms{
			PreferenceMultiple:       *m.PreferenceMultiple,
			SeniorityRank:            m.SeniorityRank,
			ParticipationCapMultiple: m.ParticipationCapMultiple,
			ConversionRatio:          *m.ConversionRatio,
		}
		if m.Participating != nil {
			terms.Participating = *m.Participating
		}
		d.Terms = &terms
	}
	return d
}

// CreateCapTable inserts a new cap table at version 1.
func (r *PgxCapTableRepository) CreateCapTable(ctx context.Context, snapshot domain.CapTableSnapshot) error {
	query := `
		INSERT INTO cap_tables (captable_id, version, as_of, fully_diluted_shares, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	now := snapshot.AsOf
	_, err := r.pool.Exec(ctx, query,
		snapshot.CapTableID, snapshot.Version, snapshot.AsOf, snapshot.FullyDilutedShares,
		now, "", now, "",
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: cap table %s already exists", apperrors.ErrDuplicate, snapshot.CapTableID)
		}
		return fmt.Errorf("failed to create cap table %s: %w", snapshot.CapTableID, err)
	}
	return nil
}

// SaveHolding inserts one issued block of shares.
func (r *PgxCapTableRepository) SaveHolding(ctx context.Context, holding domain.SecurityHolding) error {
	m := toModelHolding(holding)
	_, err := r.pool.Exec(ctx, insertHoldingQuery,
		m.HoldingID, m.CapTableID, m.StakeholderID, m.Class, m.Shares,
		m.IssuePricePerShare, m.IssueDate,
		m.PreferenceMultiple, m.SeniorityRank, m.Participating, m.ParticipationCapMultiple, m.ConversionRatio,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: holding %s already exists", apperrors.ErrDuplicate, m.HoldingID)
		}
		return fmt.Errorf("failed to save holding %s: %w", m.HoldingID, err)
	}
	return nil
}

const insertHoldingQuery = `
	INSERT INTO holdings (holding_id, captable_id, stakeholder_id, class, shares, issue_price_per_share, issue_date,
		preference_multiple, seniority_rank, participating, participation_cap_multiple, conversion_ratio,
		created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
`

const selectHoldingColumns = `holding_id, captable_id, stakeholder_id, class, shares, issue_price_per_share, issue_date,
	preference_multiple, seniority_rank, participating, participation_cap_multiple, conversion_ratio,
	created_at, created_by, last_updated_at, last_updated_by`

// FindSnapshot assembles the current snapshot: the cap table row, its
// holdings and the outstanding (ACTIVE) instruments.
func (r *PgxCapTableRepository) FindSnapshot(ctx context.Context, capTableID string) (*domain.CapTableSnapshot, error) {
	var ct models.CapTable
	err := r.pool.QueryRow(ctx, `
		SELECT captable_id, version, as_of, fully_diluted_shares
		FROM cap_tables
		WHERE captable_id = $1;
	`, capTableID).Scan(&ct.CapTableID, &ct.Version, &ct.AsOf, &ct.FullyDilutedShares)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cap table %s: %w", capTableID, err)
	}

	holdings, err := r.listHoldings(ctx, capTableID)
	if err != nil {
		return nil, err
	}
	safes, err := listSafes(ctx, r.pool, capTableID, true)
	if err != nil {
		return nil, err
	}
	notes, err := listNotes(ctx, r.pool, capTableID, true)
	if err != nil {
		return nil, err
	}

	return &domain.CapTableSnapshot{
		CapTableID:         ct.CapTableID,
		Version:            ct.Version,
		AsOf:               ct.AsOf,
		Holdings:           holdings,
		Safes:              safes,
		Notes:              notes,
		FullyDilutedShares: ct.FullyDilutedShares,
	}, nil
}

func (r *PgxCapTableRepository) listHoldings(ctx context.Context, capTableID string) ([]domain.SecurityHolding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectHoldingColumns+`
		FROM holdings
		WHERE captable_id = $1
		ORDER BY issue_date, holding_id;
	`, capTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for cap table %s: %w", capTableID, err)
	}
	defer rows.Close()

	holdings := []domain.SecurityHolding{}
	for rows.Next() {
		var m models.Holding
		err := rows.Scan(
			&m.HoldingID, &m.CapTableID, &m.StakeholderID, &m.Class, &m.Shares,
			&m.IssuePricePerShare, &m.IssueDate,
			&m.PreferenceMultiple, &m.SeniorityRank, &m.Participating, &m.ParticipationCapMultiple, &m.ConversionRatio,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		holdings = append(holdings, toDomainHolding(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", rows.Err())
	}
	return holdings, nil
}

// ApplySnapshot persists a successor snapshot atomically. The version bump is
// conditioned on the stored version still matching expectedVersion; any
// concurrent application loses with ErrStaleSnapshot.
func (r *PgxCapTableRepository) ApplySnapshot(ctx context.Context, next domain.CapTableSnapshot, expectedVersion int64, changes portsrepo.ApplySnapshotChanges, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	cmdTag, err := tx.Exec(ctx, `
		UPDATE cap_tables
		SET version = $2, as_of = $3, fully_diluted_shares = $4, last_updated_at = $5, last_updated_by = $6
		WHERE captable_id = $1 AND version = $7;
	`, next.CapTableID, next.Version, next.AsOf, next.FullyDilutedShares, now, userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to bump cap table version for %s: %w", next.CapTableID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the cap table is gone or someone applied a round first.
		var current int64
		findErr := r.pool.QueryRow(ctx, `SELECT version FROM cap_tables WHERE captable_id = $1;`, next.CapTableID).Scan(&current)
		if errors.Is(findErr, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if findErr != nil {
			return fmt.Errorf("failed to check cap table version for %s: %w", next.CapTableID, findErr)
		}
		return fmt.Errorf("%w: cap table %s is at version %d, expected %d", apperrors.ErrStaleSnapshot, next.CapTableID, current, expectedVersion)
	}

	newIDs := make(map[string]bool, len(changes.NewHoldingIDs))
	for _, id := range changes.NewHoldingIDs {
		newIDs[id] = true
	}

	batch := &pgx.Batch{}
	for _, holding := range next.Holdings {
		if !newIDs[holding.HoldingID] {
			continue
		}
		h := holding
		h.CreatedAt = now
		h.CreatedBy = userID
		h.LastUpdatedAt = now
		h.LastUpdatedBy = userID
		m := toModelHolding(h)
		batch.Queue(insertHoldingQuery,
			m.HoldingID, m.CapTableID, m.StakeholderID, m.Class, m.Shares,
			m.IssuePricePerShare, m.IssueDate,
			m.PreferenceMultiple, m.SeniorityRank, m.Participating, m.ParticipationCapMultiple, m.ConversionRatio,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	for _, safeID := range changes.ConvertedSafeIDs {
		batch.Queue(`
			UPDATE safes SET status = $2, last_updated_at = $3, last_updated_by = $4
			WHERE safe_id = $1 AND status = $5;
		`, safeID, string(domain.SafeConverted), now, userID, string(domain.SafeActive))
	}
	for _, noteID := range changes.ConvertedNoteIDs {
		batch.Queue(`
			UPDATE convertible_notes SET status = $2, last_updated_at = $3, last_updated_by = $4
			WHERE note_id = $1 AND status = $5;
		`, noteID, string(domain.NoteConverted), now, userID, string(domain.NoteActive))
	}

	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		var batchErr error
		for i := 0; i < batch.Len(); i++ {
			if _, execErr := br.Exec(); execErr != nil && batchErr == nil {
				batchErr = fmt.Errorf("failed to persist snapshot change: %w", execErr)
			}
		}
		if closeErr := br.Close(); closeErr != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to close snapshot batch: %w", closeErr)
		}
		if batchErr != nil {
			return batchErr
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot for cap table %s: %w", next.CapTableID, err)
	}
	return nil
}
