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

type PgxExitRepository struct {
	pool *pgxpool.Pool
}

func newPgxExitRepository(pool *pgxpool.Pool) portsrepo.ExitRepositoryFacade {
	return &PgxExitRepository{pool: pool}
}

var _ portsrepo.ExitRepositoryFacade = (*PgxExitRepository)(nil)

func toModelExit(d domain.ExitEvent) models.Exit {
	return models.Exit{
		ExitID:        d.ExitID,
		CapTableID:    d.CapTableID,
		Type:          string(d.Type),
		ExitDate:      d.ExitDate,
		TotalProceeds: d.TotalProceeds.Decimal(),
		Status:        string(d.Status),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainExit(m models.Exit) domain.ExitEvent {
	return domain.ExitEvent{
		ExitID:        m.ExitID,
		CapTableID:    m.CapTableID,
		Type:          domain.ExitType(m.Type),
		ExitDate:      m.ExitDate,
		TotalProceeds: domain.NewMoneyFromDecimal(m.TotalProceeds),
		Status:        domain.ExitStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func toModelDistribution(d domain.Distribution) models.Distribution {
	return models.Distribution{
		DistributionID: d.DistributionID,
		ExitID:         d.ExitID,
		StakeholderID:  d.StakeholderID,
		GrossAmount:    d.GrossAmount.Decimal(),
		TaxWithheld:    d.TaxWithheld.Decimal(),
		NetAmount:      d.NetAmount.Decimal(),
		Status:         string(d.Status),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainDistribution(m models.Distribution) domain.Distribution {
	return domain.Distribution{
		DistributionID: m.DistributionID,
		ExitID:         m.ExitID,
		StakeholderID:  m.StakeholderID,
		GrossAmount:    domain.NewMoneyFromDecimal(m.GrossAmount),
		TaxWithheld:    domain.NewMoneyFromDecimal(m.TaxWithheld),
		NetAmount:      domain.NewMoneyFromDecimal(m.NetAmount),
		Status:         domain.DistributionStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const selectExitColumns = `exit_id, captable_id, type, exit_date, total_proceeds, status,
	created_at, created_by, last_updated_at, last_updated_by`

const selectDistributionColumns = `distribution_id, exit_id, stakeholder_id, gross_amount, tax_withheld, net_amount, status,
	created_at, created_by, last_updated_at, last_updated_by`

func scanExit(row pgx.Row) (models.Exit, error) {
	var m models.Exit
	err := row.Scan(
		&m.ExitID, &m.CapTableID, &m.Type, &m.ExitDate, &m.TotalProceeds, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanDistribution(row pgx.Row) (models.Distribution, error) {
	var m models.Distribution
	err := row.Scan(
		&m.DistributionID, &m.ExitID, &m.StakeholderID, &m.GrossAmount, &m.TaxWithheld, &m.NetAmount, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveExit persists a new exit event.
func (r *PgxExitRepository) SaveExit(ctx context.Context, exit domain.ExitEvent) error {
	m := toModelExit(exit)
	query := `
		INSERT INTO exit_events (exit_id, captable_id, type, exit_date, total_proceeds, status,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		m.ExitID, m.CapTableID, m.Type, m.ExitDate, m.TotalProceeds, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: exit %s already exists", apperrors.ErrDuplicate, m.ExitID)
		}
		return fmt.Errorf("failed to save exit %s: %w", m.ExitID, err)
	}
	return nil
}

// FindExitByID retrieves a single exit event.
func (r *PgxExitRepository) FindExitByID(ctx context.Context, exitID string) (*domain.ExitEvent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectExitColumns+` FROM exit_events WHERE exit_id = $1;`, exitID)
	m, err := scanExit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find exit %s: %w", exitID, err)
	}
	exit := toDomainExit(m)
	return &exit, nil
}

// ListExitsByCapTable retrieves every exit recorded against a cap table.
func (r *PgxExitRepository) ListExitsByCapTable(ctx context.Context, capTableID string) ([]domain.ExitEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectExitColumns+`
		FROM exit_events
		WHERE captable_id = $1
		ORDER BY exit_date, exit_id;
	`, capTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exits for cap table %s: %w", capTableID, err)
	}
	defer rows.Close()

	exits := []domain.ExitEvent{}
	for rows.Next() {
		m, err := scanExit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exit row: %w", err)
		}
		exits = append(exits, toDomainExit(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating exit rows: %w", rows.Err())
	}
	return exits, nil
}

// UpdateExitStatus moves an exit to a new lifecycle status.
func (r *PgxExitRepository) UpdateExitStatus(ctx context.Context, exitID string, status domain.ExitStatus, userID string, now time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE exit_events SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE exit_id = $1;
	`, exitID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of exit %s: %w", exitID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveDistributions persists the payouts of a completed waterfall in one batch.
func (r *PgxExitRepository) SaveDistributions(ctx context.Context, distributions []domain.Distribution) error {
	if len(distributions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range distributions {
		m := toModelDistribution(d)
		batch.Queue(`
			INSERT INTO distributions (distribution_id, exit_id, stakeholder_id, gross_amount, tax_withheld, net_amount, status,
				created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
		`, m.DistributionID, m.ExitID, m.StakeholderID, m.GrossAmount, m.TaxWithheld, m.NetAmount, m.Status,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	}

	br := r.pool.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, execErr := br.Exec(); execErr != nil && batchErr == nil {
			var pgErr *pgconn.PgError
			if errors.As(execErr, &pgErr) && pgErr.Code == "23505" {
				batchErr = fmt.Errorf("%w: distribution already exists", apperrors.ErrDuplicate)
			} else {
				batchErr = fmt.Errorf("failed to save distribution: %w", execErr)
			}
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close distribution batch: %w", closeErr)
	}
	return batchErr
}

// ListDistributionsByExit retrieves the payouts materialized for an exit.
func (r *PgxExitRepository) ListDistributionsByExit(ctx context.Context, exitID string) ([]domain.Distribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectDistributionColumns+`
		FROM distributions
		WHERE exit_id = $1
		ORDER BY stakeholder_id;
	`, exitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions for exit %s: %w", exitID, err)
	}
	defer rows.Close()

	distributions := []domain.Distribution{}
	for rows.Next() {
		m, err := scanDistribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		distributions = append(distributions, toDomainDistribution(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating distribution rows: %w", rows.Err())
	}
	return distributions, nil
}

// FindDistributionByID retrieves a single distribution.
func (r *PgxExitRepository) FindDistributionByID(ctx context.Context, distributionID string) (*domain.Distribution, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectDistributionColumns+` FROM distributions WHERE distribution_id = $1;`, distributionID)
	m, err := scanDistribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find distribution %s: %w", distributionID, err)
	}
	distribution := toDomainDistribution(m)
	return &distribution, nil
}

// UpdateDistributionStatus moves a distribution along its linear progression.
func (r *PgxExitRepository) UpdateDistributionStatus(ctx context.Context, distributionID string, status domain.DistributionStatus, userID string, now time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE distributions SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE distribution_id = $1;
	`, distributionID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of distribution %s: %w", distributionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
