package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	"github.com/angelstack/captable_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxStakeholderRepository struct {
	pool *pgxpool.Pool
}

func newPgxStakeholderRepository(pool *pgxpool.Pool) portsrepo.StakeholderRepositoryFacade {
	return &PgxStakeholderRepository{pool: pool}
}

var _ portsrepo.StakeholderRepositoryFacade = (*PgxStakeholderRepository)(nil)

func toModelStakeholder(d domain.Stakeholder) models.Stakeholder {
	return models.Stakeholder{
		StakeholderID: d.StakeholderID,
		Name:          d.Name,
		Role:          string(d.Role),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainStakeholder(m models.Stakeholder) domain.Stakeholder {
	return domain.Stakeholder{
		StakeholderID: m.StakeholderID,
		Name:          m.Name,
		Role:          domain.StakeholderRole(m.Role),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// SaveStakeholder inserts a new stakeholder.
func (r *PgxStakeholderRepository) SaveStakeholder(ctx context.Context, stakeholder domain.Stakeholder) error {
	m := toModelStakeholder(stakeholder)

	query := `
		INSERT INTO stakeholders (stakeholder_id, name, role, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		m.StakeholderID, m.Name, m.Role,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: stakeholder %s already exists", apperrors.ErrDuplicate, m.StakeholderID)
		}
		return fmt.Errorf("failed to save stakeholder %s: %w", m.StakeholderID, err)
	}
	return nil
}

// FindStakeholderByID retrieves a stakeholder by its ID.
func (r *PgxStakeholderRepository) FindStakeholderByID(ctx context.Context, stakeholderID string) (*domain.Stakeholder, error) {
	query := `
		SELECT stakeholder_id, name, role, created_at, created_by, last_updated_at, last_updated_by
		FROM stakeholders
		WHERE stakeholder_id = $1;
	`
	var m models.Stakeholder
	err := r.pool.QueryRow(ctx, query, stakeholderID).Scan(
		&m.StakeholderID, &m.Name, &m.Role,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find stakeholder by ID %s: %w", stakeholderID, err)
	}
	d := toDomainStakeholder(m)
	return &d, nil
}

// ListStakeholders retrieves a paginated list of stakeholders.
func (r *PgxStakeholderRepository) ListStakeholders(ctx context.Context, limit int, offset int) ([]domain.Stakeholder, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT stakeholder_id, name, role, created_at, created_by, last_updated_at, last_updated_by
		FROM stakeholders
		ORDER BY name
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stakeholders: %w", err)
	}
	defer rows.Close()

	stakeholders := []domain.Stakeholder{}
	for rows.Next() {
		var m models.Stakeholder
		err := rows.Scan(
			&m.StakeholderID, &m.Name, &m.Role,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stakeholder row: %w", err)
		}
		stakeholders = append(stakeholders, toDomainStakeholder(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stakeholder rows: %w", rows.Err())
	}
	return stakeholders, nil
}
