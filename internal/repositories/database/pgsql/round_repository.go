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

type PgxRoundRepository struct {
	pool *pgxpool.Pool
}

func newPgxRoundRepository(pool *pgxpool.Pool) portsrepo.RoundRepositoryFacade {
	return &PgxRoundRepository{pool: pool}
}

var _ portsrepo.RoundRepositoryFacade = (*PgxRoundRepository)(nil)

func toModelRound(d domain.EquityRound) models.Round {
	return models.Round{
		RoundID:                  d.RoundID,
		CapTableID:               d.CapTableID,
		Type:                     string(d.Type),
		TargetAmount:             d.TargetAmount.Decimal(),
		PricePerShare:            d.PricePerShare.Decimal(),
		PreMoneyValuation:        d.PreMoneyValuation.Decimal(),
		PostMoneyValuation:       d.PostMoneyValuation.Decimal(),
		PreferenceMultiple:       d.NewShareTerms.PreferenceMultiple,
		SeniorityRank:            d.NewShareTerms.SeniorityRank,
		Participating:            d.NewShareTerms.Participating,
		ParticipationCapMultiple: d.NewShareTerms.ParticipationCapMultiple,
		ConversionRatio:          d.NewShareTerms.ConversionRatio,
		Status:                   string(d.Status),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainRound(m models.Round) domain.EquityRound {
	return domain.EquityRound{
		RoundID:            m.RoundID,
		CapTableID:         m.CapTableID,
		Type:               domain.RoundType(m.Type),
		TargetAmount:       domain.NewMoneyFromDecimal(m.TargetAmount),
		PricePerShare:      domain.NewMoneyFromDecimal(m.PricePerShare),
		PreMoneyValuation:  domain.NewMoneyFromDecimal(m.PreMoneyValuation),
		PostMoneyValuation: domain.NewMoneyFromDecimal(m.PostMoneyValuation),
		NewShareTerms: domain.ShareClassTerms{
			PreferenceMultiple:       m.PreferenceMultiple,
			SeniorityRank:            m.SeniorityRank,
			Participating:            m.Participating,
			ParticipationCapMultiple: m.ParticipationCapMultiple,
			ConversionRatio:          m.ConversionRatio,
		},
		Status: domain.RoundStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const selectRoundColumns = `round_id, captable_id, type, target_amount, price_per_share, pre_money_valuation, post_money_valuation,
	preference_multiple, seniority_rank, participating, participation_cap_multiple, conversion_ratio, status,
	created_at, created_by, last_updated_at, last_updated_by`

func scanRound(row pgx.Row) (models.Round, error) {
	var m models.Round
	err := row.Scan(
		&m.RoundID, &m.CapTableID, &m.Type, &m.TargetAmount, &m.PricePerShare, &m.PreMoneyValuation, &m.PostMoneyValuation,
		&m.PreferenceMultiple, &m.SeniorityRank, &m.Participating, &m.ParticipationCapMultiple, &m.ConversionRatio, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveRound persists a new equity round.
func (r *PgxRoundRepository) SaveRound(ctx context.Context, round domain.EquityRound) error {
	m := toModelRound(round)
	query := `
		INSERT INTO equity_rounds (round_id, captable_id, type, target_amount, price_per_share, pre_money_valuation, post_money_valuation,
			preference_multiple, seniority_rank, participating, participation_cap_multiple, conversion_ratio, status,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.pool.Exec(ctx, query,
		m.RoundID, m.CapTableID, m.Type, m.TargetAmount, m.PricePerShare, m.PreMoneyValuation, m.PostMoneyValuation,
		m.PreferenceMultiple, m.SeniorityRank, m.Participating, m.ParticipationCapMultiple, m.ConversionRatio, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: round %s already exists", apperrors.ErrDuplicate, m.RoundID)
		}
		return fmt.Errorf("failed to save round %s: %w", m.RoundID, err)
	}
	return nil
}

// FindRoundByID retrieves a single round.
func (r *PgxRoundRepository) FindRoundByID(ctx context.Context, roundID string) (*domain.EquityRound, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectRoundColumns+` FROM equity_rounds WHERE round_id = $1;`, roundID)
	m, err := scanRound(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find round %s: %w", roundID, err)
	}
	round := toDomainRound(m)
	return &round, nil
}

// ListRoundsByCapTable retrieves every round recorded against a cap table.
func (r *PgxRoundRepository) ListRoundsByCapTable(ctx context.Context, capTableID string) ([]domain.EquityRound, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectRoundColumns+`
		FROM equity_rounds
		WHERE captable_id = $1
		ORDER BY created_at, round_id;
	`, capTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for cap table %s: %w", capTableID, err)
	}
	defer rows.Close()

	rounds := []domain.EquityRound{}
	for rows.Next() {
		m, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, toDomainRound(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating round rows: %w", rows.Err())
	}
	return rounds, nil
}

// UpdateRoundStatus moves a round to a new lifecycle status.
func (r *PgxRoundRepository) UpdateRoundStatus(ctx context.Context, roundID string, status domain.RoundStatus, userID string, now time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE equity_rounds SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE round_id = $1;
	`, roundID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of round %s: %w", roundID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
