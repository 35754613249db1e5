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

// pgxQuerier is the subset of pool/tx query behavior the read helpers need.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgxInstrumentRepository struct {
	pool *pgxpool.Pool
}

func newPgxInstrumentRepository(pool *pgxpool.Pool) portsrepo.InstrumentRepositoryFacade {
	return &PgxInstrumentRepository{pool: pool}
}

var _ portsrepo.InstrumentRepositoryFacade = (*PgxInstrumentRepository)(nil)

func toModelSafe(d domain.SafeAgreement) models.Safe {
	m := models.Safe{
		SafeID:          d.SafeID,
		CapTableID:      d.CapTableID,
		StakeholderID:   d.StakeholderID,
		Principal:       d.Principal.Decimal(),
		Kind:            string(d.Kind),
		DiscountPercent: d.DiscountPercent,
		ProRataRights:   d.ProRataRights,
		Status:          string(d.Status),
		IssueDate:       d.IssueDate,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
	if d.ValuationCap != nil {
		cap := d.ValuationCap.Decimal()
		m.ValuationCap = &cap
	}
	return m
}

func toDomainSafe(m models.Safe) domain.SafeAgreement {
	d := domain.SafeAgreement{
		SafeID:          m.SafeID,
		CapTableID:      m.CapTableID,
		StakeholderID:   m.StakeholderID,
		Principal:       domain.NewMoneyFromDecimal(m.Principal),
		Kind:            domain.SafeKind(m.Kind),
		DiscountPercent: m.DiscountPercent,
		ProRataRights:   m.ProRataRights,
		Status:          domain.SafeStatus(m.Status),
		IssueDate:       m.IssueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
	if m.ValuationCap != nil {
		cap := domain.NewMoneyFromDecimal(*m.ValuationCap)
		d.ValuationCap = &cap
	}
	return d
}

func toModelNote(d domain.ConvertibleNote) models.Note {
	m := models.Note{
		NoteID:          d.NoteID,
		CapTableID:      d.CapTableID,
		StakeholderID:   d.StakeholderID,
		Principal:       d.Principal.Decimal(),
		InterestRate:    d.InterestRate,
		Compounding:     string(d.Compounding),
		IssueDate:       d.IssueDate,
		MaturityDate:    d.MaturityDate,
		DiscountPercent: d.DiscountPercent,
		Status:          string(d.Status),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
	if d.ValuationCap != nil {
		cap := d.ValuationCap.Decimal()
		m.ValuationCap = &cap
	}
	return m
}

func toDomainNote(m models.Note) domain.ConvertibleNote {
	d := domain.ConvertibleNote{
		NoteID:          m.NoteID,
		CapTableID:      m.CapTableID,
		StakeholderID:   m.StakeholderID,
		Principal:       domain.NewMoneyFromDecimal(m.Principal),
		InterestRate:    m.InterestRate,
		Compounding:     domain.CompoundingPolicy(m.Compounding),
		IssueDate:       m.IssueDate,
		MaturityDate:    m.MaturityDate,
		DiscountPercent: m.DiscountPercent,
		Status:          domain.NoteStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
	if m.ValuationCap != nil {
		cap := domain.NewMoneyFromDecimal(*m.ValuationCap)
		d.ValuationCap = &cap
	}
	return d
}

const selectSafeColumns = `safe_id, captable_id, stakeholder_id, principal, kind, valuation_cap, discount_percent, pro_rata_rights, status, issue_date,
	created_at, created_by, last_updated_at, last_updated_by`

const selectNoteColumns = `note_id, captable_id, stakeholder_id, principal, interest_rate, compounding, issue_date, maturity_date, valuation_cap, discount_percent, status,
	created_at, created_by, last_updated_at, last_updated_by`

func scanSafe(row pgx.Row) (models.Safe, error) {
	var m models.Safe
	err := row.Scan(
		&m.SafeID, &m.CapTableID, &m.StakeholderID, &m.Principal, &m.Kind,
		&m.ValuationCap, &m.DiscountPercent, &m.ProRataRights, &m.Status, &m.IssueDate,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanNote(row pgx.Row) (models.Note, error) {
	var m models.Note
	err := row.Scan(
		&m.NoteID, &m.CapTableID, &m.StakeholderID, &m.Principal, &m.InterestRate, &m.Compounding,
		&m.IssueDate, &m.MaturityDate, &m.ValuationCap, &m.DiscountPercent, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveSafe persists a new SAFE agreement.
func (r *PgxInstrumentRepository) SaveSafe(ctx context.Context, safe domain.SafeAgreement) error {
	m := toModelSafe(safe)
	query := `
		INSERT INTO safes (safe_id, captable_id, stakeholder_id, principal, kind, valuation_cap, discount_percent, pro_rata_rights, status, issue_date,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		m.SafeID, m.CapTableID, m.StakeholderID, m.Principal, m.Kind,
		m.ValuationCap, m.DiscountPercent, m.ProRataRights, m.Status, m.IssueDate,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: SAFE %s already exists", apperrors.ErrDuplicate, m.SafeID)
		}
		return fmt.Errorf("failed to save SAFE %s: %w", m.SafeID, err)
	}
	return nil
}

// SaveNote persists a new convertible note.
func (r *PgxInstrumentRepository) SaveNote(ctx context.Context, note domain.ConvertibleNote) error {
	m := toModelNote(note)
	query := `
		INSERT INTO convertible_notes (note_id, captable_id, stakeholder_id, principal, interest_rate, compounding, issue_date, maturity_date, valuation_cap, discount_percent, status,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.pool.Exec(ctx, query,
		m.NoteID, m.CapTableID, m.StakeholderID, m.Principal, m.InterestRate, m.Compounding,
		m.IssueDate, m.MaturityDate, m.ValuationCap, m.DiscountPercent, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: note %s already exists", apperrors.ErrDuplicate, m.NoteID)
		}
		return fmt.Errorf("failed to save note %s: %w", m.NoteID, err)
	}
	return nil
}

// FindSafeByID retrieves a single SAFE.
func (r *PgxInstrumentRepository) FindSafeByID(ctx context.Context, safeID string) (*domain.SafeAgreement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectSafeColumns+` FROM safes WHERE safe_id = $1;`, safeID)
	m, err := scanSafe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find SAFE %s: %w", safeID, err)
	}
	safe := toDomainSafe(m)
	return &safe, nil
}

// FindNoteByID retrieves a single convertible note.
func (r *PgxInstrumentRepository) FindNoteByID(ctx context.Context, noteID string) (*domain.ConvertibleNote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectNoteColumns+` FROM convertible_notes WHERE note_id = $1;`, noteID)
	m, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note %s: %w", noteID, err)
	}
	note := toDomainNote(m)
	return &note, nil
}

// ListSafesByCapTable retrieves every SAFE on a cap table, any status.
func (r *PgxInstrumentRepository) ListSafesByCapTable(ctx context.Context, capTableID string) ([]domain.SafeAgreement, error) {
	return listSafes(ctx, r.pool, capTableID, false)
}

// ListNotesByCapTable retrieves every note on a cap table, any status.
func (r *PgxInstrumentRepository) ListNotesByCapTable(ctx context.Context, capTableID string) ([]domain.ConvertibleNote, error) {
	return listNotes(ctx, r.pool, capTableID, false)
}

func listSafes(ctx context.Context, q pgxQuerier, capTableID string, activeOnly bool) ([]domain.SafeAgreement, error) {
	query := `SELECT ` + selectSafeColumns + ` FROM safes WHERE captable_id = $1`
	if activeOnly {
		query += ` AND status = 'ACTIVE'`
	}
	query += ` ORDER BY issue_date, safe_id;`

	rows, err := q.Query(ctx, query, capTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query SAFEs for cap table %s: %w", capTableID, err)
	}
	defer rows.Close()

	safes := []domain.SafeAgreement{}
	for rows.Next() {
		m, err := scanSafe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan SAFE row: %w", err)
		}
		safes = append(safes, toDomainSafe(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating SAFE rows: %w", rows.Err())
	}
	return safes, nil
}

func listNotes(ctx context.Context, q pgxQuerier, capTableID string, activeOnly bool) ([]domain.ConvertibleNote, error) {
	query := `SELECT ` + selectNoteColumns + ` FROM convertible_notes WHERE captable_id = $1`
	if activeOnly {
		query += ` AND status = 'ACTIVE'`
	}
	query += ` ORDER BY issue_date, note_id;`

	rows, err := q.Query(ctx, query, capTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes for cap table %s: %w", capTableID, err)
	}
	defer rows.Close()

	notes := []domain.ConvertibleNote{}
	for rows.Next() {
		m, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, toDomainNote(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating note rows: %w", rows.Err())
	}
	return notes, nil
}

// UpdateSafeStatus moves a SAFE to a new lifecycle status.
func (r *PgxInstrumentRepository) UpdateSafeStatus(ctx context.Context, safeID string, status domain.SafeStatus, userID string, now time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE safes SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE safe_id = $1;
	`, safeID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of SAFE %s: %w", safeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateNoteStatus moves a note to a new lifecycle status.
func (r *PgxInstrumentRepository) UpdateNoteStatus(ctx context.Context, noteID string, status domain.NoteStatus, userID string, now time.Time) error {
	cmdTag, err := r.pool.Exec(ctx, `
		UPDATE convertible_notes SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE note_id = $1;
	`, noteID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of note %s: %w", noteID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
