package consultation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	ListByUser(ctx context.Context, userID int64) ([]Consultation, error)
	GetByID(ctx context.Context, id int64) (*Consultation, error)
}

const selectColumns = `id, user_id, consultation_type, symptoms, prescription_suggestion, image_path, analysis_result, seriousness_rating, created_at`

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, c *Consultation) error {
	cols := c.columns()
	query := `
		INSERT INTO consultations (user_id, consultation_type, symptoms, prescription_suggestion, image_path, analysis_result, seriousness_rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, string(c.Kind), cols.symptoms, cols.prescription, cols.imagePath, cols.analysis, cols.seriousness, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]Consultation, error) {
	query := `SELECT ` + selectColumns + ` FROM consultations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return scanAll(rows)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	query := `SELECT ` + selectColumns + ` FROM consultations WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConsultation(s scanner) (Consultation, error) {
	var (
		id, userID                                               int64
		kind                                                     string
		symptoms, prescription, imagePath, analysis, seriousness sql.NullString
		createdAt                                                sql.NullTime
	)
	if err := s.Scan(&id, &userID, &kind, &symptoms, &prescription, &imagePath, &analysis, &seriousness, &createdAt); err != nil {
		return Consultation{}, err
	}
	return fromRow(id, userID, kind,
		nullable(symptoms), nullable(prescription), nullable(imagePath), nullable(analysis), nullable(seriousness),
		createdAt.Time.UTC(),
	)
}

func scanOne(row *sql.Row) (*Consultation, error) {
	c, err := scanConsultation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select consultation: %w", err)
	}
	return &c, nil
}

func scanAll(rows *sql.Rows) ([]Consultation, error) {
	defer rows.Close()

	out := []Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consultations: %w", err)
	}
	return out, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
