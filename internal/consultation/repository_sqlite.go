package consultation

import (
	"context"
	"database/sql"
	"fmt"
)

type sqliteRepo struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepo{db: db}
}

func (r *sqliteRepo) Create(ctx context.Context, c *Consultation) error {
	cols := c.columns()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO consultations (user_id, consultation_type, symptoms, prescription_suggestion, image_path, analysis_result, seriousness_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, string(c.Kind), cols.symptoms, cols.prescription, cols.imagePath, cols.analysis, cols.seriousness, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read consultation id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *sqliteRepo) ListByUser(ctx context.Context, userID int64) ([]Consultation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM consultations WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return scanAll(rows)
}

func (r *sqliteRepo) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	return scanOne(r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM consultations WHERE id = ?`, id))
}
