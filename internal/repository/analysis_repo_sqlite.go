package repository

import (
	"context"
	"database/sql"
	"errors"

	"ulasan/internal/domain"
)

// SQLiteAnalysisRepository implementa AnalysisRepository sobre database/sql con go-sqlite3,
// para desarrollo local sin Postgres.
type SQLiteAnalysisRepository struct {
	db *sql.DB
}

func NewSQLiteAnalysisRepository(db *sql.DB) *SQLiteAnalysisRepository {
	return &SQLiteAnalysisRepository{db: db}
}

func (r *SQLiteAnalysisRepository) Create(ctx context.Context, analysis *domain.Analysis) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO analyses (text, sentiment, confidence, created_at) VALUES (?, ?, ?, ?)`,
		analysis.Text, string(analysis.Sentiment), analysis.Confidence, analysis.CreatedAt,
	)
	if err != nil {
		return err
	}
	analysis.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteAnalysisRepository) GetByID(ctx context.Context, id int64) (domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, text, sentiment, confidence, correction, created_at FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Analysis{}, ErrNotFound
	}
	return a, err
}

func (r *SQLiteAnalysisRepository) SetCorrection(ctx context.Context, id int64, correction domain.SentimentLabel) error {
	res, err := r.db.ExecContext(ctx, `UPDATE analyses SET correction = ? WHERE id = ?`, string(correction), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteAnalysisRepository) ListCorrected(ctx context.Context) ([]domain.Analysis, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, sentiment, confidence, correction, created_at
		 FROM analyses WHERE correction IS NOT NULL ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
