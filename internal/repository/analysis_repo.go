package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ulasan/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// AnalysisRepository es el almacen de historial con correcciones humanas.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *domain.Analysis) error
	GetByID(ctx context.Context, id int64) (domain.Analysis, error)
	SetCorrection(ctx context.Context, id int64, correction domain.SentimentLabel) error
	// ListCorrected devuelve solo registros con correccion no nula, en orden de id.
	ListCorrected(ctx context.Context) ([]domain.Analysis, error)
}

// PgAnalysisRepository implementa AnalysisRepository usando pgxpool.
type PgAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnalysisRepository(pool *pgxpool.Pool) *PgAnalysisRepository {
	return &PgAnalysisRepository{pool: pool}
}

func (r *PgAnalysisRepository) Create(ctx context.Context, analysis *domain.Analysis) error {
	const query = `
		INSERT INTO analyses (text, sentiment, confidence, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		analysis.Text,
		string(analysis.Sentiment),
		analysis.Confidence,
		analysis.CreatedAt,
	).Scan(&analysis.ID)
}

func (r *PgAnalysisRepository) GetByID(ctx context.Context, id int64) (domain.Analysis, error) {
	const query = `
		SELECT id, text, sentiment, confidence, correction, created_at
		FROM analyses
		WHERE id = $1
	`
	a, err := scanAnalysis(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Analysis{}, ErrNotFound
	}
	return a, err
}

func (r *PgAnalysisRepository) SetCorrection(ctx context.Context, id int64, correction domain.SentimentLabel) error {
	const query = `UPDATE analyses SET correction = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, string(correction))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgAnalysisRepository) ListCorrected(ctx context.Context) ([]domain.Analysis, error) {
	const query = `
		SELECT id, text, sentiment, confidence, correction, created_at
		FROM analyses
		WHERE correction IS NOT NULL
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query)
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
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (domain.Analysis, error) {
	var (
		a          domain.Analysis
		sentiment  string
		correction *string
	)
	if err := row.Scan(&a.ID, &a.Text, &sentiment, &a.Confidence, &correction, &a.CreatedAt); err != nil {
		return domain.Analysis{}, err
	}
	a.Sentiment = domain.SentimentLabel(sentiment)
	if correction != nil {
		c := domain.SentimentLabel(*correction)
		a.Correction = &c
	}
	return a, nil
}
