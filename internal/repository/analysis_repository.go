package repository

import (
	"context"
	"fmt"
	"time"

	"fertilizer-service/internal/models"
	"fertilizer-service/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const analysisSchema = `
CREATE TABLE IF NOT EXISTS soil_analyses (
	id           UUID PRIMARY KEY,
	language     TEXT NOT NULL,
	features     JSONB NOT NULL,
	reading      JSONB NOT NULL,
	predictions  JSONB NOT NULL,
	soil_health  JSONB NOT NULL,
	health_score INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
)`

type analysisRow struct {
	ID          uuid.UUID                             `db:"id"`
	Language    string                                `db:"language"`
	Features    utils.JSONB[models.FeatureVector]     `db:"features"`
	Reading     utils.JSONB[models.SoilReading]       `db:"reading"`
	Predictions utils.JSONB[models.PredictionResults] `db:"predictions"`
	SoilHealth  utils.JSONB[models.SoilHealthReport]  `db:"soil_health"`
	HealthScore int                                   `db:"health_score"`
	CreatedAt   time.Time                             `db:"created_at"`
}

type AnalysisRepository struct {
	db *sqlx.DB
}

func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// EnsureSchema creates the soil_analyses table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, analysisSchema); err != nil {
		return fmt.Errorf("failed to create soil_analyses table: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	row := analysisRow{
		ID:          record.ID,
		Language:    record.Language,
		Features:    utils.NewJSONB(record.Features),
		Reading:     utils.NewJSONB(record.Reading),
		Predictions: utils.NewJSONB(record.Predictions),
		SoilHealth:  utils.NewJSONB(record.SoilHealth),
		HealthScore: record.SoilHealth.HealthScore,
		CreatedAt:   record.CreatedAt,
	}

	query := `
	INSERT INTO soil_analyses (id, language, features, reading, predictions, soil_health, health_score, created_at)
	VALUES (:id, :language, :features, :reading, :predictions, :soil_health, :health_score, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert analysis %s: %w", record.ID, err)
	}
	return nil
}

// GetAnalysis returns sql.ErrNoRows for unknown ids.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	var row analysisRow
	query := `
	SELECT id, language, features, reading, predictions, soil_health, health_score, created_at
	FROM soil_analyses
	WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	return &models.AnalysisRecord{
		ID:          row.ID,
		Language:    row.Language,
		Features:    row.Features.Data,
		Reading:     row.Reading.Data,
		Predictions: row.Predictions.Data,
		SoilHealth:  row.SoilHealth.Data,
		CreatedAt:   row.CreatedAt,
	}, nil
}
