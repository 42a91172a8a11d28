package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"fertilizer-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysisColumns = []string{"id", "language", "features", "reading", "predictions", "soil_health", "health_score", "created_at"}

func newMockRepository(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestAnalysisRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS soil_analyses")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_SaveAnalysis(t *testing.T) {
	repo, mock := newMockRepository(t)
	record := &models.AnalysisRecord{
		ID:         uuid.New(),
		Language:   "en",
		SoilHealth: models.SoilHealthReport{HealthScore: 88},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO soil_analyses")).
		WithArgs(record.ID, "en", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 88, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveAnalysis(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_GetAnalysis(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	createdAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(analysisColumns).AddRow(
		id.String(),
		"hi",
		[]byte(`{"Temparature":25,"Humidity":60,"Moisture":40,"Soil_Type":"Black","Crop_Type":"Cotton","Nitrogen":20,"Potassium":20,"Phosphorous":20}`),
		[]byte(`{"Nitrogen":0,"Potassium":0,"Phosphorous":0,"Temparature":25,"Humidity":60,"Moisture":40,"Soil_Type":"Black"}`),
		[]byte(`{"SVC":{"prediction":"DAP","probabilities":{"DAP":0.8}}}`),
		[]byte(`{"health_score":52,"insights":["a"],"recommendations":["b"],"overall_status":"Fair"}`),
		52,
		createdAt,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM soil_analyses")).WithArgs(id).WillReturnRows(rows)

	record, err := repo.GetAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "Cotton", record.Features.CropType)
	assert.Equal(t, "Black", record.Reading.SoilType)
	assert.Equal(t, "DAP", record.Predictions["SVC"].Prediction)
	assert.Equal(t, 52, record.SoilHealth.HealthScore)
	assert.Equal(t, createdAt, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_GetAnalysisMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM soil_analyses")).
		WillReturnRows(sqlmock.NewRows(analysisColumns))

	_, err := repo.GetAnalysis(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
