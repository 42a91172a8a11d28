package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"fertilizer-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryAnalysisStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.AnalysisRecord
	saveErr error
}

func newMemoryAnalysisStore() *memoryAnalysisStore {
	return &memoryAnalysisStore{records: map[uuid.UUID]*models.AnalysisRecord{}}
}

func (m *memoryAnalysisStore) SaveAnalysis(_ context.Context, record *models.AnalysisRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *memoryAnalysisStore) GetAnalysis(_ context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

type recordingPublisher struct {
	published []*models.AnalysisRecord
	err       error
}

func (p *recordingPublisher) PublishAnalysisCompleted(_ context.Context, record *models.AnalysisRecord) error {
	p.published = append(p.published, record)
	return p.err
}

func newStubPredictions() IPredictionService {
	return NewPredictionService([]Classifier{
		stubClassifier{name: "RandomForestClassifier", prediction: models.ModelPrediction{Prediction: "Urea", Probabilities: map[string]float64{"Urea": 1}}},
	}, zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

func TestAnalysisService_Analyze(t *testing.T) {
	store := newMemoryAnalysisStore()
	publisher := &recordingPublisher{}
	svc := NewAnalysisService(newStubPredictions(), NewSoilHealthEvaluator(echoResolver{}), store, publisher, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	req := models.PredictRequest{
		SoilReadingRequest: models.SoilReadingRequest{
			Nitrogen:    ptr(30.0),
			Potassium:   ptr(25.0),
			Phosphorous: ptr(25.0),
			Humidity:    ptr(60.0),
			Moisture:    ptr(50.0),
			Language:    "hi",
		},
		CropType: ptr("Paddy"),
	}

	resp, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 100, resp.SoilHealth.HealthScore)
	assert.Equal(t, "excellent|hi", resp.SoilHealth.OverallStatus)
	assert.Equal(t, "Urea", resp.Results["RandomForestClassifier"].Prediction)

	id, err := uuid.Parse(resp.AnalysisID)
	require.NoError(t, err)

	stored, err := svc.GetAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Paddy", stored.Features.CropType)
	assert.Equal(t, 25.0, stored.Reading.Temperature)
	assert.Equal(t, "hi", stored.Language)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), stored.CreatedAt)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, id, publisher.published[0].ID)
}

func TestAnalysisService_SideEffectFailuresAreNotFatal(t *testing.T) {
	store := newMemoryAnalysisStore()
	store.saveErr = errors.New("db down")
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc := NewAnalysisService(newStubPredictions(), NewSoilHealthEvaluator(echoResolver{}), store, publisher, zap.NewNop())

	resp, err := svc.Analyze(context.Background(), models.PredictRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AnalysisID)
}

func TestAnalysisService_PredictionFailure(t *testing.T) {
	predictions := NewPredictionService([]Classifier{stubClassifier{name: "SVC", err: errors.New("timeout")}}, zap.NewNop())
	svc := NewAnalysisService(predictions, NewSoilHealthEvaluator(echoResolver{}), nil, nil, zap.NewNop())

	_, err := svc.Analyze(context.Background(), models.PredictRequest{})
	assert.Error(t, err)
}

func TestAnalysisService_GetAnalysis(t *testing.T) {
	withoutStore := NewAnalysisService(newStubPredictions(), NewSoilHealthEvaluator(echoResolver{}), nil, nil, zap.NewNop())
	_, err := withoutStore.GetAnalysis(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	withStore := NewAnalysisService(newStubPredictions(), NewSoilHealthEvaluator(echoResolver{}), newMemoryAnalysisStore(), nil, zap.NewNop())
	_, err = withStore.GetAnalysis(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisService_EvaluateSoil(t *testing.T) {
	svc := NewAnalysisService(newStubPredictions(), NewSoilHealthEvaluator(echoResolver{}), nil, nil, zap.NewNop())

	report := svc.EvaluateSoil(models.SoilReadingRequest{})
	assert.Equal(t, 52, report.HealthScore)
	assert.Equal(t, "fair|en", report.OverallStatus)
}
