package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fertilizer-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("analysis not found")
	ErrHistoryDisabled = errors.New("analysis history is not enabled")
)

// AnalysisStore persists analysis records. Unknown ids surface as
// sql.ErrNoRows.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
}

// AnalysisPublisher announces completed analyses.
type AnalysisPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, record *models.AnalysisRecord) error
}

type IAnalysisService interface {
	Analyze(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error)
	EvaluateSoil(req models.SoilReadingRequest) models.SoilHealthReport
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
}

type AnalysisService struct {
	predictions IPredictionService
	evaluator   ISoilHealthEvaluator
	store       AnalysisStore
	publisher   AnalysisPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewAnalysisService wires the analysis pipeline. store and publisher are
// optional.
func NewAnalysisService(
	predictions IPredictionService,
	evaluator ISoilHealthEvaluator,
	store AnalysisStore,
	publisher AnalysisPublisher,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		predictions: predictions,
		evaluator:   evaluator,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	lang := req.LanguageOrDefault()
	features := req.ToFeatureVector()

	results, err := s.predictions.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("failed to predict fertilizer: %w", err)
	}

	reading := req.ToSoilReading()
	soilHealth := s.evaluator.Evaluate(reading, lang)

	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		Language:    lang,
		Features:    features,
		Reading:     reading,
		Predictions: results,
		SoilHealth:  soilHealth,
		CreatedAt:   s.now().UTC(),
	}

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, record); err != nil {
			s.logger.Warn("failed to store analysis",
				zap.String("op", "AnalysisService.Analyze"),
				zap.String("analysis_id", record.ID.String()),
				zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAnalysisCompleted(ctx, record); err != nil {
			s.logger.Warn("failed to publish analysis event",
				zap.String("op", "AnalysisService.Analyze"),
				zap.String("analysis_id", record.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("analysis completed",
		zap.String("analysis_id", record.ID.String()),
		zap.Int("health_score", soilHealth.HealthScore),
		zap.Int("models", len(results)))

	return &models.PredictResponse{
		AnalysisID: record.ID.String(),
		Results:    results,
		SoilHealth: soilHealth,
	}, nil
}

func (s *AnalysisService) EvaluateSoil(req models.SoilReadingRequest) models.SoilHealthReport {
	return s.evaluator.Evaluate(req.ToSoilReading(), req.LanguageOrDefault())
}

func (s *AnalysisService) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	record, err := s.store.GetAnalysis(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}
	return record, nil
}
