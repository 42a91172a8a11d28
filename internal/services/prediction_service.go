package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"fertilizer-service/internal/config"
	"fertilizer-service/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Classifier is one fitted model: preprocessing, predict and predict_proba
// happen behind it.
type Classifier interface {
	Name() string
	Predict(ctx context.Context, features models.FeatureVector) (models.ModelPrediction, error)
}

type IPredictionService interface {
	Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResults, error)
	ModelNames() []string
}

type PredictionService struct {
	classifiers []Classifier
	logger      *zap.Logger
}

func NewPredictionService(classifiers []Classifier, logger *zap.Logger) IPredictionService {
	return &PredictionService{classifiers: classifiers, logger: logger}
}

// Predict asks every classifier concurrently. One failure fails the whole
// prediction and cancels the remaining calls.
func (s *PredictionService) Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResults, error) {
	if len(s.classifiers) == 0 {
		return nil, fmt.Errorf("no classifiers configured")
	}

	var mu sync.Mutex
	results := make(models.PredictionResults, len(s.classifiers))

	g, gctx := errgroup.WithContext(ctx)
	for _, classifier := range s.classifiers {
		g.Go(func() error {
			prediction, err := classifier.Predict(gctx, features)
			if err != nil {
				return fmt.Errorf("model %s: %w", classifier.Name(), err)
			}
			prediction.Confidence = prediction.MaxProbability()
			mu.Lock()
			results[classifier.Name()] = prediction
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("prediction failed", zap.String("op", "PredictionService.Predict"), zap.Error(err))
		return nil, err
	}
	return results, nil
}

func (s *PredictionService) ModelNames() []string {
	names := make([]string, len(s.classifiers))
	for i, c := range s.classifiers {
		names[i] = c.Name()
	}
	return names
}

// RemoteClassifier calls a model server exposing
// POST {base}/models/{name}/predict.
type RemoteClassifier struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewRemoteClassifier(name string, cfg config.ModelServerConfig) *RemoteClassifier {
	return &RemoteClassifier{
		name:    name,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// NewRemoteClassifiers builds one client per configured model name.
func NewRemoteClassifiers(cfg config.ModelServerConfig) []Classifier {
	classifiers := make([]Classifier, 0, len(cfg.Models))
	for _, name := range cfg.Models {
		classifiers = append(classifiers, NewRemoteClassifier(name, cfg))
	}
	return classifiers
}

func (c *RemoteClassifier) Name() string { return c.name }

type predictRequestBody struct {
	Features models.FeatureVector `json:"features"`
}

func (c *RemoteClassifier) Predict(ctx context.Context, features models.FeatureVector) (models.ModelPrediction, error) {
	var prediction models.ModelPrediction

	body, err := json.Marshal(predictRequestBody{Features: features})
	if err != nil {
		return prediction, fmt.Errorf("failed to marshal features: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s/predict", c.baseURL, url.PathEscape(c.name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return prediction, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return prediction, fmt.Errorf("failed to call model server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return prediction, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return prediction, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, &prediction); err != nil {
		return prediction, fmt.Errorf("failed to parse prediction: %w", err)
	}
	if prediction.Prediction == "" {
		return prediction, fmt.Errorf("model server returned an empty prediction")
	}
	if prediction.Probabilities == nil {
		prediction.Probabilities = map[string]float64{}
	}
	return prediction, nil
}
