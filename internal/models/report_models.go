package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportFormat string

const (
	ReportFormatPDF   ReportFormat = "pdf"
	ReportFormatExcel ReportFormat = "excel"
)

func (f ReportFormat) Extension() string {
	if f == ReportFormatExcel {
		return "xlsx"
	}
	return "pdf"
}

func (f ReportFormat) ContentType() string {
	if f == ReportFormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// ReportRequest is the body of the report download endpoints.
type ReportRequest struct {
	InputData   PredictRequest    `json:"input_data"`
	Predictions PredictionResults `json:"predictions"`
	SoilHealth  SoilHealthReport  `json:"soil_health"`
	WeatherData *WeatherData      `json:"weather_data"`
	Language    string            `json:"language"`
}

func (r ReportRequest) LanguageOrDefault() string {
	if r.Language == "" {
		return DefaultLanguage
	}
	return r.Language
}

// ReportDocument is a rendered report ready to be sent or archived.
type ReportDocument struct {
	Format      ReportFormat
	FileName    string
	Content     []byte
	GeneratedAt time.Time
	ObjectName  string
}

// AnalysisRecord is a persisted /api/predict outcome.
type AnalysisRecord struct {
	ID          uuid.UUID         `json:"id"`
	Language    string            `json:"language"`
	Features    FeatureVector     `json:"features"`
	Reading     SoilReading       `json:"reading"`
	Predictions PredictionResults `json:"predictions"`
	SoilHealth  SoilHealthReport  `json:"soil_health"`
	CreatedAt   time.Time         `json:"created_at"`
}
