package models

// Defaults applied to readings that omit a field.
const (
	DefaultNitrogen    = 0.0
	DefaultPotassium   = 0.0
	DefaultPhosphorous = 0.0
	DefaultTemperature = 25.0
	DefaultHumidity    = 60.0
	DefaultMoisture    = 40.0
	DefaultSoilType    = "Loamy"
	DefaultLanguage    = "en"
)

// SoilReading is the validated, fully defaulted input of one soil-health
// evaluation.
type SoilReading struct {
	Nitrogen    float64 `json:"Nitrogen"`
	Potassium   float64 `json:"Potassium"`
	Phosphorous float64 `json:"Phosphorous"`
	Temperature float64 `json:"Temparature"`
	Humidity    float64 `json:"Humidity"`
	Moisture    float64 `json:"Moisture"`
	SoilType    string  `json:"Soil_Type"`
}

// SoilReadingRequest is the wire form. Pointer fields distinguish "absent"
// from zero so defaults are only applied to missing values.
type SoilReadingRequest struct {
	Nitrogen    *float64 `json:"Nitrogen"`
	Potassium   *float64 `json:"Potassium"`
	Phosphorous *float64 `json:"Phosphorous"`
	Temperature *float64 `json:"Temparature"`
	Humidity    *float64 `json:"Humidity"`
	Moisture    *float64 `json:"Moisture"`
	SoilType    *string  `json:"Soil_Type"`
	Language    string   `json:"language"`
}

func (r SoilReadingRequest) ToSoilReading() SoilReading {
	return SoilReading{
		Nitrogen:    floatOr(r.Nitrogen, DefaultNitrogen),
		Potassium:   floatOr(r.Potassium, DefaultPotassium),
		Phosphorous: floatOr(r.Phosphorous, DefaultPhosphorous),
		Temperature: floatOr(r.Temperature, DefaultTemperature),
		Humidity:    floatOr(r.Humidity, DefaultHumidity),
		Moisture:    floatOr(r.Moisture, DefaultMoisture),
		SoilType:    stringOr(r.SoilType, DefaultSoilType),
	}
}

func (r SoilReadingRequest) LanguageOrDefault() string {
	if r.Language == "" {
		return DefaultLanguage
	}
	return r.Language
}

// SoilHealthReport is the result of one evaluation.
type SoilHealthReport struct {
	HealthScore     int      `json:"health_score"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	OverallStatus   string   `json:"overall_status"`
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
