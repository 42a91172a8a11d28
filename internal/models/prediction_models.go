package models

import "strconv"

// Feature defaults used when building classifier input.
const (
	DefaultFeatureNutrient = 20.0
	DefaultCropType        = "Wheat"
)

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	SoilReadingRequest
	CropType *string `json:"Crop_Type"`
}

// FeatureVector is the classifier input row, in training column order.
type FeatureVector struct {
	Temperature float64 `json:"Temparature"`
	Humidity    float64 `json:"Humidity"`
	Moisture    float64 `json:"Moisture"`
	SoilType    string  `json:"Soil_Type"`
	CropType    string  `json:"Crop_Type"`
	Nitrogen    float64 `json:"Nitrogen"`
	Potassium   float64 `json:"Potassium"`
	Phosphorous float64 `json:"Phosphorous"`
}

func (r PredictRequest) ToFeatureVector() FeatureVector {
	return FeatureVector{
		Temperature: floatOr(r.Temperature, DefaultTemperature),
		Humidity:    floatOr(r.Humidity, DefaultHumidity),
		Moisture:    floatOr(r.Moisture, DefaultMoisture),
		SoilType:    stringOr(r.SoilType, DefaultSoilType),
		CropType:    stringOr(r.CropType, DefaultCropType),
		Nitrogen:    floatOr(r.Nitrogen, DefaultFeatureNutrient),
		Potassium:   floatOr(r.Potassium, DefaultFeatureNutrient),
		Phosphorous: floatOr(r.Phosphorous, DefaultFeatureNutrient),
	}
}

// InputRows renders the request as labelled report rows. Absent fields
// show as N/A.
func (r PredictRequest) InputRows() [][2]string {
	return [][2]string{
		{"Temperature (°C)", numberOrNA(r.Temperature)},
		{"Humidity (%)", numberOrNA(r.Humidity)},
		{"Moisture (%)", numberOrNA(r.Moisture)},
		{"Soil Type", textOrNA(r.SoilType)},
		{"Crop Type", textOrNA(r.CropType)},
		{"Nitrogen (N)", numberOrNA(r.Nitrogen)},
		{"Potassium (K)", numberOrNA(r.Potassium)},
		{"Phosphorus (P)", numberOrNA(r.Phosphorous)},
	}
}

// ModelPrediction is one classifier's answer.
type ModelPrediction struct {
	Prediction    string             `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`
}

// MaxProbability is the highest class probability, 0 when the model
// reported none.
func (p ModelPrediction) MaxProbability() float64 {
	best := 0.0
	for _, prob := range p.Probabilities {
		if prob > best {
			best = prob
		}
	}
	return best
}

// PredictionResults maps classifier name to its prediction.
type PredictionResults map[string]ModelPrediction

// PredictResponse is the data payload of POST /api/predict.
type PredictResponse struct {
	AnalysisID string            `json:"analysis_id"`
	Results    PredictionResults `json:"results"`
	SoilHealth SoilHealthReport  `json:"soil_health"`
}

const notAvailable = "N/A"

func numberOrNA(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func textOrNA(v *string) string {
	if v == nil {
		return notAvailable
	}
	return *v
}
