package services

import (
	"fmt"
	"math"

	"fertilizer-service/internal/i18n"
	"fertilizer-service/internal/models"
)

// Band scores, best to worst.
const (
	BandOptimal = 100
	BandGood    = 70
	BandFair    = 40
	BandPoor    = 20
)

const (
	nutrientWeight    = 0.6
	environmentWeight = 0.4
	noScoreFallback   = 50
)

type factorGroup int

const (
	groupNutrient factorGroup = iota
	groupEnvironment
)

// bandRule awards score when match holds. Rules are tried in order and the
// first match wins.
type bandRule struct {
	match func(x float64) bool
	score int
}

// factorRule describes how one reading is messaged and scored. The
// low/high message thresholds are separate from, and looser than, the
// scoring bands.
type factorRule struct {
	name    string
	group   factorGroup
	value   func(r models.SoilReading) float64
	low     float64
	high    float64
	lowMsg  string
	lowRec  string
	highMsg string
	highRec string
	okMsg   string
	bands   []bandRule
}

// within reports lo <= x <= hi.
func within(lo, hi float64) func(float64) bool {
	return func(x float64) bool { return lo <= x && x <= hi }
}

// between reports lo <= x < innerLo or innerHi < x <= hi.
func between(lo, innerLo, innerHi, hi float64) func(float64) bool {
	return func(x float64) bool {
		return (lo <= x && x < innerLo) || (innerHi < x && x <= hi)
	}
}

func always(float64) bool { return true }

// margins holds the widths of the good and fair bands on one side of the
// optimal range.
type margins struct {
	good, fair float64
}

// tiers builds the four scoring bands around [lo, hi]. The two sides are
// not always symmetric.
func tiers(lo, hi float64, below, above margins) []bandRule {
	return []bandRule{
		{within(lo, hi), BandOptimal},
		{between(lo-below.good, lo, hi, hi+above.good), BandGood},
		{between(lo-below.good-below.fair, lo-below.good, hi+above.good, hi+above.good+above.fair), BandFair},
		{always, BandPoor},
	}
}

// factorRules is evaluated in this order; insights follow it.
var factorRules = []factorRule{
	{
		name:    "Nitrogen",
		group:   groupNutrient,
		value:   func(r models.SoilReading) float64 { return r.Nitrogen },
		low:     20,
		high:    45,
		lowMsg:  "soil_nitrogen_low",
		lowRec:  "add_nitrogen_fertilizers",
		highMsg: "soil_nitrogen_high",
		highRec: "avoid_nitrogen_heavy",
		okMsg:   "soil_nitrogen_adequate",
		bands:   tiers(20, 45, margins{5, 5}, margins{10, 10}),
	},
	{
		name:    "Potassium",
		group:   groupNutrient,
		value:   func(r models.SoilReading) float64 { return r.Potassium },
		low:     15,
		high:    35,
		lowMsg:  "soil_potassium_low",
		lowRec:  "add_potassium_sulfate",
		highMsg: "soil_potassium_high",
		highRec: "reduce_potassium_inputs",
		okMsg:   "soil_potassium_adequate",
		bands:   tiers(15, 35, margins{5, 5}, margins{10, 10}),
	},
	{
		name:    "Phosphorus",
		group:   groupNutrient,
		value:   func(r models.SoilReading) float64 { return r.Phosphorous },
		low:     15,
		high:    35,
		lowMsg:  "soil_phosphorus_low",
		lowRec:  "add_bone_meal",
		highMsg: "soil_phosphorus_high",
		highRec: "avoid_phosphorus_heavy",
		okMsg:   "soil_phosphorus_adequate",
		bands:   tiers(15, 35, margins{5, 5}, margins{10, 10}),
	},
	{
		name:    "Temperature",
		group:   groupEnvironment,
		value:   func(r models.SoilReading) float64 { return r.Temperature },
		low:     15,
		high:    35,
		lowMsg:  "temperature_low",
		lowRec:  "cold_tolerant_crops",
		highMsg: "temperature_high",
		highRec: "adequate_irrigation",
		okMsg:   "temperature_optimal",
		bands:   tiers(15, 35, margins{5, 5}, margins{5, 5}),
	},
	{
		name:    "Humidity",
		group:   groupEnvironment,
		value:   func(r models.SoilReading) float64 { return r.Humidity },
		low:     40,
		high:    80,
		lowMsg:  "humidity_low",
		lowRec:  "increase_irrigation",
		highMsg: "humidity_high",
		highRec: "good_drainage",
		okMsg:   "humidity_suitable",
		bands:   tiers(40, 80, margins{10, 10}, margins{10, 5}),
	},
	{
		name:    "Moisture",
		group:   groupEnvironment,
		value:   func(r models.SoilReading) float64 { return r.Moisture },
		low:     30,
		high:    70,
		lowMsg:  "moisture_low",
		lowRec:  "increase_irrigation_organic",
		highMsg: "moisture_high",
		highRec: "improve_drainage",
		okMsg:   "moisture_adequate",
		bands:   tiers(30, 70, margins{10, 10}, margins{10, 10}),
	},
}

// bandScore returns the score of the first matching band.
func bandScore(rules []bandRule, x float64) int {
	for _, rule := range rules {
		if rule.match(x) {
			return rule.score
		}
	}
	return BandPoor
}

// FactorScore is the band score of a single named factor.
type FactorScore struct {
	Factor string  `json:"factor"`
	Value  float64 `json:"value"`
	Score  int     `json:"score"`
}

type ISoilHealthEvaluator interface {
	Evaluate(reading models.SoilReading, lang string) models.SoilHealthReport
	FactorScores(reading models.SoilReading) []FactorScore
	HealthScore(reading models.SoilReading) int
}

// SoilHealthEvaluator is stateless; one value can be shared by any number
// of goroutines as long as its TextResolver can.
type SoilHealthEvaluator struct {
	texts i18n.TextResolver
}

func NewSoilHealthEvaluator(texts i18n.TextResolver) *SoilHealthEvaluator {
	return &SoilHealthEvaluator{texts: texts}
}

func (e *SoilHealthEvaluator) Evaluate(reading models.SoilReading, lang string) models.SoilHealthReport {
	insights := make([]string, 0, len(factorRules)+1)
	recommendations := make([]string, 0, len(factorRules)+1)

	for _, rule := range factorRules {
		x := rule.value(reading)
		switch {
		case x < rule.low:
			insights = append(insights, e.texts.Resolve(rule.lowMsg, lang))
			recommendations = append(recommendations, e.texts.Resolve(rule.lowRec, lang))
		case x > rule.high:
			insights = append(insights, e.texts.Resolve(rule.highMsg, lang))
			recommendations = append(recommendations, e.texts.Resolve(rule.highRec, lang))
		default:
			insights = append(insights, e.texts.Resolve(rule.okMsg, lang))
		}
	}

	insights = append(insights, fmt.Sprintf("Soil type: %s", reading.SoilType))
	recommendations = append(recommendations, e.texts.ResolveSoilTypeRecommendation(reading.SoilType, lang))

	score := e.HealthScore(reading)
	return models.SoilHealthReport{
		HealthScore:     score,
		Insights:        insights,
		Recommendations: recommendations,
		OverallStatus:   e.texts.Resolve(StatusMessageID(score), lang),
	}
}

func (e *SoilHealthEvaluator) FactorScores(reading models.SoilReading) []FactorScore {
	scores := make([]FactorScore, len(factorRules))
	for i, rule := range factorRules {
		x := rule.value(reading)
		scores[i] = FactorScore{Factor: rule.name, Value: x, Score: bandScore(rule.bands, x)}
	}
	return scores
}

// HealthScore is floor(0.6*mean(nutrients) + 0.4*mean(environment)).
func (e *SoilHealthEvaluator) HealthScore(reading models.SoilReading) int {
	var nutrients, environment []int
	for i, fs := range e.FactorScores(reading) {
		if factorRules[i].group == groupNutrient {
			nutrients = append(nutrients, fs.Score)
		} else {
			environment = append(environment, fs.Score)
		}
	}
	return weightedScore(nutrients, environment)
}

func weightedScore(nutrients, environment []int) int {
	if len(nutrients) > 0 && len(environment) > 0 {
		weighted := mean(nutrients)*nutrientWeight + mean(environment)*environmentWeight
		return int(math.Trunc(weighted))
	}

	all := append(append([]int{}, nutrients...), environment...)
	if len(all) == 0 {
		return noScoreFallback
	}
	return int(math.Trunc(mean(all)))
}

func mean(scores []int) float64 {
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// StatusMessageID maps a score onto the message id of its status tier.
func StatusMessageID(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}
