package readiness

import (
	"fmt"
	"math"
)

type DecayFactor struct {
	Name       string  `json:"name"`
	DecayRate  float64 `json:"decay_rate"`
	Volatility float64 `json:"volatility"`
}

type DecayConfig struct {
	InitialConfidence float64       `json:"initial_confidence"`
	Factors           []DecayFactor `json:"decay_factors"`
	TimeHorizonDays   int           `json:"time_horizon_days"`
}

type DecayClassification string

const (
	DecayStable   DecayClassification = "stable"   // half-life > 180 days
	DecayModerate DecayClassification = "moderate" // 60-180 days
	DecayVolatile DecayClassification = "volatile" // 14-60 days
	DecayCritical DecayClassification = "critical" // < 14 days
)

type ConfidencePoint struct {
	Day        int     `json:"day"`
	Confidence float64 `json:"confidence"`
	UpperBound float64 `json:"upper_bound"`
	LowerBound float64 `json:"lower_bound"`
}

type DecayResult struct {
	HalfLifeDays       float64             `json:"half_life_days"`
	ConfidenceTimeline []ConfidencePoint   `json:"confidence_timeline"`
	CriticalReviewDate string              `json:"critical_review_date"`
	Classification     DecayClassification `json:"decay_classification"`
	StabilityScore     float64             `json:"stability_score"`
	Recommendations    []string            `json:"recommendations"`
}

// Decay models how fast a decision's confidence erodes. The half-life is the
// day confidence drops to half its initial value, extrapolated from the
// aggregate decay rate when the horizon is too short to observe it.
func Decay(cfg DecayConfig) DecayResult {
	var decayRate, volatility float64
	if len(cfg.Factors) > 0 {
		for _, f := range cfg.Factors {
			decayRate += f.DecayRate
			volatility += f.Volatility
		}
		decayRate /= float64(len(cfg.Factors))
		volatility /= float64(len(cfg.Factors))
	}

	timeline := make([]ConfidencePoint, 0, cfg.TimeHorizonDays+1)
	halfLife := 0.0
	halfLifeFound := false

	for day := 0; day <= cfg.TimeHorizonDays; day++ {
		confidence := cfg.InitialConfidence * math.Exp(-decayRate*float64(day)/100)
		margin := volatility * math.Sqrt(float64(day)) / 10

		timeline = append(timeline, ConfidencePoint{
			Day:        day,
			Confidence: confidence,
			UpperBound: math.Min(confidence+margin, 100),
			LowerBound: math.Max(confidence-margin, 0),
		})

		if !halfLifeFound && confidence <= cfg.InitialConfidence/2 {
			halfLife = float64(day)
			halfLifeFound = true
		}
	}

	if !halfLifeFound {
		halfLife = math.Abs(0.693 / (decayRate / 100))
		if math.IsInf(halfLife, 0) || math.IsNaN(halfLife) {
			halfLife = float64(cfg.TimeHorizonDays)
		}
	}

	classification := DecayCritical
	switch {
	case halfLife > 180:
		classification = DecayStable
	case halfLife > 60:
		classification = DecayModerate
	case halfLife > 14:
		classification = DecayVolatile
	}

	stability := math.Min(halfLife/365*100, 100)

	return DecayResult{
		HalfLifeDays:       halfLife,
		ConfidenceTimeline: timeline,
		CriticalReviewDate: fmt.Sprintf("%d days from now", int(math.Round(halfLife*0.5))),
		Classification:     classification,
		StabilityScore:     stability,
		Recommendations:    decayRecommendations(classification, halfLife),
	}
}

func decayRecommendations(classification DecayClassification, halfLife float64) []string {
	switch classification {
	case DecayCritical:
		return []string{
			"URGENT: Decision has very short validity window",
			fmt.Sprintf("Schedule review within %d days", int(math.Round(halfLife*0.3))),
			"Consider if decision can be made more stable",
		}
	case DecayVolatile:
		return []string{
			"Decision requires frequent monitoring",
			fmt.Sprintf("Plan for review every %d days", int(math.Round(halfLife*0.4))),
			"Identify key assumptions that drive volatility",
		}
	case DecayModerate:
		return []string{
			"Decision has reasonable stability",
			fmt.Sprintf("Schedule quarterly review (every %d days)", int(math.Round(halfLife*0.5))),
		}
	default:
		return []string{
			"Decision is highly stable",
			"Annual review recommended",
			"Monitor for black swan events that could invalidate assumptions",
		}
	}
}
