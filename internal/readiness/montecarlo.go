package readiness

import (
	"math"
	"sort"
)

type RiskCategory string

const (
	RiskTechnical   RiskCategory = "technical"
	RiskMarket      RiskCategory = "market"
	RiskFinancial   RiskCategory = "financial"
	RiskOperational RiskCategory = "operational"
	RiskStrategic   RiskCategory = "strategic"
	RiskExternal    RiskCategory = "external"
)

type RiskFactor struct {
	Name        string       `json:"name"`
	Probability float64      `json:"probability"`
	ImpactLow   float64      `json:"impact_low"`
	ImpactHigh  float64      `json:"impact_high"`
	Category    RiskCategory `json:"category"`
}

type MonteCarloConfig struct {
	Iterations      int     `json:"iterations"`
	Seed            uint64  `json:"seed,omitempty"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{Iterations: 10000, ConfidenceLevel: 0.95}
}

type MonteCarloResult struct {
	MeanScore          float64            `json:"mean_score"`
	StdDev             float64            `json:"std_dev"`
	MinScore           float64            `json:"min_score"`
	MaxScore           float64            `json:"max_score"`
	Percentile5        float64            `json:"percentile_5"`
	Percentile25       float64            `json:"percentile_25"`
	Percentile50       float64            `json:"percentile_50"`
	Percentile75       float64            `json:"percentile_75"`
	Percentile95       float64            `json:"percentile_95"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	RiskOfFailure      float64            `json:"risk_of_failure"`
	IterationsRun      int                `json:"iterations_run"`
	Scenarios          []ScenarioOutcome  `json:"scenario_distribution"`
}

type ScenarioOutcome struct {
	Name        string  `json:"scenario_name"`
	Probability float64 `json:"probability"`
	ScoreImpact float64 `json:"score_impact"`
	Description string  `json:"description"`
}

// lcg is a fixed linear congruential generator. A caller-provided seed makes
// simulation runs reproducible; zero selects the default seed.
type lcg struct {
	state uint64
}

const defaultSeed = 12345

func newLCG(seed uint64) *lcg {
	if seed == 0 {
		seed = defaultSeed
	}
	return &lcg{state: seed}
}

func (r *lcg) next() float64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return float64(r.state) / float64(math.MaxUint64)
}

// Simulate draws risk materializations over many iterations and reports the
// resulting score distribution. Failure risk is the fraction of runs that
// land below 60.
func Simulate(baseScore float64, risks []RiskFactor, cfg MonteCarloConfig) MonteCarloResult {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultMonteCarloConfig().Iterations
	}
	if cfg.ConfidenceLevel <= 0 {
		cfg.ConfidenceLevel = DefaultMonteCarloConfig().ConfidenceLevel
	}

	rng := newLCG(cfg.Seed)
	results := make([]float64, 0, cfg.Iterations)

	for i := 0; i < cfg.Iterations; i++ {
		score := baseScore
		for _, risk := range risks {
			if rng.next() < risk.Probability {
				impact := risk.ImpactLow + (risk.ImpactHigh-risk.ImpactLow)*rng.next()
				score -= impact
			}
		}
		results = append(results, clamp(score, 0, 100))
	}

	sort.Float64s(results)

	n := float64(len(results))
	var sum float64
	for _, s := range results {
		sum += s
	}
	mean := sum / n

	var variance float64
	for _, s := range results {
		variance += (s - mean) * (s - mean)
	}
	variance /= n

	percentile := func(p float64) float64 {
		idx := int(math.Round(p / 100 * float64(len(results)-1)))
		return results[idx]
	}

	failures := 0
	for _, s := range results {
		if s < 60 {
			failures++
		}
	}

	return MonteCarloResult{
		MeanScore:    mean,
		StdDev:       math.Sqrt(variance),
		MinScore:     results[0],
		MaxScore:     results[len(results)-1],
		Percentile5:  percentile(5),
		Percentile25: percentile(25),
		Percentile50: percentile(50),
		Percentile75: percentile(75),
		Percentile95: percentile(95),
		ConfidenceInterval: ConfidenceInterval{
			LowerBound:      percentile((1 - cfg.ConfidenceLevel) / 2 * 100),
			UpperBound:      percentile((1 + cfg.ConfidenceLevel) / 2 * 100),
			ConfidenceLevel: cfg.ConfidenceLevel,
		},
		RiskOfFailure: float64(failures) / n,
		IterationsRun: cfg.Iterations,
		Scenarios:     categorizeScenarios(results),
	}
}

func categorizeScenarios(results []float64) []ScenarioOutcome {
	n := float64(len(results))
	count := func(lo, hi float64) float64 {
		c := 0
		for _, s := range results {
			if s >= lo && s < hi {
				c++
			}
		}
		return float64(c) / n
	}
	return []ScenarioOutcome{
		{Name: "Excellent", Probability: count(90, math.Inf(1)), ScoreImpact: 0, Description: "Decision achieves all objectives with minimal issues"},
		{Name: "Good", Probability: count(75, 90), ScoreImpact: -10, Description: "Decision succeeds with minor adjustments needed"},
		{Name: "Acceptable", Probability: count(60, 75), ScoreImpact: -25, Description: "Decision achieves basic objectives but with challenges"},
		{Name: "Poor", Probability: count(40, 60), ScoreImpact: -45, Description: "Decision faces significant obstacles, requires revision"},
		{Name: "Failure", Probability: count(math.Inf(-1), 40), ScoreImpact: -70, Description: "Decision likely to fail without major intervention"},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
