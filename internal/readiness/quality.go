package readiness

import (
	"regexp"
	"strings"
)

// Quality metrics are heuristic and intentionally cheap: substring counts
// and a handful of regexes, no NLP machinery. Weights sum to 1.0.
func qualityMetrics(text string) QualityMetrics {
	clarity := clarityScore(text)
	specificity := specificityScore(text)
	actionability := actionabilityScore(text)
	completeness := completenessScore(text)

	return QualityMetrics{
		Clarity:       clarity,
		Specificity:   specificity,
		Actionability: actionability,
		Completeness:  completeness,
		Overall:       clarity*0.25 + specificity*0.30 + actionability*0.25 + completeness*0.20,
	}
}

func clarityScore(text string) float64 {
	wordCount := float64(len(strings.Fields(text)))
	if wordCount == 0 {
		return 0
	}

	sentenceCount := float64(strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?"))
	if sentenceCount < 1 {
		sentenceCount = 1
	}
	avgSentenceLength := wordCount / sentenceCount

	// Ideal range is 12-20 words per sentence.
	var lengthScore float64
	switch {
	case avgSentenceLength < 8:
		lengthScore = 0.6 + (avgSentenceLength/8)*0.2
	case avgSentenceLength <= 20:
		lengthScore = 0.8 + ((20-avgSentenceLength)/12)*0.2
	default:
		over := (avgSentenceLength - 20) / 30
		if over > 0.4 {
			over = 0.4
		}
		lengthScore = 0.8 - over
	}

	if strings.Contains(text, "- ") || strings.Contains(text, "* ") || strings.Contains(text, "• ") {
		lengthScore += 0.1
	}
	if lengthScore > 1 {
		lengthScore = 1
	}
	return lengthScore
}

var vagueWords = []string{
	"some", "many", "few", "various", "several", "often", "sometimes",
	"might", "could", "possibly", "perhaps", "generally", "usually",
	"significant", "considerable", "substantial",
}

var specificPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$[\d,]+`),
	regexp.MustCompile(`\d+ (days?|weeks?|months?|years?)`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`Q[1-4] \d{4}`),
	regexp.MustCompile(`\d+:\d+`),
}

func specificityScore(text string) float64 {
	lower := strings.ToLower(text)
	wordCount := float64(len(strings.Fields(lower)))
	if wordCount == 0 {
		return 0
	}

	vagueCount := 0
	for _, w := range vagueWords {
		vagueCount += strings.Count(lower, w)
	}
	vaguePenalty := float64(vagueCount) / wordCount * 10
	if vaguePenalty > 0.3 {
		vaguePenalty = 0.3
	}

	specificCount := 0
	for _, re := range specificPatterns {
		specificCount += len(re.FindAllString(text, -1))
	}
	specificBonus := float64(specificCount) * 0.05
	if specificBonus > 0.3 {
		specificBonus = 0.3
	}

	score := 0.7 - vaguePenalty + specificBonus
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

var actionVerbs = []string{
	"implement", "execute", "deploy", "launch", "create", "build",
	"develop", "establish", "initiate", "complete", "deliver", "achieve",
	"schedule", "assign", "review", "analyze", "evaluate", "measure",
	"track", "monitor", "verify", "validate", "test", "approve",
}

var ownerMarkers = []string{"owner:", "assigned to", "responsible:", "lead:", "by:"}

var timelineMarkers = []string{"by", "before", "within", "deadline", "due", "target date"}

func actionabilityScore(text string) float64 {
	lower := strings.ToLower(text)
	if len(strings.Fields(lower)) == 0 {
		return 0
	}

	actionCount := 0
	for _, v := range actionVerbs {
		actionCount += strings.Count(lower, v)
	}
	actionScore := float64(actionCount) * 0.1
	if actionScore > 0.4 {
		actionScore = 0.4
	}

	score := 0.2 + actionScore
	for _, marker := range ownerMarkers {
		if strings.Contains(lower, marker) {
			score += 0.2
			break
		}
	}
	for _, marker := range timelineMarkers {
		if strings.Contains(lower, marker) {
			score += 0.2
			break
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

func completenessScore(text string) float64 {
	upper := strings.ToUpper(text)
	sections := []struct {
		name   string
		weight float64
	}{
		{"BEST OPTION", 0.15},
		{"RATIONALE", 0.15},
		{"RISKS", 0.15},
		{"ASSUMPTIONS", 0.15},
		{"HALF-LIFE", 0.10},
		{"BLIND SPOTS", 0.10},
		{"NEXT ACTIONS", 0.20},
	}
	score := 0.0
	for _, s := range sections {
		if strings.Contains(upper, s.name) {
			score += s.weight
		}
	}
	return score
}

// confidenceInterval widens with lower overall quality, up to 15 points
// either side.
func confidenceInterval(score float64, metrics QualityMetrics) ConfidenceInterval {
	margin := (1 - metrics.Overall) * 15
	lower := score - margin
	if lower < 0 {
		lower = 0
	}
	upper := score + margin
	if upper > 100 {
		upper = 100
	}
	return ConfidenceInterval{LowerBound: lower, UpperBound: upper, ConfidenceLevel: 0.95}
}
