package readiness

import (
	"reflect"
	"strings"
	"testing"
)

const wellFormedReport = `BEST OPTION:
Choose Option A for maximum ROI.

RATIONALE:
- Cost effective
- Proven technology
- Team expertise

TOP RISKS:
- Market volatility
- Technical debt
- Resource constraints

ASSUMPTIONS TO VALIDATE:
- Budget approved
- Team available
- Timeline feasible

HALF-LIFE:
6 months - review quarterly

BLIND SPOTS:
- Competitor moves
- Regulatory changes

NEXT ACTIONS:
1. Get budget approval by Friday
2. Schedule kickoff meeting
3. Assign project lead
4. Create project charter
5. Set up tracking
6. Send stakeholder update`

func TestScoreWellFormedReport(t *testing.T) {
	result := ScoreReportText(wellFormedReport, DefaultConfig())

	if result.Score < 80 {
		t.Fatalf("score = %d, notes = %v", result.Score, result.Notes)
	}
	if result.MustRepair {
		t.Fatalf("unexpected repair: %+v", result)
	}
	if len(result.MissingHeaders) != 0 {
		t.Fatalf("missing = %v", result.MissingHeaders)
	}
	if result.NextActionsCount != 6 || !result.NextActionsOK {
		t.Fatalf("next actions = %d", result.NextActionsCount)
	}
	if result.FinishReasonHint != "OK" {
		t.Fatalf("hint = %q", result.FinishReasonHint)
	}
}

func TestScoreMarkdownDecorationIgnored(t *testing.T) {
	decorated := "## " + strings.ReplaceAll(wellFormedReport, "\n\n", "\n\n## ")
	decorated = strings.ReplaceAll(decorated, ":\n", "\n")
	result := ScoreReportText(decorated, DefaultConfig())
	if len(result.MissingHeaders) != 0 {
		t.Fatalf("markdown headers should still match: missing = %v", result.MissingHeaders)
	}
}

func TestScoreMissingHeaders(t *testing.T) {
	input := "BEST OPTION:\nOption B, phased.\n\nRATIONALE:\n- cheaper"
	result := ScoreReportText(input, DefaultConfig())

	want := []string{"TOP RISKS", "ASSUMPTIONS TO VALIDATE", "HALF-LIFE", "BLIND SPOTS", "NEXT ACTIONS"}
	if !reflect.DeepEqual(result.MissingHeaders, want) {
		t.Fatalf("missing = %v", result.MissingHeaders)
	}
	if !result.MustRepair {
		t.Fatal("missing headers must force repair")
	}
	if result.FinishReasonHint != "INCOMPLETE_STRUCTURE" {
		t.Fatalf("hint = %q", result.FinishReasonHint)
	}
}

func TestScoreDuplicateHeaderPenalty(t *testing.T) {
	input := wellFormedReport + "\n\nTOP RISKS:\n- a second risk list"
	base := ScoreReportText(wellFormedReport, DefaultConfig())
	dup := ScoreReportText(input, DefaultConfig())

	if !reflect.DeepEqual(dup.DuplicateHeaders, []string{"TOP RISKS"}) {
		t.Fatalf("duplicates = %v", dup.DuplicateHeaders)
	}
	if dup.Score != base.Score-6 {
		t.Fatalf("score %d vs base %d", dup.Score, base.Score)
	}
}

func TestScoreTruncatedReport(t *testing.T) {
	input := "BEST OPTION:\nOption A.\n\nNEXT ACTIONS:\n1. Start the rollout\n2. Then..."
	result := ScoreReportText(input, DefaultConfig())

	if !result.TruncationSuspected {
		t.Fatal("ellipsis ending should read as truncation")
	}
	if result.FinishReasonHint != "LIKELY_TRUNCATED" {
		t.Fatalf("hint = %q", result.FinishReasonHint)
	}
	if !result.MustRepair {
		t.Fatal("truncated short report must force repair")
	}
}

func TestScoreEmptyInput(t *testing.T) {
	result := ScoreReportText("", DefaultConfig())
	if result.Score != 0 {
		t.Fatalf("score = %d", result.Score)
	}
	if !result.MustRepair || !result.TruncationSuspected {
		t.Fatalf("result = %+v", result)
	}
}

func TestScoreEmptySectionPenalty(t *testing.T) {
	input := strings.Replace(wellFormedReport, "6 months - review quarterly\n", "", 1)
	result := ScoreReportText(input, DefaultConfig())
	if !reflect.DeepEqual(result.EmptySections, []string{"HALF-LIFE"}) {
		t.Fatalf("empty = %v", result.EmptySections)
	}
}

func TestScoreNextActionsDeficit(t *testing.T) {
	input := strings.Split(wellFormedReport, "3. Assign project lead")[0] + "3. Assign project lead"
	result := ScoreReportText(input, DefaultConfig())
	if result.NextActionsCount != 3 || result.NextActionsOK {
		t.Fatalf("next actions = %d", result.NextActionsCount)
	}
	if !result.MustRepair {
		t.Fatal("deficit must force repair")
	}
}

func TestQualityMetricsRange(t *testing.T) {
	metrics := qualityMetrics(wellFormedReport)
	for name, v := range map[string]float64{
		"clarity":       metrics.Clarity,
		"specificity":   metrics.Specificity,
		"actionability": metrics.Actionability,
		"completeness":  metrics.Completeness,
		"overall":       metrics.Overall,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v out of range", name, v)
		}
	}
	if metrics.Completeness != 1.0 {
		t.Fatalf("completeness = %v for a full report", metrics.Completeness)
	}
	if metrics.Overall == 0 {
		t.Fatal("overall quality should be nonzero")
	}
}

func TestConfidenceIntervalBounds(t *testing.T) {
	ci := confidenceInterval(95, QualityMetrics{Overall: 0.5})
	if ci.LowerBound != 87.5 || ci.UpperBound != 100 {
		t.Fatalf("interval = %+v", ci)
	}
	if ci.ConfidenceLevel != 0.95 {
		t.Fatalf("level = %v", ci.ConfidenceLevel)
	}
}
