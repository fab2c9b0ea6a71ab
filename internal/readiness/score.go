// Package readiness scores decision reports for structural completeness.
// The scorer is deterministic: it starts at 100 and subtracts fixed
// penalties, so the same text always produces the same score and the same
// repair verdict.
package readiness

import (
	"fmt"
	"regexp"
	"strings"
)

type ScoreResult struct {
	Score            int    `json:"score"`
	MustRepair       bool   `json:"must_repair"`
	FinishReasonHint string `json:"finish_reason_hint"`

	MissingHeaders   []string `json:"missing_headers"`
	EmptySections    []string `json:"empty_sections"`
	DuplicateHeaders []string `json:"duplicate_headers"`

	NextActionsCount int  `json:"next_actions_count"`
	NextActionsOK    bool `json:"next_actions_ok"`

	TruncationSuspected bool     `json:"truncation_suspected"`
	Notes               []string `json:"notes"`

	Quality    QualityMetrics     `json:"quality_metrics"`
	Confidence ConfidenceInterval `json:"confidence_interval"`
}

type QualityMetrics struct {
	Clarity       float64 `json:"clarity_score"`
	Specificity   float64 `json:"specificity_score"`
	Actionability float64 `json:"actionability_score"`
	Completeness  float64 `json:"completeness_score"`
	Overall       float64 `json:"overall_quality"`
}

type ConfidenceInterval struct {
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

type Config struct {
	RequiredHeaders      []string
	MinNextActions       int
	EnableQualityMetrics bool
}

func DefaultConfig() Config {
	return Config{
		RequiredHeaders: []string{
			"BEST OPTION",
			"RATIONALE",
			"TOP RISKS",
			"ASSUMPTIONS TO VALIDATE",
			"HALF-LIFE",
			"BLIND SPOTS",
			"NEXT ACTIONS",
		},
		MinNextActions:       6,
		EnableQualityMetrics: true,
	}
}

// ScoreReportText validates a report against the canonical template.
// Penalties: 12 per missing header, 8 per empty section, 6 per duplicate
// header, 10 plus 3 per missing action for a short NEXT ACTIONS list, and 12
// when the text looks cut off. The result clamps to [0, 100].
func ScoreReportText(input string, cfg Config) ScoreResult {
	cleaned := cleanModelText(input)
	norm := normalizeForHeaders(cleaned)

	missing, dupes, empty := evaluateHeaders(norm, cfg.RequiredHeaders)

	nextActions := countNextActions(norm)
	nextActionsOK := nextActions >= cfg.MinNextActions

	truncated := looksTruncated(cleaned)

	score := 100
	var notes []string

	if len(missing) > 0 {
		p := len(missing) * 12
		score -= p
		notes = append(notes, fmt.Sprintf("Missing headers penalty: -%d", p))
	}
	if len(empty) > 0 {
		p := len(empty) * 8
		score -= p
		notes = append(notes, fmt.Sprintf("Empty sections penalty: -%d", p))
	}
	if len(dupes) > 0 {
		p := len(dupes) * 6
		score -= p
		notes = append(notes, fmt.Sprintf("Duplicate headers penalty: -%d", p))
	}
	if !nextActionsOK {
		deficit := cfg.MinNextActions - nextActions
		if deficit < 0 {
			deficit = 0
		}
		p := 10 + deficit*3
		score -= p
		notes = append(notes, fmt.Sprintf("NEXT ACTIONS count too low (%d), penalty: -%d", nextActions, p))
	}
	if truncated {
		score -= 12
		notes = append(notes, "Truncation suspected penalty: -12")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var quality QualityMetrics
	if cfg.EnableQualityMetrics {
		quality = qualityMetrics(cleaned)
	}
	confidence := confidenceInterval(float64(score), quality)

	mustRepair := len(missing) > 0 || !nextActionsOK || (truncated && score < 92)

	hint := "OK"
	switch {
	case truncated:
		hint = "LIKELY_TRUNCATED"
	case mustRepair:
		hint = "INCOMPLETE_STRUCTURE"
	}

	return ScoreResult{
		Score:               score,
		MustRepair:          mustRepair,
		FinishReasonHint:    hint,
		MissingHeaders:      missing,
		EmptySections:       empty,
		DuplicateHeaders:    dupes,
		NextActionsCount:    nextActions,
		NextActionsOK:       nextActionsOK,
		TruncationSuspected: truncated,
		Notes:               notes,
		Quality:             quality,
		Confidence:          confidence,
	}
}

var (
	mdHeadRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	mdSepRe     = regexp.MustCompile(`(?m)^\s*[-=_]{3,}\s*$`)
	colonHeadRe = regexp.MustCompile(`(?m)^\s*([A-Z][A-Z0-9 \-]{2,})\s*:\s*$`)
	listItemRe  = regexp.MustCompile(`(?m)^\s*[-*]\s+\S+`)
	numItemRe   = regexp.MustCompile(`(?m)^\s*\d{1,2}[.)]\s+\S+`)
	wordRe      = regexp.MustCompile(`[A-Z0-9]{2,}`)
)

// cleanModelText strips markdown scaffolding that models wrap reports in:
// code fences, heading marks, separator rules, trailing whitespace.
func cleanModelText(s string) string {
	out := strings.ReplaceAll(s, "\r\n", "\n")
	out = strings.ReplaceAll(out, "```", "")
	out = mdHeadRe.ReplaceAllString(out, "")
	out = mdSepRe.ReplaceAllString(out, "")

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// normalizeForHeaders folds bullet glyphs and case so header matching sees
// one canonical form.
func normalizeForHeaders(s string) string {
	out := strings.ReplaceAll(s, "•", "- ")
	out = strings.ReplaceAll(out, "–", "- ")
	out = strings.ReplaceAll(out, "—", "- ")
	out = colonHeadRe.ReplaceAllString(out, "${1}:")
	return strings.ToUpper(out)
}

func evaluateHeaders(norm string, required []string) (missing, dupes, empty []string) {
	missing = []string{}
	dupes = []string{}
	empty = []string{}

	escaped := make([]string, len(required))
	for i, h := range required {
		escaped[i] = regexp.QuoteMeta(h)
	}
	anyHeaderRe := regexp.MustCompile(`(?m)^\s*(` + strings.Join(escaped, "|") + `)\s*:?\s*$`)

	for _, h := range required {
		headerRe := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(h) + `\s*:?\s*$`)
		matches := headerRe.FindAllStringIndex(norm, -1)

		if len(matches) == 0 {
			missing = append(missing, h)
			continue
		}
		if len(matches) > 1 {
			dupes = append(dupes, h)
		}

		after := norm[matches[0][1]:]
		end := len(after)
		if loc := anyHeaderRe.FindStringIndex(after); loc != nil {
			end = loc[0]
		}
		section := strings.TrimSpace(after[:end])

		if section == "" || section == ":" {
			empty = append(empty, h)
			continue
		}
		hasList := listItemRe.MatchString(section) || numItemRe.MatchString(section)
		if !hasList && len(wordRe.FindAllString(section, -1)) < 1 {
			empty = append(empty, h)
		}
	}
	return missing, dupes, empty
}

var (
	nextActionsHeadRe = regexp.MustCompile(`(?m)^\s*NEXT ACTIONS\s*:?\s*$`)
	nextActionsStopRe = regexp.MustCompile(`(?m)^\s*(BEST OPTION|RATIONALE|TOP RISKS|ASSUMPTIONS TO VALIDATE|ASSUMPTIONS|HALF-LIFE|BLIND SPOTS)\s*:?\s*$`)
)

func countNextActions(norm string) int {
	loc := nextActionsHeadRe.FindStringIndex(norm)
	if loc == nil {
		return 0
	}
	after := norm[loc[1]:]
	end := len(after)
	if stop := nextActionsStopRe.FindStringIndex(after); stop != nil {
		end = stop[0]
	}
	section := strings.TrimSpace(after[:end])
	if section == "" {
		return 0
	}
	bullets := len(listItemRe.FindAllString(section, -1))
	nums := len(numItemRe.FindAllString(section, -1))
	if nums > bullets {
		return nums
	}
	return bullets
}

// looksTruncated flags text that ends mid-structure: dangling bullets,
// unfinished punctuation, or a stub of a last line on longer reports.
func looksTruncated(cleaned string) bool {
	t := strings.TrimRight(cleaned, " \t\n")
	if t == "" {
		return true
	}
	badEndings := []string{"...", "…", "```", "**", "__", "- ", "* ", "1.", "2.", "3."}
	for _, ending := range badEndings {
		if strings.HasSuffix(t, ending) {
			return true
		}
	}
	switch t[len(t)-1] {
	case '(', ':', ',':
		return true
	}
	lines := strings.Split(t, "\n")
	if len(lines) >= 10 {
		if last := strings.TrimSpace(lines[len(lines)-1]); len(last) <= 3 {
			return true
		}
	}
	return false
}
