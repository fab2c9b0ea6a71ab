package sections

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// RepairPolicy is the tunable part of repair detection. The block floor is
// an empirically tuned heuristic, so it lives in config rather than code.
type RepairPolicy struct {
	MinActionBlocks int
}

func DefaultRepairPolicy() RepairPolicy {
	return RepairPolicy{MinActionBlocks: 3}
}

// Report carries the repair verdict alongside a parsed document.
type Report struct {
	NeedsRepair bool   `json:"needs_repair"`
	Reason      string `json:"reason,omitempty"`
}

var aliasTable = map[string]string{
	"best option":        KeyBest,
	"best":               KeyBest,
	"recommendation":     KeyBest,
	"recommended option": KeyBest,
	"decision":           KeyBest,
	"verdict":            KeyBest,

	"rationale":     KeyRationale,
	"reasoning":     KeyRationale,
	"why":           KeyRationale,
	"justification": KeyRationale,

	"top risks": KeyRisks,
	"risks":     KeyRisks,
	"key risks": KeyRisks,
	"risk":      KeyRisks,

	"assumptions to validate": KeyAssumptions,
	"assumptions":             KeyAssumptions,
	"key assumptions":         KeyAssumptions,

	"half-life":          KeyHalfLife,
	"half life":          KeyHalfLife,
	"decision half-life": KeyHalfLife,

	"blind spots": KeyBlindSpots,
	"blindspots":  KeyBlindSpots,
	"blind-spots": KeyBlindSpots,

	"next actions": KeyNextActions,
	"next steps":   KeyNextActions,
	"action items": KeyNextActions,
	"actions":      KeyNextActions,
}

var (
	headingMarkRe = regexp.MustCompile(`^\s*#{1,6}\s+`)
	numberingRe   = regexp.MustCompile(`^\s*\d{1,2}[.)]\s+`)
	bulletRe      = regexp.MustCompile(`^\s*(?:[-*•]\s+|\d{1,2}[.)]\s+|\[[^\]]{1,16}\]\s*)`)
	separatorRe   = regexp.MustCompile(`^\s*[-=_]{3,}\s*$`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// normalizeHeader reduces a candidate header line to its bare phrase:
// markdown decoration, numbering, brackets, trailing colon/dash stripped,
// case folded, whitespace collapsed.
func normalizeHeader(line string) string {
	s := headingMarkRe.ReplaceAllString(line, "")
	s = numberingRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimRight(s, ":-– ")
	s = strings.Trim(s, "*_`")
	s = spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	return s
}

func headerLike(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if len(trimmed) <= 48 {
		return true
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**") {
		return true
	}
	return isAllCaps(trimmed)
}

func isAllCaps(s string) bool {
	sawLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			sawLetter = true
		}
	}
	return sawLetter
}

// headerKey reports the canonical key for a line that reads as a section
// header, or "" when the line is ordinary content.
func headerKey(line string) string {
	if !headerLike(line) {
		return ""
	}
	norm := normalizeHeader(line)
	if norm == "" {
		return ""
	}
	return aliasTable[norm]
}

// bannerLike marks generic title/banner lines in the preamble: short,
// decorated or few-worded, and not a sentence.
func bannerLike(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || separatorRe.MatchString(trimmed) {
		return true
	}
	if len(trimmed) > 70 {
		return false
	}
	if strings.Contains(trimmed, ". ") {
		return false
	}
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "**") || isAllCaps(trimmed) {
		return true
	}
	return len(strings.Fields(trimmed)) <= 6 && !strings.HasSuffix(trimmed, ".")
}

const preambleWindow = 8

// Parse recovers a canonical document from free-form model output.
// Empty input yields an empty document with nothing to repair.
func Parse(text string, policy RepairPolicy) (*Document, Report) {
	doc := NewDocument()
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lines = stripPreamble(lines)

	type bucket struct {
		key   string
		lines []string
	}
	var buckets []*bucket
	byKey := make(map[string]*bucket)
	current := &bucket{key: KeyRaw}
	buckets = append(buckets, current)
	byKey[KeyRaw] = current

	for _, line := range lines {
		if separatorRe.MatchString(line) {
			continue
		}
		if key := headerKey(line); key != "" {
			if existing, ok := byKey[key]; ok {
				current = existing
			} else {
				current = &bucket{key: key}
				buckets = append(buckets, current)
				byKey[key] = current
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		current.lines = append(current.lines, strings.TrimRight(line, " \t"))
	}

	sawHeader := len(buckets) > 1
	for _, b := range buckets {
		if len(b.lines) == 0 {
			continue
		}
		switch {
		case b.key == KeyNextActions:
			doc.Actions = parseActionBlocks(b.lines)
			for _, block := range doc.Actions {
				if block.Action != "" {
					doc.Append(KeyNextActions, block.Action)
				}
			}
			if !doc.Has(KeyNextActions) && len(doc.Actions) > 0 {
				// Keep the key visible even when every block lacks action text.
				doc.Append(KeyNextActions, "")
			}
		case b.key == KeyRaw && !sawHeader:
			doc.Append(KeyRaw, extractItems(b.lines)...)
		case b.key == KeyRaw:
			for _, line := range b.lines {
				doc.Append(KeyRaw, strings.TrimSpace(line))
			}
		default:
			doc.Append(b.key, extractItems(b.lines)...)
		}
	}

	return doc, evaluateRepair(text, doc, policy)
}

// stripPreamble drops leading banner lines until a recognized header or a
// substantive sentence appears, scanning at most the first few non-empty
// lines.
func stripPreamble(lines []string) []string {
	seen := 0
	idx := 0
	for idx < len(lines) && seen < preambleWindow {
		line := lines[idx]
		if strings.TrimSpace(line) == "" {
			idx++
			continue
		}
		seen++
		if headerKey(line) != "" {
			break
		}
		if bannerLike(line) {
			idx++
			continue
		}
		break
	}
	return lines[idx:]
}

// extractItems turns a bucket's raw lines into section items: bullets when
// present, with plain continuation lines folded into the previous item, and
// a sentence split as the fallback for prose-only buckets.
func extractItems(lines []string) []string {
	var items []string
	var prose []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if bulletRe.MatchString(trimmed) {
			items = append(items, strings.TrimSpace(bulletRe.ReplaceAllString(trimmed, "")))
			continue
		}
		if len(items) > 0 {
			items[len(items)-1] = items[len(items)-1] + " " + trimmed
			continue
		}
		prose = append(prose, trimmed)
	}
	if len(items) >= 2 {
		return items
	}
	joined := strings.Join(prose, " ")
	if len(items) < 2 && len(joined) > 40 {
		return append(items, splitSentences(joined)...)
	}
	if joined != "" {
		items = append(items, joined)
	}
	return items
}

var sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)

func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\n")
	var out []string
	for _, part := range strings.Split(marked, "\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func evaluateRepair(input string, doc *Document, policy RepairPolicy) Report {
	if strings.TrimSpace(input) == "" {
		return Report{}
	}
	for _, block := range doc.Actions {
		if block.Action == "" {
			return Report{NeedsRepair: true, Reason: "next-actions block has no action text"}
		}
	}
	for _, block := range doc.Actions {
		if block.Owner == "" || block.Timebox == "" {
			return Report{NeedsRepair: true, Reason: "next-actions block missing owner or timebox"}
		}
	}
	if policy.MinActionBlocks > 0 && len(doc.Actions) < policy.MinActionBlocks {
		return Report{
			NeedsRepair: true,
			Reason:      fmt.Sprintf("next-actions has %d blocks, below the %d floor", len(doc.Actions), policy.MinActionBlocks),
		}
	}
	return Report{}
}
