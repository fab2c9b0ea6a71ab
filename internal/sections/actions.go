package sections

import (
	"regexp"
	"strings"
)

var actionLabelRe = regexp.MustCompile(`(?i)^(action|owner|timebox)\s*[:\-]\s*(.*)$`)

// parseActionBlocks scans a next-actions bucket for Action/Owner/Timebox
// labeled fields. A new Action label starts a new block; an unlabeled line
// fills the open block's action text when it has none, otherwise it is
// surrounding context and dropped. Blocks with at least one non-empty field
// are kept.
func parseActionBlocks(lines []string) []ActionBlock {
	var blocks []ActionBlock
	var current *ActionBlock

	flush := func() {
		if current == nil {
			return
		}
		if current.Action != "" || current.Owner != "" || current.Timebox != "" {
			blocks = append(blocks, *current)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if trimmed == "" {
			continue
		}
		match := actionLabelRe.FindStringSubmatch(trimmed)
		if match == nil {
			if current != nil && current.Action == "" {
				current.Action = trimmed
			}
			continue
		}
		label := strings.ToLower(match[1])
		value := strings.TrimSpace(match[2])
		switch label {
		case "action":
			flush()
			current = &ActionBlock{Action: value}
		case "owner":
			if current == nil {
				current = &ActionBlock{}
			}
			if current.Owner == "" {
				current.Owner = value
			}
		case "timebox":
			if current == nil {
				current = &ActionBlock{}
			}
			if current.Timebox == "" {
				current.Timebox = value
			}
		}
	}
	flush()
	return blocks
}
