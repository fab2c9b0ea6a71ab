// Package salvage recovers JSON values from noisy generative output.
// Malformed provider text is an expected condition here, not an error:
// every entry point reports "no value" instead of failing.
package salvage

import (
	"encoding/json"
	"strings"
)

// Recover attempts, in order: a direct parse, the first fenced code block,
// the brace-delimited slice, and a textual repair of that slice. The first
// parse that succeeds wins; otherwise ok is false.
func Recover(text string) (any, bool) {
	raw, ok := recoverBytes(text)
	if !ok {
		return nil, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	return value, true
}

// RecoverInto is Recover with a typed destination.
func RecoverInto(text string, v any) bool {
	raw, ok := recoverBytes(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func recoverBytes(text string) ([]byte, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), true
	}
	if fenced, ok := firstFencedBlock(text); ok {
		if json.Valid([]byte(fenced)) {
			return []byte(fenced), true
		}
		// A fenced block is the strongest signal of intent; repairs apply
		// to it before the raw text is considered. A fence that yields
		// nothing does not end the search, since the surrounding text may
		// still carry a recoverable value.
		if repaired := repairText(fenced); json.Valid([]byte(repaired)) {
			return []byte(repaired), true
		}
		if raw, ok := sliceAndRepair(fenced); ok {
			return raw, true
		}
	}
	return sliceAndRepair(trimmed)
}

func sliceAndRepair(text string) ([]byte, bool) {
	slice, ok := braceSlice(text)
	if !ok {
		return nil, false
	}
	if json.Valid([]byte(slice)) {
		return []byte(slice), true
	}
	if repaired := repairText(slice); json.Valid([]byte(repaired)) {
		return []byte(repaired), true
	}
	return nil, false
}

func firstFencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// Optional language tag runs to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if !strings.ContainsAny(tag, "{}[]\"") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		end = len(rest)
	}
	block := strings.TrimSpace(rest[:end])
	if block == "" {
		return "", false
	}
	return block, true
}

// braceSlice prefers a balanced scan for the first complete object; when the
// text is truncated mid-object it falls back to first-{ .. last-} so the
// repair pass still gets something to chew on.
func braceSlice(text string) (string, bool) {
	if obj, ok := scanBalancedObject(text); ok {
		return obj, true
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return strings.TrimSpace(text[start : end+1]), true
}

func scanBalancedObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escape := false
	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
				inString = false
				escape = false
			}
			continue
		}
		if inString {
			if escape {
				escape = false
				continue
			}
			if r == '\\' {
				escape = true
				continue
			}
			if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start : i+1]), true
			}
		}
	}
	return "", false
}

// repairText applies the two repairs worth having against generative JSON:
// trailing commas before a closing brace/bracket, and single-quoted strings.
// It is string-aware so content inside double quotes is never touched.
func repairText(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	runes := []rune(text)
	inDouble := false
	escape := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inDouble {
			out.WriteRune(r)
			if escape {
				escape = false
				continue
			}
			if r == '\\' {
				escape = true
				continue
			}
			if r == '"' {
				inDouble = false
			}
			continue
		}
		switch r {
		case '"':
			inDouble = true
			out.WriteRune(r)
		case '\'':
			// Re-emit a single-quoted string as a double-quoted one.
			out.WriteRune('"')
			for i++; i < len(runes); i++ {
				c := runes[i]
				if c == '\\' && i+1 < len(runes) {
					next := runes[i+1]
					if next == '\'' {
						out.WriteRune('\'')
						i++
						continue
					}
					out.WriteRune(c)
					continue
				}
				if c == '\'' {
					break
				}
				if c == '"' {
					out.WriteString(`\"`)
					continue
				}
				out.WriteRune(c)
			}
			out.WriteRune('"')
		case ',':
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue // drop the trailing comma
			}
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
