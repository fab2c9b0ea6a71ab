// Package sections turns free-form inference output into the canonical
// decision-report document: a fixed set of named sections plus the
// action-block checklist under next-actions.
package sections

import (
	"encoding/json"
	"strings"
)

const (
	KeyBest        = "best"
	KeyRationale   = "rationale"
	KeyRisks       = "risks"
	KeyAssumptions = "assumptions"
	KeyHalfLife    = "half-life"
	KeyBlindSpots  = "blind-spots"
	KeyNextActions = "next-actions"

	// KeyRaw holds un-sectioned content: preamble remainders and, when no
	// header was detected at all, the entire answer.
	KeyRaw = "raw"
)

// CanonicalKeys is the render order for a recovered document.
var CanonicalKeys = []string{
	KeyBest, KeyRationale, KeyRisks, KeyAssumptions,
	KeyHalfLife, KeyBlindSpots, KeyNextActions,
}

var displayNames = map[string]string{
	KeyBest:        "BEST OPTION",
	KeyRationale:   "RATIONALE",
	KeyRisks:       "TOP RISKS",
	KeyAssumptions: "ASSUMPTIONS TO VALIDATE",
	KeyHalfLife:    "HALF-LIFE",
	KeyBlindSpots:  "BLIND SPOTS",
	KeyNextActions: "NEXT ACTIONS",
}

// ActionBlock is one checklist entry from the next-actions section.
type ActionBlock struct {
	Action  string `json:"action"`
	Owner   string `json:"owner"`
	Timebox string `json:"timebox"`
}

func (b ActionBlock) Complete() bool {
	return b.Action != "" && b.Owner != "" && b.Timebox != ""
}

// Document is an ordered mapping from canonical section keys to content.
// A key appears at most once; appending to an existing key extends it.
type Document struct {
	order   []string
	items   map[string][]string
	Actions []ActionBlock
}

func NewDocument() *Document {
	return &Document{items: make(map[string][]string)}
}

func (d *Document) Append(key string, items ...string) {
	if len(items) == 0 {
		return
	}
	if d.items == nil {
		d.items = make(map[string][]string)
	}
	if _, seen := d.items[key]; !seen {
		d.order = append(d.order, key)
	}
	d.items[key] = append(d.items[key], items...)
}

func (d *Document) Get(key string) []string {
	if d == nil {
		return nil
	}
	return d.items[key]
}

func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.items[key]
	return ok
}

// Keys returns section keys in first-appearance order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Document) Empty() bool {
	return d == nil || (len(d.items) == 0 && len(d.Actions) == 0)
}

type documentJSON struct {
	Keys        []string            `json:"keys"`
	Sections    map[string][]string `json:"sections"`
	NextActions []ActionBlock       `json:"next_actions,omitempty"`
	Complete    []bool              `json:"next_actions_complete,omitempty"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		Keys:        d.Keys(),
		Sections:    make(map[string][]string, len(d.items)),
		NextActions: d.Actions,
	}
	for key, items := range d.items {
		out.Sections[key] = items
	}
	for _, block := range d.Actions {
		out.Complete = append(out.Complete, block.Complete())
	}
	return json.Marshal(out)
}

// Render re-serializes the document in the normalized header + bullet shape.
// Parsing the rendered text again yields an equivalent document, which is
// what the repair pass relies on.
func (d *Document) Render() string {
	if d.Empty() {
		return ""
	}
	var out strings.Builder
	for _, line := range d.Get(KeyRaw) {
		out.WriteString(line)
		out.WriteString("\n")
	}
	for _, key := range CanonicalKeys {
		if key == KeyNextActions {
			continue
		}
		items := d.Get(key)
		if len(items) == 0 {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString("## " + displayNames[key] + "\n")
		for _, item := range items {
			out.WriteString("- " + item + "\n")
		}
	}
	if len(d.Actions) > 0 {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString("## " + displayNames[KeyNextActions] + "\n")
		for _, block := range d.Actions {
			out.WriteString("Action: " + block.Action + "\n")
			if block.Owner != "" {
				out.WriteString("Owner: " + block.Owner + "\n")
			}
			if block.Timebox != "" {
				out.WriteString("Timebox: " + block.Timebox + "\n")
			}
		}
	}
	return out.String()
}
