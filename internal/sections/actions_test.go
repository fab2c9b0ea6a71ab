package sections

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseActionBlocksLabeledFields(t *testing.T) {
	lines := []string{
		"Action: Validate pricing assumption",
		"Owner: Priya",
		"Timebox: 3 days",
		"Action: Draft rollback plan",
		"Owner: Sam",
		"Timebox: 1 week",
	}
	got := parseActionBlocks(lines)
	want := []ActionBlock{
		{Action: "Validate pricing assumption", Owner: "Priya", Timebox: "3 days"},
		{Action: "Draft rollback plan", Owner: "Sam", Timebox: "1 week"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks = %+v", got)
	}
}

func TestParseActionBlocksUnlabeledLineFillsAction(t *testing.T) {
	lines := []string{
		"Action:",
		"Call the vendor about renewal terms",
		"Owner: Max",
		"this trailing context should be dropped",
		"Timebox: 2 days",
	}
	got := parseActionBlocks(lines)
	if len(got) != 1 {
		t.Fatalf("blocks = %+v", got)
	}
	if got[0].Action != "Call the vendor about renewal terms" {
		t.Fatalf("action = %q", got[0].Action)
	}
	if got[0].Owner != "Max" || got[0].Timebox != "2 days" {
		t.Fatalf("fields = %+v", got[0])
	}
}

func TestParseActionBlocksBulletedLabels(t *testing.T) {
	lines := []string{
		"- Action: Ship the fix",
		"- Owner: Ona",
		"- Timebox: today",
	}
	got := parseActionBlocks(lines)
	if len(got) != 1 || !got[0].Complete() {
		t.Fatalf("blocks = %+v", got)
	}
}

func TestParseActionBlocksDiscardsEmpty(t *testing.T) {
	if got := parseActionBlocks([]string{"Action:", "Owner:", "Timebox:"}); len(got) != 0 {
		t.Fatalf("empty block kept: %+v", got)
	}
	if got := parseActionBlocks(nil); len(got) != 0 {
		t.Fatalf("blocks from nothing: %+v", got)
	}
}

func TestParseActionBlocksOwnerWithoutAction(t *testing.T) {
	got := parseActionBlocks([]string{"Owner: Jess", "Timebox: 1 day"})
	if len(got) != 1 {
		t.Fatalf("blocks = %+v", got)
	}
	if got[0].Action != "" || got[0].Complete() {
		t.Fatalf("block = %+v", got[0])
	}
}

func TestRepairVerdicts(t *testing.T) {
	threeComplete := strings.Join([]string{
		"## NEXT ACTIONS",
		"Action: one", "Owner: a", "Timebox: 1d",
		"Action: two", "Owner: b", "Timebox: 2d",
		"Action: three", "Owner: c", "Timebox: 3d",
	}, "\n")
	if _, report := Parse(threeComplete, DefaultRepairPolicy()); report.NeedsRepair {
		t.Fatalf("three complete blocks should not need repair: %q", report.Reason)
	}

	missingOwner := "## NEXT ACTIONS\nAction: one\nTimebox: 1d\nAction: two\nOwner: b\nTimebox: 2d\nAction: three\nOwner: c\nTimebox: 3d"
	if _, report := Parse(missingOwner, DefaultRepairPolicy()); !report.NeedsRepair || !strings.Contains(report.Reason, "owner") {
		t.Fatalf("expected owner repair, got %+v", report)
	}

	ownerOnly := "## NEXT ACTIONS\nOwner: Jess\nOwner: Kim\nOwner: Lou"
	if _, report := Parse(ownerOnly, DefaultRepairPolicy()); !report.NeedsRepair || !strings.Contains(report.Reason, "action") {
		t.Fatalf("expected missing-action repair, got %+v", report)
	}

	relaxed := RepairPolicy{MinActionBlocks: 1}
	oneBlock := "## NEXT ACTIONS\nAction: only\nOwner: a\nTimebox: 1d"
	if _, report := Parse(oneBlock, relaxed); report.NeedsRepair {
		t.Fatalf("relaxed policy should accept one block: %+v", report)
	}
}
