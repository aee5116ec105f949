package split

import (
	"strings"
	"testing"

	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
)

func stringsToUpper(s string) string { return strings.ToUpper(s) }

func TestToggleFlipsMembership(t *testing.T) {
	a := NewAssignments([]string{"itm-1", "itm-2"})

	if err := a.Toggle("itm-1", "P-Alice"); err != nil {
		t.Fatal(err)
	}
	if !a.Contains("itm-1", "p-alice") {
		t.Fatal("membership not visible under folded id")
	}
	if err := a.Toggle("itm-1", "p-ALICE"); err != nil {
		t.Fatal(err)
	}
	if a.Contains("itm-1", "P-Alice") {
		t.Fatal("second toggle with different casing did not remove")
	}
}

func TestToggleUnknownItemKey(t *testing.T) {
	a := NewAssignments([]string{"itm-1"})
	err := a.Toggle("itm-404", "p-1")
	if err == nil {
		t.Fatal("unknown item key accepted")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeInvariant {
		t.Fatalf("got %v, want invariant violation", err)
	}
}

func TestAssignAllAndRemoveParticipant(t *testing.T) {
	a := NewAssignments([]string{"itm-1", "itm-2"})
	a.AssignAll([]string{"p-1", "P-2"})

	if n := a.AssigneeCount("itm-2"); n != 2 {
		t.Fatalf("assignees = %d, want 2", n)
	}
	a.RemoveParticipant("p-2")
	for _, key := range a.ItemKeys() {
		if a.Contains(key, "p-2") {
			t.Fatalf("p-2 still on %s after removal", key)
		}
	}
}

func TestFullyAssigned(t *testing.T) {
	a := NewAssignments([]string{"itm-1", "itm-2"})
	if a.FullyAssigned() {
		t.Fatal("empty store reported fully assigned")
	}
	if err := a.Assign("itm-1", "p-1"); err != nil {
		t.Fatal(err)
	}
	if a.FullyAssigned() {
		t.Fatal("one uncovered item but reported fully assigned")
	}
	if err := a.Assign("itm-2", "p-1"); err != nil {
		t.Fatal(err)
	}
	if !a.FullyAssigned() {
		t.Fatal("full coverage not reported")
	}

	if !NewAssignments(nil).FullyAssigned() {
		t.Fatal("zero items must be trivially fully assigned")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewAssignments([]string{"itm-1"})
	if err := a.Assign("itm-1", "p-1"); err != nil {
		t.Fatal(err)
	}
	clone := a.Clone()
	if err := clone.Assign("itm-1", "p-2"); err != nil {
		t.Fatal(err)
	}
	if a.Contains("itm-1", "p-2") {
		t.Fatal("mutating the clone leaked into the original")
	}
}

func TestSnapshotCoversAllKeys(t *testing.T) {
	a := NewAssignments([]string{"itm-1", "itm-2"})
	if err := a.Assign("itm-1", "p-1"); err != nil {
		t.Fatal(err)
	}
	snap := a.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot keys = %d, want 2", len(snap))
	}
	if len(snap["itm-1"]) != 1 || snap["itm-1"][0] != "p-1" {
		t.Fatalf("itm-1 assignees = %v", snap["itm-1"])
	}
	if len(snap["itm-2"]) != 0 {
		t.Fatalf("itm-2 assignees = %v, want empty", snap["itm-2"])
	}
}
