package split

import (
	"strings"
	"testing"
)

func TestBuildKeys(t *testing.T) {
	items := testItems(t)
	keys := BuildKeys(items)

	if got, _ := keys.ForIndex(0); got != "itm-1" {
		t.Fatalf("index 0 key = %q, want itm-1", got)
	}
	if got, _ := keys.ForIndex(1); got != "local-item-1" {
		t.Fatalf("index 1 key = %q, want local-item-1", got)
	}
	if keys.Len() != 3 {
		t.Fatalf("len = %d, want 3", keys.Len())
	}
}

func TestBuildKeysEmpty(t *testing.T) {
	keys := BuildKeys(nil)
	if keys.Len() != 0 {
		t.Fatalf("len = %d, want 0", keys.Len())
	}
	if got := keys.Keys(); len(got) != 0 {
		t.Fatalf("keys = %v, want empty", got)
	}
}

func TestKeyMapStableAcrossRedecode(t *testing.T) {
	first := BuildKeys(testItems(t))
	// A fresh decode produces equal-looking but distinct item values.
	second := testItems(t)
	for i, item := range second {
		want, _ := first.ForIndex(i)
		if got := first.ForItem(item); got != want {
			t.Fatalf("item %d resolved to %q, want %q", i, got, want)
		}
	}
}

func TestKeyForUnknownItemFallsBack(t *testing.T) {
	keys := BuildKeys(testItems(t))

	withBackendID := LineItem{SourceIndex: 99, BackendItemID: "itm-stray"}
	if got := keys.ForItem(withBackendID); got != "itm-stray" {
		t.Fatalf("got %q, want backend id", got)
	}

	orphan := LineItem{SourceIndex: 99}
	got := keys.ForItem(orphan)
	if !strings.HasPrefix(got, "orphan-item-") {
		t.Fatalf("orphan key = %q, want orphan-item- prefix", got)
	}
	if again := keys.ForItem(orphan); again == got {
		t.Fatalf("orphan keys must be unique per resolution, got %q twice", got)
	}
}
