package split

import "testing"

func TestNewRegistrySeedsSelf(t *testing.T) {
	reg := NewRegistry("Sam")
	self := reg.Self()
	if !self.IsSelf {
		t.Fatal("self participant not marked")
	}
	if self.DisplayOrder != 0 {
		t.Fatalf("self display order = %d, want 0", self.DisplayOrder)
	}
	if self.Name != "Sam" {
		t.Fatalf("self name = %q", self.Name)
	}
	if self.ColorToken == "" {
		t.Fatal("self has no color token")
	}
}

func TestNewRegistryDefaultsSelfName(t *testing.T) {
	reg := NewRegistry("   ")
	if got := reg.Self().Name; got != "You" {
		t.Fatalf("self name = %q, want You", got)
	}
}

func TestAddAssignsOrderAndColor(t *testing.T) {
	reg := NewRegistry("Sam")
	first, err := reg.Add("Alex")
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.Add("Robin")
	if err != nil {
		t.Fatal(err)
	}
	if first.DisplayOrder != 1 || second.DisplayOrder != 2 {
		t.Fatalf("orders = %d, %d", first.DisplayOrder, second.DisplayOrder)
	}
	if first.ColorToken == second.ColorToken {
		t.Fatalf("adjacent participants share color %q", first.ColorToken)
	}
	if _, err := reg.Add("  "); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestAddDeterministicColors(t *testing.T) {
	a := NewRegistry("Sam")
	b := NewRegistry("Sam")
	for _, name := range []string{"Alex", "Robin", "Jo"} {
		pa, _ := a.Add(name)
		pb, _ := b.Add(name)
		if pa.ColorToken != pb.ColorToken {
			t.Fatalf("same add sequence diverged: %q vs %q", pa.ColorToken, pb.ColorToken)
		}
	}
}

func TestRemoveCompactsOrders(t *testing.T) {
	reg := NewRegistry("Sam")
	alex, _ := reg.Add("Alex")
	reg.Add("Robin")

	if !reg.Remove(alex.ID) {
		t.Fatal("remove failed")
	}
	for i, p := range reg.Participants() {
		if p.DisplayOrder != i {
			t.Fatalf("participant %q order = %d, want %d", p.Name, p.DisplayOrder, i)
		}
	}
}

func TestRemoveSelfIsRejected(t *testing.T) {
	reg := NewRegistry("Sam")
	if reg.Remove(reg.Self().ID) {
		t.Fatal("self was removed")
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d, want 1", reg.Len())
	}
	if reg.Remove("no-such-id") {
		t.Fatal("unknown id reported removed")
	}
}

func TestContainsIgnoresCase(t *testing.T) {
	reg := NewRegistry("Sam")
	p, _ := reg.Add("Alex")
	upper := stringsToUpper(p.ID)
	if !reg.Contains(upper) {
		t.Fatalf("id %q not found case-insensitively", upper)
	}
	if idx, ok := reg.IndexOf(upper); !ok || idx != 1 {
		t.Fatalf("IndexOf(%q) = %d, %v", upper, idx, ok)
	}
}

func TestReplaceRequiresExactlyOneSelf(t *testing.T) {
	reg := NewRegistry("Sam")
	err := reg.Replace([]Participant{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	})
	if err == nil {
		t.Fatal("replace without a self participant succeeded")
	}
	err = reg.Replace([]Participant{
		{ID: "a", Name: "A", IsSelf: true},
		{ID: "b", Name: "B"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if reg.Self().ID != "a" {
		t.Fatalf("self = %q, want a", reg.Self().ID)
	}
}
