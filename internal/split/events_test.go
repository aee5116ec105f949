package split

import (
	"context"
	"testing"
)

func TestBusFanOutAndCancel(t *testing.T) {
	bus := NewBus()

	var got []string
	cancel := bus.Subscribe(func(_ context.Context, ev SplitChanged) {
		got = append(got, ev.ReceiptID)
	})
	bus.Publish(context.Background(), SplitChanged{ReceiptID: "rcpt-1"})
	if len(got) != 1 || got[0] != "rcpt-1" {
		t.Fatalf("got %v", got)
	}

	cancel()
	bus.Publish(context.Background(), SplitChanged{ReceiptID: "rcpt-2"})
	if len(got) != 1 {
		t.Fatalf("cancelled subscriber still delivered: %v", got)
	}
}
