package notify

import (
	"testing"
	"time"
)

func TestCenter_LatestWinsAndExpires(t *testing.T) {
	c := NewCenter()
	if _, ok := c.Current(); ok {
		t.Fatalf("expected no notice initially")
	}
	c.Info("first")
	c.Error("Failed to delete category")
	n, ok := c.Current()
	if !ok || n.Message != "Failed to delete category" || n.Severity != Error {
		t.Fatalf("unexpected notice %+v", n)
	}
	if c.Expire(n.At.Add(time.Second), 6*time.Second) {
		t.Fatalf("expected notice to survive before ttl")
	}
	if !c.Expire(n.At.Add(7*time.Second), 6*time.Second) {
		t.Fatalf("expected notice to expire after ttl")
	}
	c.Success("done")
	c.Dismiss()
	if _, ok := c.Current(); ok {
		t.Fatalf("expected dismissed")
	}
}
