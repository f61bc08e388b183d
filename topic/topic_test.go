package topic

import "testing"

func TestHashIsStable(t *testing.T) {
	a := Hash("orders.create")
	b := Hash("orders.create")
	if a != b {
		t.Fatalf("hash not stable across calls: %d != %d", a, b)
	}
}

func TestHashDiscriminates(t *testing.T) {
	if Hash("orders.create") == Hash("orders.cancel") {
		t.Fatal("distinct names hashed to the same topic")
	}
}
