package mesh

import (
	"testing"
	"time"
)

func TestRepositoryInsertGetRemove(t *testing.T) {
	r := NewRepository()
	ctx := MeshContext{MeshId: 1, WorkstationName: "host-a"}
	r.Insert(ctx)

	got, ok := r.Get(1)
	if !ok || got.WorkstationName != "host-a" {
		t.Fatalf("expected to find inserted peer, got %+v ok=%v", got, ok)
	}

	removed, ok := r.Remove(1)
	if !ok || removed.MeshId != 1 {
		t.Fatalf("expected Remove to return the peer, got %+v ok=%v", removed, ok)
	}

	if _, ok := r.Get(1); ok {
		t.Fatal("peer should no longer be present after Remove")
	}
}

func TestRepositoryExpiredBeforeExcludesSelf(t *testing.T) {
	r := NewRepository()
	old := time.Now().Add(-time.Hour)
	r.Insert(MeshContext{MeshId: 1, Self: true, LastSeen: old})
	r.Insert(MeshContext{MeshId: 2, Self: false, LastSeen: old})

	expired := r.ExpiredBefore(time.Now())
	if len(expired) != 1 || expired[0].MeshId != 2 {
		t.Fatalf("expected only the non-self peer to be reported expired, got %+v", expired)
	}
}

func TestRepositoryTouchUpdatesExistingPeerOnly(t *testing.T) {
	r := NewRepository()
	r.Insert(MeshContext{MeshId: 1, WorkstationName: "host-a"})

	if !r.Touch(1, MeshContext{MeshId: 1, WorkstationName: "host-a-renamed"}) {
		t.Fatal("expected Touch to report the peer as known")
	}
	got, _ := r.Get(1)
	if got.WorkstationName != "host-a-renamed" {
		t.Fatalf("expected Touch to update the stored record, got %+v", got)
	}

	if r.Touch(2, MeshContext{MeshId: 2}) {
		t.Fatal("expected Touch to report an unknown peer as absent")
	}
	if _, ok := r.Get(2); ok {
		t.Fatal("Touch must not insert an unknown peer")
	}
}

func TestRepositorySnapshotIsACopy(t *testing.T) {
	r := NewRepository()
	r.Insert(MeshContext{MeshId: 1})
	snap := r.Snapshot()
	snap[0].MeshId = 99
	got, _ := r.Get(1)
	if got.MeshId != 1 {
		t.Fatal("mutating a snapshot entry must not affect the repository")
	}
}
