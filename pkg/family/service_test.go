package family_test

import (
	"context"
	"errors"
	"testing"

	kberrors "github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

// plainStore hides memory.Store's SelfClearer so the sequential path runs.
type plainStore struct{ family.Store }

func countSelves(t *testing.T, s family.Store) int {
	t.Helper()
	members, err := s.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, m := range members {
		if m.IsSelf {
			n++
		}
	}
	return n
}

func TestSaveMemberSingleSelf(t *testing.T) {
	stores := map[string]family.Store{
		"atomic":     memory.New(family.Seed()),
		"sequential": plainStore{memory.New(family.Seed())},
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := family.NewService(store, nil)

			newbie := family.NewMember("Mia", "Daughter", family.Female)
			newbie.IsSelf = true
			if err := svc.SaveMember(ctx, newbie, false); err != nil {
				t.Fatalf("SaveMember(new self) error: %v", err)
			}
			if n := countSelves(t, store); n != 1 {
				t.Fatalf("selves after new self = %d, want 1", n)
			}

			patriarch, _ := family.FindMember(mustMembers(t, store), "1")
			patriarch.IsSelf = true
			if err := svc.SaveMember(ctx, patriarch, true); err != nil {
				t.Fatalf("SaveMember(existing self) error: %v", err)
			}
			if n := countSelves(t, store); n != 1 {
				t.Fatalf("selves after reassignment = %d, want 1", n)
			}

			self, ok := family.FindSelf(mustMembers(t, store))
			if !ok || self.ID != "1" {
				t.Errorf("self = %v (%v), want member 1", self.ID, ok)
			}
		})
	}
}

func TestDeleteMemberCascades(t *testing.T) {
	ctx := context.Background()
	snap := family.Seed()
	snap.Members = append(snap.Members, family.Member{ID: "3", Name: "Kim"})
	snap.Connections = append(snap.Connections,
		family.Connection{ID: "c2", SourceID: "2", TargetID: "3", SourceHandle: geometry.HandleRight, TargetHandle: geometry.HandleLeft},
		family.Connection{ID: "c3", SourceID: "1", TargetID: "3", SourceHandle: geometry.HandleLeft, TargetHandle: geometry.HandleTop},
	)
	store := memory.New(snap)
	svc := family.NewService(store, nil)

	if err := svc.DeleteMember(ctx, "2"); err != nil {
		t.Fatalf("DeleteMember() error: %v", err)
	}

	got := store.Snapshot()
	if _, ok := got.Member("2"); ok {
		t.Error("member 2 still present")
	}
	if len(got.Connections) != 1 || got.Connections[0].ID != "c3" {
		t.Errorf("connections = %+v, want only c3", got.Connections)
	}
}

func TestDeleteMemberUnknown(t *testing.T) {
	svc := family.NewService(memory.NewEmpty(), nil)
	err := svc.DeleteMember(context.Background(), "ghost")
	if !kberrors.IsNotFound(err) {
		t.Errorf("DeleteMember(ghost) error = %v, want not found", err)
	}
}

type failingStore struct {
	family.Store
	err error
}

func (f failingStore) ListConnections(context.Context) ([]family.Connection, error) {
	return nil, f.err
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := family.NewService(failingStore{Store: memory.New(family.Seed()), err: boom}, nil)

	if _, err := svc.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want %v", err, boom)
	}
}

func TestLoad(t *testing.T) {
	svc := family.NewService(memory.New(family.Seed()), nil)
	snap, err := svc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Members) != 2 || len(snap.Connections) != 1 {
		t.Errorf("Load() = %d members, %d connections, want 2, 1", len(snap.Members), len(snap.Connections))
	}
}

func TestReplaceKeepsOneSelf(t *testing.T) {
	ctx := context.Background()
	store := memory.New(family.Seed())
	svc := family.NewService(store, nil)

	err := svc.Replace(ctx, family.Snapshot{Members: []family.Member{
		{ID: "a", IsSelf: true},
		{ID: "b", IsSelf: true},
	}})
	if err != nil {
		t.Fatal(err)
	}
	got := store.Snapshot()
	if len(got.Members) != 2 || len(got.Connections) != 0 {
		t.Fatalf("Replace() left %d members, %d connections", len(got.Members), len(got.Connections))
	}
	if n := countSelves(t, store); n != 1 {
		t.Errorf("selves after Replace = %d, want 1", n)
	}
}

func TestImmediateFamily(t *testing.T) {
	snap := family.Seed()
	snap.Connections = append(snap.Connections, family.Connection{ID: "dangling", SourceID: "2", TargetID: "ghost"})

	rel := family.ImmediateFamily(snap, "2", false)
	if len(rel) != 1 {
		t.Fatalf("ImmediateFamily(2) = %+v, want one relative", rel)
	}
	if rel[0].Relation != "Linked by Son" || rel[0].Member.ID != "1" {
		t.Errorf("relative = %+v", rel[0])
	}

	rel = family.ImmediateFamily(snap, "1", true)
	if len(rel) != 1 || rel[0].Relation != "儿子" {
		t.Errorf("ImmediateFamily(1, zh) = %+v", rel)
	}
}

func mustMembers(t *testing.T, s family.Store) []family.Member {
	t.Helper()
	members, err := s.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return members
}
