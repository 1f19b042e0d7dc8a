package memory

import (
	"context"
	"testing"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/storetest"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewEmpty()

	m := family.Member{ID: "1", Name: "Ada", Gender: family.Female}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember() error: %v", err)
	}
	if err := s.CreateMember(ctx, m); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("duplicate CreateMember() error = %v, want CONFLICT", err)
	}

	m.X = 42
	if err := s.UpdateMember(ctx, m); err != nil {
		t.Fatalf("UpdateMember() error: %v", err)
	}
	members, _ := s.ListMembers(ctx)
	if len(members) != 1 || members[0].X != 42 {
		t.Errorf("ListMembers() = %+v, want one member at x=42", members)
	}

	if err := s.UpdateMember(ctx, family.Member{ID: "nope"}); !errors.IsNotFound(err) {
		t.Errorf("UpdateMember(unknown) error = %v, want not found", err)
	}
	if err := s.DeleteMember(ctx, "1"); err != nil {
		t.Fatalf("DeleteMember() error: %v", err)
	}
	if err := s.DeleteMember(ctx, "1"); !errors.IsNotFound(err) {
		t.Errorf("second DeleteMember() error = %v, want not found", err)
	}
}

func TestConnectionOrderPreserved(t *testing.T) {
	ctx := context.Background()
	s := NewEmpty()
	for _, id := range []string{"c3", "c1", "c2"} {
		if err := s.CreateConnection(ctx, family.Connection{ID: id, SourceID: "a", TargetID: "b"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeleteConnection(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	conns, _ := s.ListConnections(ctx)
	if len(conns) != 2 || conns[0].ID != "c3" || conns[1].ID != "c2" {
		t.Errorf("ListConnections() order = %v, want [c3 c2]", conns)
	}
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(family.Seed())

	members, _ := s.ListMembers(ctx)
	members[0].Name = "mutated"

	again, _ := s.ListMembers(ctx)
	if again[0].Name == "mutated" {
		t.Error("ListMembers() exposed internal slice")
	}
}

func TestClearSelfExcept(t *testing.T) {
	ctx := context.Background()
	s := New(family.Snapshot{Members: []family.Member{
		{ID: "1", IsSelf: true},
		{ID: "2", IsSelf: true},
		{ID: "3"},
	}})

	if err := s.ClearSelfExcept(ctx, "3"); err != nil {
		t.Fatal(err)
	}
	for _, m := range s.Snapshot().Members {
		if m.IsSelf {
			t.Errorf("member %s still self after ClearSelfExcept(3)", m.ID)
		}
	}
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) family.Store { return NewEmpty() })
}
