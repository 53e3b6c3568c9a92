//go:build integration

package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/fsm"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("FSMFLOW_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FSMFLOW_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, uri, "fsmflow_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = s.coll.Database().Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, d := range fsm.Demo() {
		if err := s.Put(ctx, d); err != nil {
			t.Fatalf("Put(%s): %v", d.Name, err)
		}
	}

	defs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 4 || defs[0].Name != "traffic" || defs[3].Name != "cicd" {
		t.Fatalf("List() = %v", defs)
	}

	got, err := s.Get(ctx, "device")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Graph().Edges) != 6 {
		t.Errorf("device edges = %d, want 6", len(got.Graph().Edges))
	}

	// Replacing keeps the first-insert position.
	traffic := fsm.Demo()[0]
	traffic.Initial = "green"
	if err := s.Put(ctx, traffic); err != nil {
		t.Fatal(err)
	}
	infos, err := s.Machines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if infos[0].ID != "traffic" {
		t.Errorf("first machine = %s, want traffic", infos[0].ID)
	}

	if err := s.Delete(ctx, "auth"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "auth"); !errors.Is(err, errors.ErrCodeMachineNotFound) {
		t.Errorf("Get(auth) after delete = %v", err)
	}
	if err := s.Delete(ctx, "auth"); !errors.Is(err, errors.ErrCodeMachineNotFound) {
		t.Errorf("second Delete(auth) = %v", err)
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := testStore(t)
	err := s.Put(context.Background(), fsm.Definition{Name: "bad", States: []fsm.State{{Name: "a"}, {Name: "a"}}})
	if !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("Put() = %v, want INVALID_DEFINITION", err)
	}
}
