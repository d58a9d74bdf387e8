package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func createTestTargetGroup(t *testing.T, testDB *TestDB, name string) TargetGroup {
	t.Helper()
	group, err := testDB.Store.CreateTargetGroup(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to create test target group: %v", err)
	}
	return group
}

func TestStore_TargetGroupsExist(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	testDB.TruncateTables(t, "target_groups")

	ctx := context.Background()
	lojistas := createTestTargetGroup(t, testDB, "Lojistas")
	revendas := createTestTargetGroup(t, testDB, "Revendas")

	ok, err := testDB.Store.TargetGroupsExist(ctx, []uuid.UUID{lojistas.ID, revendas.ID})
	if err != nil {
		t.Fatalf("TargetGroupsExist() error = %v", err)
	}
	if !ok {
		t.Error("expected registered IDs to exist")
	}

	// Repeated IDs count once against the registry
	ok, err = testDB.Store.TargetGroupsExist(ctx, []uuid.UUID{lojistas.ID, lojistas.ID, revendas.ID})
	if err != nil {
		t.Fatalf("TargetGroupsExist() with repeats error = %v", err)
	}
	if !ok {
		t.Error("expected a set with repeated IDs to exist")
	}

	ok, err = testDB.Store.TargetGroupsExist(ctx, []uuid.UUID{lojistas.ID, uuid.New()})
	if err != nil {
		t.Fatalf("TargetGroupsExist() with unknown ID error = %v", err)
	}
	if ok {
		t.Error("expected an unknown ID to fail the check")
	}

	ok, err = testDB.Store.TargetGroupsExist(ctx, nil)
	if err != nil {
		t.Fatalf("TargetGroupsExist() with empty set error = %v", err)
	}
	if !ok {
		t.Error("expected an empty set to pass")
	}
}
