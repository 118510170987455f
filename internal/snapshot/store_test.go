package snapshot_test

import (
	"context"
	"path/filepath"
	"testing"

	"gridauto/internal/coerce"
	"gridauto/internal/snapshot"
	"gridauto/internal/table"
)

func openStore(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func loadTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New([]table.Column{
		{Name: "BusNum", Type: coerce.Integer},
		{Name: "LoadID", Type: coerce.String},
		{Name: "LoadMW", Type: coerce.Real},
	})
	rows := [][]any{
		{int64(2), "1", 120.0},
		{int64(4), "1", 90.0},
	}
	for _, row := range rows {
		if err := tbl.AppendRow(row); err != nil {
			t.Fatalf("append row: %v", err)
		}
	}
	return tbl
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "baseline", "load", loadTable(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RowCount() != 2 {
		t.Fatalf("got %d rows, want 2", got.RowCount())
	}
	if got.Columns()[2].Type != coerce.Real {
		t.Fatalf("LoadMW column type = %v, want Real", got.Columns()[2].Type)
	}

	row := got.Row(0)
	if num, _ := row.Value("BusNum"); num != int64(2) {
		t.Fatalf("BusNum = %v (%T), want int64 2", num, num)
	}
	if mw, _ := row.Value("LoadMW"); mw != 120.0 {
		t.Fatalf("LoadMW = %v, want 120", mw)
	}
	if id2, _ := row.Value("LoadID"); id2 != "1" {
		t.Fatalf("LoadID = %v, want 1", id2)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "before", "load", loadTable(t))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := store.Save(ctx, "after", "load", loadTable(t))
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].ID != second || snaps[1].ID != first {
		t.Fatalf("unexpected order: %v", snaps)
	}
	if snaps[0].Name != "after" || snaps[0].ObjectType != "load" || snaps[0].RowCount != 2 {
		t.Fatalf("unexpected snapshot record: %+v", snaps[0])
	}
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "doomed", "load", loadTable(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, id); err == nil {
		t.Fatal("expected load of deleted snapshot to fail")
	}
	if err := store.Delete(ctx, id); err == nil {
		t.Fatal("expected second delete to fail")
	}
}

func TestSaveEmptyTableKeepsShape(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	empty := table.New([]table.Column{
		{Name: "BusNum", Type: coerce.Integer},
		{Name: "BusName", Type: coerce.String},
	})
	id, err := store.Save(ctx, "empty", "bus", empty)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RowCount() != 0 || got.ColumnCount() != 2 {
		t.Fatalf("got %dx%d, want 0x2", got.RowCount(), got.ColumnCount())
	}
}
