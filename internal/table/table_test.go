package table_test

import (
	"strings"
	"testing"

	"gridauto/internal/coerce"
	"gridauto/internal/table"
)

func loadColumns() []table.Column {
	return []table.Column{
		{Name: "BusNum", Type: coerce.Integer},
		{Name: "LoadID", Type: coerce.String},
		{Name: "LoadMW", Type: coerce.Real},
	}
}

func TestAppendRowEnforcesWidth(t *testing.T) {
	tbl := table.New(loadColumns())
	if err := tbl.AppendRow([]any{int64(1), "1", 12.5}); err != nil {
		t.Fatalf("append valid row: %v", err)
	}
	if err := tbl.AppendRow([]any{int64(2), "1"}); err == nil {
		t.Fatal("expected error for short row")
	}
	if tbl.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", tbl.RowCount())
	}
}

func TestRowValueLookup(t *testing.T) {
	tbl := table.New(loadColumns())
	if err := tbl.AppendRow([]any{int64(3), "2", 7.25}); err != nil {
		t.Fatalf("append: %v", err)
	}
	row := tbl.Row(0)

	v, ok := row.Value("loadmw")
	if !ok {
		t.Fatal("expected case-insensitive column lookup")
	}
	if v != 7.25 {
		t.Fatalf("expected 7.25, got %#v", v)
	}
	if _, ok := row.Value("GenMW"); ok {
		t.Fatal("expected missing column lookup to fail")
	}
}

func TestSortByNumericColumn(t *testing.T) {
	tbl := table.New(loadColumns())
	for _, vals := range [][]any{
		{int64(12), "1", 1.0},
		{int64(2), "1", 2.0},
		{int64(7), "1", 3.0},
	} {
		if err := tbl.AppendRow(vals); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	tbl.SortBy("BusNum")

	var got []int64
	for _, row := range tbl.Rows() {
		v, _ := row.Value("BusNum")
		got = append(got, v.(int64))
	}
	want := []int64{2, 7, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order %v, want %v", got, want)
		}
	}
}

func TestRenderIncludesHeaderAndValues(t *testing.T) {
	tbl := table.New(loadColumns())
	if err := tbl.AppendRow([]any{int64(1), "1", 21.7}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out := tbl.Render()
	for _, want := range []string{"BusNum", "LoadID", "LoadMW", "21.7"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStringsKeepsHeaderCase(t *testing.T) {
	out := table.RenderStrings(
		[]string{"ID", "Object Type"},
		[][]string{{"1", "bus"}, {"2"}},
		[]bool{true, false},
	)
	if !strings.Contains(out, "Object Type") {
		t.Fatalf("header case not preserved:\n%s", out)
	}
	if strings.Contains(out, "OBJECT TYPE") {
		t.Fatalf("header was uppercased:\n%s", out)
	}
	if !strings.Contains(out, "bus") {
		t.Fatalf("rendered listing missing cell value:\n%s", out)
	}
}

func TestEmptyTableKeepsColumns(t *testing.T) {
	tbl := table.New(loadColumns())
	if !tbl.Empty() {
		t.Fatal("expected empty table")
	}
	if tbl.ColumnCount() != 3 {
		t.Fatalf("expected 3 columns, got %d", tbl.ColumnCount())
	}
}
