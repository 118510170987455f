package simcase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridauto/internal/simauto"
	"gridauto/internal/simcase"
)

func invoke(t *testing.T, c *simcase.Case, function string, params ...any) simauto.Reply {
	t.Helper()
	reply, err := c.Invoke(context.Background(), function, params)
	if err != nil {
		t.Fatalf("%s: %v", function, err)
	}
	return reply
}

func openSession(t *testing.T, opts ...func(*simauto.Options)) *simauto.Session {
	t.Helper()
	options := simauto.Options{Endpoint: simcase.New(nil)}
	for _, opt := range opts {
		opt(&options)
	}
	session, err := simauto.Open(context.Background(), options)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestFieldListCarriesKeyMarkers(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "GetFieldList", "gen")
	if reply.ErrorFlag != "" {
		t.Fatalf("unexpected error flag %q", reply.ErrorFlag)
	}

	markers := make(map[string]string)
	for _, raw := range reply.Payload {
		row := raw.([]any)
		markers[row[1].(string)] = row[0].(string)
	}
	if markers["BusNum"] != "*1*" {
		t.Fatalf("BusNum marker = %q, want *1*", markers["BusNum"])
	}
	if markers["GenID"] != "*2A*" {
		t.Fatalf("GenID marker = %q, want *2A*", markers["GenID"])
	}
	if markers["GenMW"] != "" {
		t.Fatalf("GenMW marker = %q, want empty", markers["GenMW"])
	}
}

func TestKeyFieldListOrder(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "GetKeyFieldList", "branch")
	want := []any{"BusNum", "BusNum:1", "LineCircuit"}
	if len(reply.Payload) != len(want) {
		t.Fatalf("got %d keys, want %d", len(reply.Payload), len(want))
	}
	for i, name := range want {
		if reply.Payload[i] != name {
			t.Fatalf("key %d = %v, want %v", i, reply.Payload[i], name)
		}
	}
}

func TestMultipleElementResultIsColumnMajor(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "GetParametersMultipleElement", "load", []any{"BusNum", "LoadMW"}, "")
	if reply.ErrorFlag != "" {
		t.Fatalf("unexpected error flag %q", reply.ErrorFlag)
	}
	if len(reply.Payload) != 2 {
		t.Fatalf("got %d columns, want 2", len(reply.Payload))
	}
	for i, raw := range reply.Payload {
		column, isSlice := raw.([]any)
		if !isSlice {
			t.Fatalf("column %d is %T, want slice", i, raw)
		}
		if len(column) != 3 {
			t.Fatalf("column %d has %d cells, want 3", i, len(column))
		}
	}
}

func TestUnknownObjectTypeFails(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "GetFieldList", "transformer3w")
	if reply.ErrorFlag == "" {
		t.Fatal("expected error flag for unknown object type")
	}
}

func TestUndefinedFilterFails(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "ListOfDevices", "bus", "HighVoltage")
	if !strings.Contains(reply.ErrorFlag, "HighVoltage") {
		t.Fatalf("error flag %q does not name the filter", reply.ErrorFlag)
	}
}

func TestChangeAndConfirmRoundTrip(t *testing.T) {
	session := openSession(t)
	ctx := context.Background()

	fields := []string{"BusNum", "LoadID", "LoadMW"}
	err := session.ChangeAndConfirm(ctx, "load", fields, [][]any{
		{2, "1", 133.25},
		{4, "1", 95.0},
	})
	if err != nil {
		t.Fatalf("ChangeAndConfirm: %v", err)
	}

	row, err := session.GetParametersSingleElement(ctx, "load", fields, []any{2, "1", 0})
	if err != nil {
		t.Fatalf("GetParametersSingleElement: %v", err)
	}
	value, _ := row.Value("LoadMW")
	if value != 133.25 {
		t.Fatalf("LoadMW = %v, want 133.25", value)
	}
}

func TestCreateIfNotFoundControlsObjectCreation(t *testing.T) {
	ctx := context.Background()
	fields := []string{"BusNum", "BusName", "BusNomVolt"}

	strict := openSession(t)
	err := strict.ChangeParametersSingleElement(ctx, "bus", fields, []any{99, "Ridge", 138.0})
	var callErr *simauto.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError for missing object, got %v", err)
	}

	creating := openSession(t, func(o *simauto.Options) { o.CreateIfNotFound = true })
	if err := creating.ChangeParametersSingleElement(ctx, "bus", fields, []any{99, "Ridge", 138.0}); err != nil {
		t.Fatalf("change with create: %v", err)
	}
	row, err := creating.GetParametersSingleElement(ctx, "bus", fields, []any{99, "", 0})
	if err != nil {
		t.Fatalf("read back created bus: %v", err)
	}
	if name, _ := row.Value("BusName"); name != "Ridge" {
		t.Fatalf("BusName = %v, want Ridge", name)
	}
}

func TestSolveRecomputesNetInjections(t *testing.T) {
	session := openSession(t)
	ctx := context.Background()

	fields := []string{"BusNum", "LoadID", "LoadMW"}
	if err := session.ChangeParametersSingleElement(ctx, "load", fields, []any{2, "1", 150.0}); err != nil {
		t.Fatalf("change load: %v", err)
	}
	if err := session.SolvePowerFlow(ctx, "DC"); err != nil {
		t.Fatalf("solve: %v", err)
	}

	row, err := session.GetParametersSingleElement(ctx, "bus", []string{"BusNum", "BusNetMW"}, []any{2, 0})
	if err != nil {
		t.Fatalf("read bus: %v", err)
	}
	if net, _ := row.Value("BusNetMW"); net != -150.0 {
		t.Fatalf("BusNetMW = %v, want -150", net)
	}
}

func TestUnsupportedScriptCommandFails(t *testing.T) {
	session := openSession(t)
	_, err := session.RunScriptCommand(context.Background(), "EnterMode(EDIT);")
	var callErr *simauto.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	session := openSession(t)
	ctx := context.Background()

	if err := session.SaveState(ctx); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	fields := []string{"BusNum", "LoadID", "LoadMW"}
	if err := session.ChangeParametersSingleElement(ctx, "load", fields, []any{5, "1", 999.0}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := session.LoadState(ctx); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	row, err := session.GetParametersSingleElement(ctx, "load", fields, []any{5, "1", 0})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if mw, _ := row.Value("LoadMW"); mw != 75.0 {
		t.Fatalf("LoadMW = %v, want the pre-save 75", mw)
	}
}

func TestLoadStateWithoutSaveFails(t *testing.T) {
	session := openSession(t)
	if err := session.LoadState(context.Background()); err == nil {
		t.Fatal("expected error without a prior SaveState")
	}
}

func TestWriteAuxFileExportsData(t *testing.T) {
	session := openSession(t)
	path := filepath.Join(t.TempDir(), "loads.aux")

	err := session.WriteAuxFile(context.Background(), path, "", "load", false, []string{"BusNum", "LoadID", "LoadMW"})
	if err != nil {
		t.Fatalf("WriteAuxFile: %v", err)
	}

	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read aux file: %v", readErr)
	}
	text := string(content)
	if !strings.Contains(text, "DATA (load, [BusNum, LoadID, LoadMW])") {
		t.Fatalf("missing data header:\n%s", text)
	}
	if !strings.Contains(text, `2 "1" 120`) {
		t.Fatalf("missing load row:\n%s", text)
	}
}

func TestWriteAuxFileReportsMissingObjectType(t *testing.T) {
	c := simcase.New(nil)
	reply := invoke(t, c, "WriteAuxFile", filepath.Join(t.TempDir(), "out.aux"), "")
	if reply.ErrorFlag == "" {
		t.Fatal("expected error flag for missing object type")
	}
	if !strings.Contains(reply.ErrorFlag, "parameter 3") {
		t.Fatalf("error should name parameter 3, got %q", reply.ErrorFlag)
	}
}

func TestProcessAuxFileRunsScripts(t *testing.T) {
	session := openSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "solve.aux")
	script := "SCRIPT\n{\nSolvePowerFlow(RECTNEWT);\n}\n"
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("write aux: %v", err)
	}

	if err := session.ProcessAuxFile(ctx, path); err != nil {
		t.Fatalf("ProcessAuxFile: %v", err)
	}
	header, err := session.GetCaseHeader(ctx, "unused.pwb")
	if err != nil {
		t.Fatalf("GetCaseHeader: %v", err)
	}
	if !strings.Contains(strings.Join(header, "\n"), "Solved: yes") {
		t.Fatalf("header does not report solved state: %v", header)
	}
}

func TestSpecificFieldMaxNum(t *testing.T) {
	c := simcase.New(nil)

	reply := invoke(t, c, "GetSpecificFieldMaxNum", "branch", "LineMW")
	if len(reply.Payload) != 1 || reply.Payload[0] != int64(1) {
		t.Fatalf("LineMW max num payload = %v, want [1]", reply.Payload)
	}

	reply = invoke(t, c, "GetSpecificFieldMaxNum", "branch", "NoSuchField")
	if len(reply.Payload) != 1 || reply.Payload[0] != int64(-1) {
		t.Fatalf("unknown field payload = %v, want [-1]", reply.Payload)
	}
}

func TestSpecificFieldListAll(t *testing.T) {
	session := openSession(t)
	tbl, err := session.GetSpecificFieldList(context.Background(), "load", []string{"ALL"})
	if err != nil {
		t.Fatalf("GetSpecificFieldList: %v", err)
	}
	if tbl.RowCount() != 5 {
		t.Fatalf("got %d rows, want 5", tbl.RowCount())
	}
}
