package simauto_test

import (
	"context"
	"errors"
	"testing"

	"gridauto/internal/coerce"
	"gridauto/internal/simauto"
	"gridauto/internal/testsupport"
)

func TestCatalogCachedForSessionLifetime(t *testing.T) {
	ep := testsupport.NewEndpoint()
	registerLoadCatalog(ep)
	session := openSession(t, ep)

	first, err := session.Catalog(context.Background(), "Load")
	if err != nil {
		t.Fatalf("first catalog fetch: %v", err)
	}
	second, err := session.Catalog(context.Background(), "LOAD")
	if err != nil {
		t.Fatalf("second catalog fetch: %v", err)
	}

	// Identity, not just equality: lookups return the stored instance.
	if first != second {
		t.Fatal("expected identical cached catalog instance")
	}
	if ep.CallCount("GetKeyFieldList") != 1 || ep.CallCount("GetFieldList") != 1 {
		t.Fatalf("expected exactly one fetch, got %d key calls and %d field calls",
			ep.CallCount("GetKeyFieldList"), ep.CallCount("GetFieldList"))
	}
}

func TestCatalogContents(t *testing.T) {
	ep := testsupport.NewEndpoint()
	registerLoadCatalog(ep)
	session := openSession(t, ep)

	cat, err := session.Catalog(context.Background(), "load")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	if len(cat.Keys) != 2 || cat.Keys[0] != "BusNum" || cat.Keys[1] != "LoadID" {
		t.Fatalf("unexpected key fields: %v", cat.Keys)
	}
	if got, ok := cat.Type("loadsmw"); !ok || got != coerce.Real {
		t.Fatalf("expected case-insensitive Real for LoadSMW, got %q ok=%v", got, ok)
	}
	if got, ok := cat.Type("BusNum"); !ok || got != coerce.Integer {
		t.Fatalf("expected Integer for BusNum, got %q ok=%v", got, ok)
	}
	if cat.HasField("NoSuchField") {
		t.Fatal("unexpected field resolution")
	}
	if len(cat.FieldNames()) != 5 {
		t.Fatalf("unexpected field count: %v", cat.FieldNames())
	}
}

func TestCatalogPartialFailureNotStored(t *testing.T) {
	ep := testsupport.NewEndpoint()
	ep.Respond("GetKeyFieldList", "BusNum", "LoadID")
	ep.Fail("GetFieldList", "GetFieldList not supported")
	session := openSession(t, ep)

	_, err := session.Catalog(context.Background(), "load")
	var callErr *simauto.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}

	// After the server recovers, the next lookup fetches again rather
	// than serving a partially populated entry.
	registerLoadCatalog(ep)
	cat, err := session.Catalog(context.Background(), "load")
	if err != nil {
		t.Fatalf("catalog after recovery: %v", err)
	}
	if len(cat.Fields) != 5 {
		t.Fatalf("unexpected fields after recovery: %v", cat.FieldNames())
	}
	if ep.CallCount("GetKeyFieldList") != 2 {
		t.Fatalf("expected re-fetch of key fields, got %d calls", ep.CallCount("GetKeyFieldList"))
	}
}

func TestKeyFieldsReturnsCopy(t *testing.T) {
	ep := testsupport.NewEndpoint()
	registerLoadCatalog(ep)
	session := openSession(t, ep)

	keys, err := session.KeyFields(context.Background(), "load")
	if err != nil {
		t.Fatalf("key fields: %v", err)
	}
	keys[0] = "Mutated"

	again, err := session.KeyFields(context.Background(), "load")
	if err != nil {
		t.Fatalf("key fields again: %v", err)
	}
	if again[0] != "BusNum" {
		t.Fatal("cached catalog must not observe caller mutation")
	}
}
