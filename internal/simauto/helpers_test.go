package simauto_test

import (
	"context"
	"testing"

	"gridauto/internal/simauto"
	"gridauto/internal/testsupport"
)

// registerLoadCatalog scripts the two catalog calls for the "load"
// object type: BusNum and LoadID are its key fields.
func registerLoadCatalog(ep *testsupport.FakeEndpoint) {
	ep.Respond("GetKeyFieldList", "BusNum", "LoadID")
	ep.Respond("GetFieldList",
		[]any{"*1*", "BusNum", "Integer", "Bus number", "Number of Bus"},
		[]any{"*2A*", "LoadID", "Integer", "Load identifier", "ID"},
		[]any{"", "LoadSMW", "Real", "Scheduled MW", "MW"},
		[]any{"", "LoadSMVR", "Real", "Scheduled Mvar", "Mvar"},
		[]any{"", "LoadStatus", "String", "Load status", "Status"},
	)
}

func openSession(t *testing.T, ep *testsupport.FakeEndpoint, opts ...func(*simauto.Options)) *simauto.Session {
	t.Helper()

	options := simauto.Options{Endpoint: ep}
	for _, opt := range opts {
		opt(&options)
	}

	session, err := simauto.Open(context.Background(), options)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
	})
	return session
}
