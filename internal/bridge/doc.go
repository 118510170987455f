// Package bridge carries automation-server invocations over JSON-RPC on
// a Unix domain socket.
//
// The client side implements simauto.Endpoint, so a Session talks to any
// process serving the bridge protocol: the development simulator, or a
// shim in front of the real automation server. The server side exposes
// an arbitrary simauto.Endpoint to bridge clients, which is how the
// simulator binary serves its in-memory case.
//
// The protocol is a single method, SimAuto.Invoke, carrying the function
// name, positional parameters, and the server's (error flag, message,
// payload) triple back. Transport does not interpret payloads.
package bridge
