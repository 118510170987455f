// Command gridautosim serves the built-in simulated case over the
// bridge protocol, standing in for a real automation server during
// development and tests.
package main
