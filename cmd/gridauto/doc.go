// Command gridauto is the CLI for querying and editing a power-system
// case through an automation-server bridge.
package main
