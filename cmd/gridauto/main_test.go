package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{
		"fields", "keys", "devices", "query", "powerflow",
		"set", "solve", "script", "header", "snapshot", "config",
	}
	registered := make(map[string]bool)
	for _, cmd := range root.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestSetCommandRejectsMismatchedFlags(t *testing.T) {
	root := newRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"set", "load", "--fields", "BusNum,LoadID,LoadMW", "--values", "2,1"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "3 fields but 2 values") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	root := newRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"config", "init", "--path", target})

	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[bridge]") {
		t.Fatalf("sample config missing [bridge] section:\n%s", content)
	}

	// Refuses a second write without --overwrite.
	root = newRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"config", "init", "--path", target})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" BusNum, LoadID ,LoadMW ,")
	want := []string{"BusNum", "LoadID", "LoadMW"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList = %v, want %v", got, want)
	}
	if splitList("  ") != nil {
		t.Fatal("blank input should yield nil")
	}
}
