package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gridauto/internal/bridge"
	"gridauto/internal/simcase"
	"gridauto/internal/testsupport"
)

// startSimulator serves the built-in case over a temp socket and writes
// a config file pointing at it, so commands run the full path: config
// load, bridge dial, session open, call, render.
func startSimulator(t *testing.T) string {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	server, err := bridge.NewServer(context.Background(), cfg.Bridge.Socket, simcase.New(nil), nil)
	if err != nil {
		t.Fatalf("start simulator: %v", err)
	}
	server.Serve()
	t.Cleanup(func() {
		if err := server.Close(); err != nil {
			t.Errorf("close simulator: %v", err)
		}
	})

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append(args, "--config", configPath))
	err := root.Execute()
	return out.String(), err
}

func TestQueryAgainstSimulator(t *testing.T) {
	configPath := startSimulator(t)

	out, err := runCommand(t, configPath, "query", "load", "BusNum", "LoadID", "LoadMW")
	if err != nil {
		t.Fatalf("query: %v\n%s", err, out)
	}
	if !strings.Contains(out, "LoadMW") {
		t.Fatalf("output missing header:\n%s", out)
	}
	if !strings.Contains(out, "120") {
		t.Fatalf("output missing load value:\n%s", out)
	}
}

func TestSetAgainstSimulator(t *testing.T) {
	configPath := startSimulator(t)

	out, err := runCommand(t, configPath,
		"set", "load", "--fields", "BusNum,LoadID,LoadMW", "--values", "2,1,133.5")
	if err != nil {
		t.Fatalf("set: %v\n%s", err, out)
	}
	if !strings.Contains(out, "changed and verified") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = runCommand(t, configPath, "query", "load", "BusNum", "LoadMW")
	if err != nil {
		t.Fatalf("query after set: %v\n%s", err, out)
	}
	if !strings.Contains(out, "133.5") {
		t.Fatalf("changed value not visible:\n%s", out)
	}
}

func TestFieldsAgainstSimulator(t *testing.T) {
	configPath := startSimulator(t)

	out, err := runCommand(t, configPath, "fields", "gen")
	if err != nil {
		t.Fatalf("fields: %v\n%s", err, out)
	}
	for _, want := range []string{"GenID", "GenMW", "Real", "yes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestKeysAgainstSimulator(t *testing.T) {
	configPath := startSimulator(t)

	out, err := runCommand(t, configPath, "keys", "branch")
	if err != nil {
		t.Fatalf("keys: %v\n%s", err, out)
	}
	if !strings.Contains(out, "BusNum:1") || !strings.Contains(out, "LineCircuit") {
		t.Fatalf("unexpected key output:\n%s", out)
	}
}
