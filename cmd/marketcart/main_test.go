package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bft-labs/marketcart/internal/cliconfig"
	"github.com/bft-labs/marketcart/pkg/cart"
)

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	a := &app{cfg: cliconfig.DefaultConfig()}
	root := newRootCommand(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.toml"),
		"--storage-dir", dir,
		"--log-level", "error",
	}, args...))

	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCLI_AddIncrementList(t *testing.T) {
	dir := t.TempDir()

	run(t, dir, "add", "--id", "mug", "--title", "Coffee mug", "--price", "12.5")
	run(t, dir, "add", "--id", "pen", "--title", "Pen", "--price", "1.25")
	run(t, dir, "increment", "mug")
	run(t, dir, "decrement", "pen")

	var got struct {
		Products []cart.Item `json:"products"`
		Summary  struct {
			Lines int    `json:"lines"`
			Units int    `json:"units"`
			Total string `json:"total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(run(t, dir, "list", "--json")), &got); err != nil {
		t.Fatalf("decode list output: %v", err)
	}

	if len(got.Products) != 1 || got.Products[0].ID != "mug" || got.Products[0].Quantity != 2 {
		t.Fatalf("products = %+v, want mug x2", got.Products)
	}
	if got.Summary.Units != 2 || got.Summary.Total != "25" {
		t.Errorf("summary = %+v, want 2 units totalling 25", got.Summary)
	}
}

func TestCLI_AddGeneratesID(t *testing.T) {
	dir := t.TempDir()
	out := run(t, dir, "add", "--title", "Anonymous")
	if !strings.Contains(out, "Anonymous") {
		t.Errorf("add output missing product:\n%s", out)
	}

	run(t, dir, "clear")
	if out := run(t, dir, "list"); strings.Contains(out, "Anonymous") {
		t.Errorf("cart not cleared:\n%s", out)
	}
}

func TestCLI_IncrementMissing(t *testing.T) {
	dir := t.TempDir()
	a := &app{cfg: cliconfig.DefaultConfig()}
	root := newRootCommand(a)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(dir, "missing.toml"), "--storage-dir", dir, "increment", "nope"})

	if err := root.Execute(); err == nil {
		t.Fatal("increment of a missing product succeeded")
	}
}
