package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmalten/recgraph/pkg/source"
)

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"serialize":  false,
		"graph":      false,
		"seed":       false,
		"explore":    false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"json"}},
		{"json", []string{"json"}},
		{"json,dot", []string{"json", "dot"}},
	}
	for _, tc := range tests {
		if got := parseFormats(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"name, species", "animals.name", ""})
	want := []string{"name", "species", "animals.name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestSourceOptsValidation(t *testing.T) {
	sch := source.ZooSchema()

	o := sourceOpts{input: "a.json", mongoURI: "mongodb://localhost"}
	if _, _, _, err := o.build(context.Background(), sch); err == nil {
		t.Error("expected error for --input with --mongo")
	}

	o = sourceOpts{mongoURI: "mongodb://localhost"}
	if _, _, _, err := o.build(context.Background(), sch); err == nil {
		t.Error("expected error for --mongo without --db")
	}
}

func TestSourceOptsSeedDefault(t *testing.T) {
	o := sourceOpts{}
	src, desc, cleanup, err := o.build(context.Background(), source.ZooSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cleanup != nil {
		cleanup()
	}
	if desc != "seed" {
		t.Errorf("desc = %q, want seed", desc)
	}

	g, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 3 {
		t.Errorf("fixture has %d records, want 3", g.Len())
	}
}

func TestSourceOptsRandomDisablesGraphCache(t *testing.T) {
	o := sourceOpts{keepers: 2, seed: 7}
	_, desc, _, err := o.build(context.Background(), source.ZooSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if desc != "" {
		t.Errorf("random graphs must not share a cache key, got %q", desc)
	}
}

func TestSeedCommandWritesFiles(t *testing.T) {
	dir := t.TempDir()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"seed", "--dir", dir})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, name := range []string{"zoo.toml", "records.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
