package rules

import (
	"testing"

	"github.com/jmalten/recgraph/pkg/errors"
)

// mustInclude asserts the resolver's verdict for a candidate at a path.
func mustInclude(t *testing.T, r *Resolver, path []string, name string, want bool) {
	t.Helper()
	got, err := r.Included(path, name)
	if err != nil {
		t.Fatalf("Included(%v, %q) error: %v", path, name, err)
	}
	if got != want {
		t.Errorf("Included(%v, %q) = %v, want %v", path, name, got, want)
	}
}

func TestResolverDefaultInclude(t *testing.T) {
	r, err := NewResolver(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, nil, "name", true)
	mustInclude(t, r, []string{"animals"}, "species", true)
}

func TestResolverDeclaredExclude(t *testing.T) {
	r, err := NewResolver(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	// Root zookeeper declares -animals.zookeeper.
	if err := r.Push(0, MustParseAll("-animals.zookeeper"), nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, nil, "animals", true)
	mustInclude(t, r, []string{"animals"}, "zookeeper", false)
	mustInclude(t, r, []string{"animals"}, "species", true)
}

func TestResolverNestedFramesApplyRelatively(t *testing.T) {
	r, err := NewResolver(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	// Root zookeeper frame, then an animal frame entered via "animals".
	// The animal's -enclosure.animals is relative to the animal, so it
	// matches the absolute path animals.enclosure.animals.
	if err := r.Push(0, MustParseAll("-animals.zookeeper"), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Push(1, MustParseAll("-zookeeper.animals", "-enclosure.animals"), nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, []string{"animals"}, "enclosure", true)

	if err := r.Push(2, MustParseAll("-animals.enclosure"), nil); err != nil {
		t.Fatal(err)
	}
	mustInclude(t, r, []string{"animals", "enclosure"}, "animals", false)
	mustInclude(t, r, []string{"animals", "enclosure"}, "environment", true)

	// Leaving the enclosure and animal frames deactivates their rules.
	r.Pop()
	r.Pop()
	mustInclude(t, r, []string{"animals"}, "zookeeper", false)
}

func TestResolverOverrideBeatsDeclared(t *testing.T) {
	r, err := NewResolver(MustParseAll("+animals.zookeeper"), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, MustParseAll("-animals.zookeeper"), nil); err != nil {
		t.Fatal(err)
	}

	// Same path, same specificity: the per-call override wins.
	mustInclude(t, r, []string{"animals"}, "zookeeper", true)
}

func TestResolverMoreSpecificPathWins(t *testing.T) {
	// The animal frame's -zookeeper (1 segment, relative) loses to the
	// override's +animals.zookeeper (2 segments) for the same absolute path.
	r, err := NewResolver(MustParseAll("+animals.zookeeper"), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Push(1, MustParseAll("-zookeeper"), nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, []string{"animals"}, "zookeeper", true)
}

func TestResolverOnlyAllowList(t *testing.T) {
	r, err := NewResolver(nil, []string{"name", "animals.species"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, nil, "name", true)
	mustInclude(t, r, nil, "id", false)
	// "animals" leads to listed content, so the traversal may descend.
	mustInclude(t, r, nil, "animals", true)
	mustInclude(t, r, []string{"animals"}, "species", true)
	mustInclude(t, r, []string{"animals"}, "name", false)
}

func TestResolverOnlyWholeSubtree(t *testing.T) {
	// Listing a relationship without descendants allows its whole subtree.
	r, err := NewResolver(nil, []string{"animals"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, nil, "animals", true)
	mustInclude(t, r, []string{"animals"}, "species", true)
	mustInclude(t, r, nil, "name", false)
}

func TestResolverIncludeRuleFlipsOnlyDefault(t *testing.T) {
	// An explicit include rule re-adds a name the allow-list would drop.
	r, err := NewResolver(MustParseAll("+id"), []string{"name"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, nil); err != nil {
		t.Fatal(err)
	}

	mustInclude(t, r, nil, "id", true)
	mustInclude(t, r, nil, "birthday", false)
}

func TestResolverStrictConflict(t *testing.T) {
	r, err := NewResolver(nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, MustParseAll("-name", "+name"), nil); err != nil {
		t.Fatal(err)
	}

	_, err = r.Included(nil, "name")
	if !errors.Is(err, errors.ErrCodeRuleConflict) {
		t.Errorf("error code = %s, want RULE_CONFLICT", errors.GetCode(err))
	}
}

func TestResolverLastWriterWins(t *testing.T) {
	r, err := NewResolver(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, MustParseAll("-name", "+name"), nil); err != nil {
		t.Fatal(err)
	}
	mustInclude(t, r, nil, "name", true)

	r.Pop()
	if err := r.Push(0, MustParseAll("+name", "-name"), nil); err != nil {
		t.Fatal(err)
	}
	mustInclude(t, r, nil, "name", false)
}

func TestResolverInvalidOnlyPath(t *testing.T) {
	if _, err := NewResolver(nil, []string{"bad..path"}, false); err == nil {
		t.Error("NewResolver should reject invalid only paths")
	}

	r, err := NewResolver(nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(0, nil, []string{".x"}); err == nil {
		t.Error("Push should reject invalid only paths")
	}
}
