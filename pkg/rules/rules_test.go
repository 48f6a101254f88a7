package rules

import (
	"reflect"
	"testing"

	"github.com/jmalten/recgraph/pkg/errors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		spec string
		want Rule
	}{
		{"-animals.zookeeper", Rule{Sign: Exclude, Path: "animals.zookeeper"}},
		{"+name", Rule{Sign: Include, Path: "name"}},
		{"name", Rule{Sign: Include, Path: "name"}},
		{"-zookeeper.animals", Rule{Sign: Exclude, Path: "zookeeper.animals"}},
	}
	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			got, err := Parse(tc.spec)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.spec, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, spec := range []string{"", "-", "+", "a..b", ".a", "a.", "-a b", "an-imal"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", spec)
			}
			if !errors.Is(err, errors.ErrCodeInvalidRule) {
				t.Errorf("Parse(%q) code = %s, want INVALID_RULE", spec, errors.GetCode(err))
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	set, err := ParseAll("-animals.zookeeper", "name")
	if err != nil {
		t.Fatalf("ParseAll error: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("ParseAll returned %d rules, want 2", len(set))
	}

	if _, err := ParseAll("ok", "--bad"); err == nil {
		t.Error("ParseAll should fail on the first invalid spec")
	}

	set, err = ParseAll()
	if err != nil || set != nil {
		t.Errorf("empty ParseAll = (%v, %v), want (nil, nil)", set, err)
	}
}

func TestRuleRoundTrip(t *testing.T) {
	specs := []string{"-animals.zookeeper", "+name"}
	set := MustParseAll(specs...)
	if got := set.Strings(); !reflect.DeepEqual(got, specs) {
		t.Errorf("Strings() = %v, want %v", got, specs)
	}
}

func TestSegments(t *testing.T) {
	r := MustParseAll("-animals.zookeeper")[0]
	want := []string{"animals", "zookeeper"}
	if got := r.Segments(); !reflect.DeepEqual(got, want) {
		t.Errorf("Segments() = %v, want %v", got, want)
	}
}

func TestMustParseAllPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseAll should panic on invalid spec")
		}
	}()
	MustParseAll("..")
}
