// Package rules implements declarative include/exclude rules for record
// serialization, keyed by dotted relationship paths.
//
// A rule is a signed dotted path such as "-animals.zookeeper" (exclude) or
// "name" (include). Rules declared on a schema type apply relative to every
// record of that type reached during traversal; rules supplied per call
// apply relative to the root record and take precedence over declared rules
// for the same path.
//
// The [Resolver] merges declared and override rules into an effective
// verdict for every field and relationship name encountered during a
// traversal. Excluding a relationship excludes its entire subtree - the
// traversal engine short-circuits instead of descending, which is the
// designed mechanism for breaking relationship cycles.
package rules

import (
	"strings"

	"github.com/jmalten/recgraph/pkg/errors"
)

// Sign indicates whether a rule includes or excludes its path.
type Sign int

const (
	// Include marks a path for inclusion in serialized output.
	Include Sign = iota
	// Exclude marks a path (and its entire subtree) for exclusion.
	Exclude
)

// String returns the textual prefix for the sign ("+" or "-").
func (s Sign) String() string {
	if s == Exclude {
		return "-"
	}
	return "+"
}

// Rule is a single include/exclude instruction keyed by a dotted path.
// The path is relative to the record that declared the rule (for declared
// rules) or to the root record (for per-call overrides).
type Rule struct {
	Sign Sign
	Path string
}

// Segments returns the dotted path split into its name segments.
func (r Rule) Segments() []string {
	return strings.Split(r.Path, ".")
}

// String returns the textual form of the rule, e.g. "-animals.zookeeper".
func (r Rule) String() string {
	return r.Sign.String() + r.Path
}

// Parse parses a textual rule spec into a Rule.
//
// A leading "-" excludes, a leading "+" or no prefix includes. The
// remainder must be a valid dotted path.
func Parse(spec string) (Rule, error) {
	if spec == "" {
		return Rule{}, errors.New(errors.ErrCodeInvalidRule, "rule spec cannot be empty")
	}

	sign := Include
	path := spec
	switch spec[0] {
	case '-':
		sign = Exclude
		path = spec[1:]
	case '+':
		path = spec[1:]
	}

	if err := errors.ValidateRulePath(path); err != nil {
		return Rule{}, err
	}

	return Rule{Sign: sign, Path: path}, nil
}

// ParseAll parses a list of rule specs into a Set, failing on the first
// invalid spec.
func ParseAll(specs ...string) (Set, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	set := make(Set, 0, len(specs))
	for _, spec := range specs {
		r, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		set = append(set, r)
	}
	return set, nil
}

// MustParseAll is like ParseAll but panics on invalid specs.
// Intended for package-level declarations of schema types, where an invalid
// rule is a programming error.
func MustParseAll(specs ...string) Set {
	set, err := ParseAll(specs...)
	if err != nil {
		panic(err)
	}
	return set
}

// Set is an ordered list of rules. Order matters: under the default
// last-writer-wins policy, a later rule overrides an earlier rule for the
// same path.
type Set []Rule

// Strings returns the textual form of every rule in the set.
func (s Set) Strings() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.String()
	}
	return out
}
