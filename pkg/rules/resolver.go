package rules

import (
	"strings"

	"github.com/jmalten/recgraph/pkg/errors"
)

// overrideRank orders the per-call override frame above every declared
// frame when rules of equal path specificity disagree.
const overrideRank = 1 << 30

// frame is one layer of rules active during a traversal, rooted at the
// depth where its declaring record was entered. Declared rules on a schema
// type apply relative to each record of that type, so the same rule set may
// be active at several depths at once (one frame per record on the current
// chain).
type frame struct {
	depth int
	rules Set
	only  [][]string
}

// Resolver computes the effective include/exclude verdict for every field
// and relationship name encountered during one traversal.
//
// A Resolver is stateful: the traversal engine pushes a frame when it
// enters a record and pops it when it leaves. It is not safe for concurrent
// use; each Serialize call owns its own Resolver.
type Resolver struct {
	override frame
	frames   []frame
	strict   bool

	// onlyCount tracks active allow-list frames so Included can skip the
	// allow-list scan in the common case.
	onlyCount int
}

// NewResolver creates a resolver for one traversal.
//
// overrides are per-call rules rooted at the root record; they have final
// say over declared rules for paths of equal specificity. only is a
// per-call allow-list: when non-empty, every name not on it (directly or as
// a dotted-path ancestor or descendant) defaults to excluded.
//
// When strict is true, conflicting same-path rules of equal precedence fail
// with RULE_CONFLICT instead of resolving last-writer-wins.
func NewResolver(overrides Set, only []string, strict bool) (*Resolver, error) {
	onlyPaths, err := splitOnly(only)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		override: frame{depth: 0, rules: overrides, only: onlyPaths},
		strict:   strict,
	}
	if len(onlyPaths) > 0 {
		r.onlyCount++
	}
	return r, nil
}

// Push activates a record's declared rules for the subtree rooted at depth.
// Every Push must be paired with a Pop when the traversal leaves the record.
func (r *Resolver) Push(depth int, declared Set, only []string) error {
	onlyPaths, err := splitOnly(only)
	if err != nil {
		return err
	}
	r.frames = append(r.frames, frame{depth: depth, rules: declared, only: onlyPaths})
	if len(onlyPaths) > 0 {
		r.onlyCount++
	}
	return nil
}

// Pop deactivates the most recently pushed frame.
func (r *Resolver) Pop() {
	last := len(r.frames) - 1
	if last < 0 {
		return
	}
	if len(r.frames[last].only) > 0 {
		r.onlyCount--
	}
	r.frames = r.frames[:last]
}

// Included reports whether the field or relationship name at the given
// traversal path is part of the effective output.
//
// The verdict is computed in three steps:
//  1. Default: include, unless any allow-list is active, which flips the
//     default to exclude for unlisted names.
//  2. Matching rules override the default. A rule matches when its path
//     equals the candidate path relative to the rule's frame.
//  3. Precedence among matches: longest rule path wins, then override
//     rules beat declared rules, then deeper frames beat shallower ones.
//     Remaining ties resolve last-writer-wins, or fail with RULE_CONFLICT
//     in strict mode when the tied rules disagree.
func (r *Resolver) Included(path []string, name string) (bool, error) {
	candidate := make([]string, 0, len(path)+1)
	candidate = append(candidate, path...)
	candidate = append(candidate, name)

	verdict := true
	if r.onlyCount > 0 {
		verdict = r.allowedByOnly(candidate)
	}

	best, conflict := r.bestMatch(candidate)
	if conflict != nil {
		return false, conflict
	}
	if best != nil {
		verdict = best.sign == Include
	}

	return verdict, nil
}

// match records where a rule matched a candidate path, for precedence
// comparison.
type match struct {
	pathLen int  // rule path length (specificity)
	rank    int  // frame priority (override > deeper declared > shallower)
	order   int  // position within the frame's rule set
	sign    Sign
}

// beats reports whether m takes precedence over other.
func (m match) beats(other match) bool {
	if m.pathLen != other.pathLen {
		return m.pathLen > other.pathLen
	}
	if m.rank != other.rank {
		return m.rank > other.rank
	}
	return m.order > other.order
}

// ties reports whether m and other have equal precedence apart from
// declaration order.
func (m match) ties(other match) bool {
	return m.pathLen == other.pathLen && m.rank == other.rank
}

// bestMatch scans all active frames for rules matching the candidate path
// and returns the winning match under the resolver's precedence policy.
func (r *Resolver) bestMatch(candidate []string) (*match, error) {
	var best *match
	var conflicted bool

	consider := func(f frame, rank int) {
		// A frame rooted below the candidate cannot match it.
		if f.depth > len(candidate)-1 {
			return
		}
		rel := candidate[f.depth:]
		for i, rule := range f.rules {
			if !pathEqual(rule.Segments(), rel) {
				continue
			}
			m := match{pathLen: len(rel), rank: rank, order: i, sign: rule.Sign}
			if best == nil || m.beats(*best) {
				// Equal-precedence disagreement resolves last-writer-wins
				// unless strict mode turns it into an error below.
				conflicted = best != nil && m.ties(*best) && m.sign != best.sign
				v := m
				best = &v
			} else if m.ties(*best) && m.sign != best.sign {
				conflicted = true
			}
		}
	}

	for i, f := range r.frames {
		consider(f, i)
	}
	consider(r.override, overrideRank)

	if conflicted && r.strict {
		return nil, errors.New(errors.ErrCodeRuleConflict,
			"conflicting rules for path %q", strings.Join(candidate, "."))
	}
	return best, nil
}

// allowedByOnly reports whether the candidate path passes every active
// allow-list. A candidate passes one allow-list when it is a segment-wise
// prefix of a listed path (the name leads to listed content) or a listed
// path is a prefix of it (the name is inside a fully-listed subtree).
func (r *Resolver) allowedByOnly(candidate []string) bool {
	check := func(f frame) bool {
		if len(f.only) == 0 {
			return true
		}
		if f.depth > len(candidate)-1 {
			return true
		}
		rel := candidate[f.depth:]
		for _, p := range f.only {
			if isPrefix(rel, p) || isPrefix(p, rel) {
				return true
			}
		}
		return false
	}

	for _, f := range r.frames {
		if !check(f) {
			return false
		}
	}
	return check(r.override)
}

// splitOnly validates and splits allow-list paths into segments.
func splitOnly(only []string) ([][]string, error) {
	if len(only) == 0 {
		return nil, nil
	}
	out := make([][]string, len(only))
	for i, p := range only {
		if err := errors.ValidateRulePath(p); err != nil {
			return nil, err
		}
		out[i] = strings.Split(p, ".")
	}
	return out, nil
}

// pathEqual reports whether two segment sequences are identical.
func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isPrefix reports whether a is a segment-wise prefix of b (equality
// included).
func isPrefix(a, b []string) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
