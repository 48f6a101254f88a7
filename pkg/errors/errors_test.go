package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewAndIs(t *testing.T) {
	err := New(ErrCodeInvalidRule, "invalid rule spec: %s", "--bad")

	if !Is(err, ErrCodeInvalidRule) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeSerializeDepth) {
		t.Error("Is should not match a different code")
	}
	if got := GetCode(err); got != ErrCodeInvalidRule {
		t.Errorf("GetCode = %s", got)
	}
	if !strings.Contains(err.Error(), "INVALID_RULE") {
		t.Errorf("Error() should include the code: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeSource, cause, "failed to load %s", "zoo.json")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() should include the cause: %s", err.Error())
	}
	if !Is(err, ErrCodeSource) {
		t.Error("wrapped error should keep its code")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeSerializeDepth, "max depth 8 exceeded")
	outer := fmt.Errorf("pipeline: %w", inner)

	if !Is(outer, ErrCodeSerializeDepth) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeUnsupportedType, "field \"payload\" has unsupported type struct {}")
	if msg := UserMessage(err); strings.Contains(msg, "UNSUPPORTED_TYPE") {
		t.Errorf("UserMessage should omit the code prefix: %s", msg)
	}

	plain := stderrors.New("plain")
	if msg := UserMessage(plain); msg != "plain" {
		t.Errorf("UserMessage(plain) = %s", msg)
	}
}

func TestGetCodeNonStructured(t *testing.T) {
	if code := GetCode(stderrors.New("plain")); code != "" {
		t.Errorf("GetCode(plain) = %s, want empty", code)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("animals"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}

	bad := []string{"", "a.b", "x\x00y", strings.Repeat("a", 300)}
	for _, name := range bad {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) should fail", name)
		}
	}
}

func TestValidateRulePath(t *testing.T) {
	good := []string{"name", "animals.zookeeper", "a.b.c", "open_to_visitors"}
	for _, p := range good {
		if err := ValidateRulePath(p); err != nil {
			t.Errorf("ValidateRulePath(%q) = %v", p, err)
		}
	}

	bad := []string{"", ".", "a..b", ".a", "a.", "1abc", "a b", "a.-b", strings.Repeat("a", 501)}
	for _, p := range bad {
		if err := ValidateRulePath(p); err == nil {
			t.Errorf("ValidateRulePath(%q) should fail", p)
		}
	}
}

func TestValidateTypeName(t *testing.T) {
	if err := ValidateTypeName("zookeeper"); err != nil {
		t.Errorf("valid type rejected: %v", err)
	}
	for _, name := range []string{"", "1zoo", "zoo keeper", "zoo.keeper"} {
		if err := ValidateTypeName(name); err == nil {
			t.Errorf("ValidateTypeName(%q) should fail", name)
		}
	}
}
