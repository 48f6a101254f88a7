package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a field, relationship, or type name for safety.
// It rejects names that could corrupt dotted rule paths or cache keys.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No dots (reserved as the rule path separator)
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}

	if strings.Contains(name, ".") {
		return New(ErrCodeInvalidInput, "name cannot contain dots (reserved for rule paths): %q", name)
	}

	return nil
}

// rulePathRegex matches valid dotted rule paths: one or more name segments
// joined by single dots. Segments follow identifier conventions.
var rulePathRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateRulePath validates a dotted rule path such as "animals.zookeeper".
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No empty segments (leading, trailing, or doubled dots)
//   - Segments must be identifier-like
func ValidateRulePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidRule, "rule path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidRule, "rule path too long (max %d characters)", maxPathLength)
	}

	if !rulePathRegex.MatchString(path) {
		return New(ErrCodeInvalidRule, "invalid rule path: %q", path)
	}

	return nil
}

// typeNameRegex matches valid schema type names.
var typeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTypeName validates a schema type name (e.g., "zookeeper").
func ValidateTypeName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if !typeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSchema, "invalid type name: %q", name)
	}

	return nil
}
