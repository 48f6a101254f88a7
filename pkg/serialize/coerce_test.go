package serialize

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
)

func TestCoerceScalars(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC)
	id := uuid.MustParse("8c9d3a42-0f1e-4b7a-9c6d-2e5f8a1b3c4d")

	cases := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "Heather", "Heather"},
		{"bool", false, false},
		{"int", 13, 13},
		{"int64", int64(13), int64(13)},
		{"uint", uint(7), uint(7)},
		{"float", 1.5, 1.5},
		{"nil", nil, nil},
		{"date", record.NewDate(1961, time.August, 19), "1961-08-19"},
		{"time", ts, "2024-03-05T12:30:00Z"},
		{"uuid", id, "8c9d3a42-0f1e-4b7a-9c6d-2e5f8a1b3c4d"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerce("f", tc.value)
			if err != nil {
				t.Fatalf("coerce error: %v", err)
			}
			if got != tc.want {
				t.Errorf("coerce(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestCoerceUnsupportedType(t *testing.T) {
	_, err := coerce("weights", []float64{1, 2})
	if err == nil {
		t.Fatal("expected UNSUPPORTED_TYPE error")
	}
	if !errors.Is(err, errors.ErrCodeUnsupportedType) {
		t.Errorf("error code = %s, want UNSUPPORTED_TYPE", errors.GetCode(err))
	}
	// The error must name the offending field and type.
	msg := err.Error()
	for _, want := range []string{"weights", "[]float64"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestSerializeSurfacesCoercionError(t *testing.T) {
	badType := record.NewType("bad")
	rec := record.New(badType).Set("id", 1).Set("payload", struct{}{})

	out, err := Serialize(rec, Options{})
	if !errors.Is(err, errors.ErrCodeUnsupportedType) {
		t.Errorf("error code = %s, want UNSUPPORTED_TYPE", errors.GetCode(err))
	}
	if out != nil {
		t.Error("failing call must return no partial output")
	}
}
