package source

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
)

func TestNormalizeBSON(t *testing.T) {
	s := ZooSchema()
	oid := primitive.NewObjectID()
	noon := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		field string
		value any
		want  any
	}{
		{"string", "name", "Heather", "Heather"},
		{"bool", "open_to_visitors", false, false},
		{"int64", "id", int64(13), int64(13)},
		{"int32 widens", "id", int32(13), int64(13)},
		{"float", "weight", 12.5, 12.5},
		{"nil", "name", nil, nil},
		{"object id", "owner", oid, oid.Hex()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeBSON("animal", tc.field, tc.value, s)
			if err != nil {
				t.Fatalf("normalizeBSON error: %v", err)
			}
			if got != tc.want {
				t.Errorf("normalizeBSON(%v) = %v (%T), want %v", tc.value, got, got, tc.want)
			}
		})
	}

	// Plain timestamps convert to time.Time in UTC.
	got, err := normalizeBSON("animal", "seen_at", primitive.NewDateTimeFromTime(noon), s)
	if err != nil {
		t.Fatal(err)
	}
	ts, ok := got.(time.Time)
	if !ok || !ts.Equal(noon) {
		t.Errorf("datetime = %#v, want %v", got, noon)
	}
}

func TestNormalizeBSONDateField(t *testing.T) {
	s := ZooSchema()

	// A declared date field accepts both strings and BSON datetimes.
	fromString, err := normalizeBSON("zookeeper", "birthday", "1961-08-19", s)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := fromString.(record.Date)
	if !ok || d.String() != "1961-08-19" {
		t.Errorf("string date = %#v", fromString)
	}

	stamp := primitive.NewDateTimeFromTime(time.Date(1961, time.August, 19, 23, 0, 0, 0, time.UTC))
	fromStamp, err := normalizeBSON("zookeeper", "birthday", stamp, s)
	if err != nil {
		t.Fatal(err)
	}
	d, ok = fromStamp.(record.Date)
	if !ok || d.String() != "1961-08-19" {
		t.Errorf("datetime date = %#v", fromStamp)
	}

	if _, err := normalizeBSON("zookeeper", "birthday", "19/08/1961", s); err == nil {
		t.Error("malformed date string should fail")
	}
}

func TestNormalizeBSONRejectsCompounds(t *testing.T) {
	s := ZooSchema()
	_, err := normalizeBSON("animal", "tags", primitive.A{"a", "b"}, s)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error code = %s, want INVALID_FORMAT", errors.GetCode(err))
	}
}
