package serialize

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
)

// coerce converts a leaf field value into a JSON-safe scalar.
//
// Strings, booleans, and numbers pass through unchanged. Dates format as
// "YYYY-MM-DD", timestamps as RFC 3339, UUIDs as their canonical string.
// Nil passes through as nil. Anything else is a schema gap and fails with
// UNSUPPORTED_TYPE naming the field and type.
func coerce(field string, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case record.Date:
		return x.String(), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case uuid.UUID:
		return x.String(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedType,
			"field %q has unsupported type %T", field, v)
	}
}
