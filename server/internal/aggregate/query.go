package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InvalidQueryError reports a request body that cannot be turned into a Query.
type InvalidQueryError struct {
	Field  string // offending JSON field, empty for body-level problems
	Reason string
	Err    error
}

func (e *InvalidQueryError) Error() string {
	if e.Field == "" {
		return "invalid query: " + e.Reason
	}
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Reason)
}

func (e *InvalidQueryError) Unwrap() error { return e.Err }

// rawQuery mirrors the request body. Pointers separate absent (or null)
// fields from zero values.
type rawQuery struct {
	Regions     []*string `json:"regions"`
	ThresholdMs *float64  `json:"threshold_ms"`
}

// QueryParser validates request bodies into Queries.
type QueryParser struct {
	// DefaultThresholdMs applies when threshold_ms is absent or null.
	DefaultThresholdMs float64
}

// ParseQuery parses body with the standard 180 ms default threshold.
func ParseQuery(body []byte) (Query, error) {
	return QueryParser{DefaultThresholdMs: DefaultThresholdMs}.Parse(body)
}

// Parse validates body, which must be a JSON object with a "regions" array of
// strings and an optional numeric "threshold_ms". Unknown fields are ignored.
func (p QueryParser) Parse(body []byte) (Query, error) {
	var raw rawQuery
	if err := json.Unmarshal(body, &raw); err != nil {
		return Query{}, decodeError(err)
	}

	if raw.Regions == nil {
		return Query{}, &InvalidQueryError{Field: "regions", Reason: "is required"}
	}
	regions := make([]string, len(raw.Regions))
	for i, r := range raw.Regions {
		if r == nil {
			return Query{}, &InvalidQueryError{
				Field:  "regions",
				Reason: fmt.Sprintf("element %d must be a string, got null", i),
			}
		}
		regions[i] = *r
	}

	q := Query{Regions: regions, ThresholdMs: p.DefaultThresholdMs}
	if raw.ThresholdMs != nil {
		q.ThresholdMs = *raw.ThresholdMs
	}
	return q, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return &InvalidQueryError{
				Reason: fmt.Sprintf("body must be a JSON object, got %s", typeErr.Value),
				Err:    err,
			}
		}
		return &InvalidQueryError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("wrong type: got %s, want %s", typeErr.Value, jsonTypeName(typeErr.Field)),
			Err:    err,
		}
	}
	return &InvalidQueryError{Reason: "malformed JSON: " + err.Error(), Err: err}
}

func jsonTypeName(field string) string {
	switch field {
	case "threshold_ms":
		return "number"
	default:
		return "array of strings"
	}
}
