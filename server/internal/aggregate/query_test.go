package aggregate

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseQuery_Valid(t *testing.T) {
	q, err := ParseQuery([]byte(`{"regions": ["apac", "emea", "apac"], "threshold_ms": 165.5}`))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if len(q.Regions) != 3 || q.Regions[0] != "apac" || q.Regions[2] != "apac" {
		t.Errorf("Regions: got %v", q.Regions)
	}
	if q.ThresholdMs != 165.5 {
		t.Errorf("ThresholdMs: got %v, want 165.5", q.ThresholdMs)
	}
}

func TestParseQuery_DefaultThreshold(t *testing.T) {
	for _, body := range []string{
		`{"regions": ["apac"]}`,
		`{"regions": ["apac"], "threshold_ms": null}`,
	} {
		q, err := ParseQuery([]byte(body))
		if err != nil {
			t.Fatalf("ParseQuery(%s): %v", body, err)
		}
		if q.ThresholdMs != 180 {
			t.Errorf("ParseQuery(%s).ThresholdMs: got %v, want 180", body, q.ThresholdMs)
		}
	}
}

func TestParseQuery_ZeroThresholdKept(t *testing.T) {
	q, err := ParseQuery([]byte(`{"regions": [], "threshold_ms": 0}`))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.ThresholdMs != 0 {
		t.Errorf("ThresholdMs: got %v, want 0", q.ThresholdMs)
	}
	if q.Regions == nil || len(q.Regions) != 0 {
		t.Errorf("Regions: got %#v, want empty", q.Regions)
	}
}

func TestQueryParser_CustomDefault(t *testing.T) {
	q, err := QueryParser{DefaultThresholdMs: 250}.Parse([]byte(`{"regions": ["apac"]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q.ThresholdMs != 250 {
		t.Errorf("ThresholdMs: got %v, want 250", q.ThresholdMs)
	}
}

func TestParseQuery_IgnoresUnknownFields(t *testing.T) {
	if _, err := ParseQuery([]byte(`{"regions": ["apac"], "percentile": 99}`)); err != nil {
		t.Errorf("ParseQuery: %v", err)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", ``, ""},
		{"not json", `regions=apac`, ""},
		{"array body", `["apac"]`, ""},
		{"string body", `"apac"`, ""},
		{"null body", `null`, "regions"},
		{"missing regions", `{"threshold_ms": 100}`, "regions"},
		{"null regions", `{"regions": null}`, "regions"},
		{"regions string", `{"regions": "apac"}`, "regions"},
		{"regions numbers", `{"regions": [1, 2]}`, "regions"},
		{"regions null element", `{"regions": ["apac", null]}`, "regions"},
		{"threshold string", `{"regions": ["apac"], "threshold_ms": "180"}`, "threshold_ms"},
		{"threshold bool", `{"regions": ["apac"], "threshold_ms": true}`, "threshold_ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuery([]byte(tc.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var qe *InvalidQueryError
			if !errors.As(err, &qe) {
				t.Fatalf("error %v is not *InvalidQueryError", err)
			}
			if qe.Field != tc.field {
				t.Errorf("Field: got %q, want %q (err %v)", qe.Field, tc.field, err)
			}
		})
	}
}

func TestInvalidQueryError_Unwrap(t *testing.T) {
	_, err := ParseQuery([]byte(`{"regions": ["apac"], "threshold_ms": "fast"}`))
	var te *json.UnmarshalTypeError
	if !errors.As(err, &te) {
		t.Fatalf("error %v does not wrap *json.UnmarshalTypeError", err)
	}
	want := "invalid query: threshold_ms: wrong type: got string, want number"
	if err.Error() != want {
		t.Errorf("Error():\n got %q\nwant %q", err.Error(), want)
	}
}
