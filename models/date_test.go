package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/craftlane/agency_backend/utils"
)

func TestDateUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{`"2026-03-15"`, "2026-03-15"},
		{`"2026-03-15T10:30:00Z"`, "2026-03-15"},
	}
	for _, tc := range cases {
		var d Date
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("Unmarshal(%s) = %s, expected %s", tc.in, d.String(), tc.expected)
		}
	}

	var zero Date
	if err := json.Unmarshal([]byte(`""`), &zero); err != nil {
		t.Fatalf("empty string should unmarshal to the zero date: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("expected zero date, got %s", zero.String())
	}

	var bad Date
	if err := json.Unmarshal([]byte(`"15/03/2026"`), &bad); err == nil {
		t.Fatalf("expected error for a non-ISO date")
	}
}

func TestDateMarshalJSON(t *testing.T) {
	d := NewDate(2026, time.March, 5)
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"2026-03-05"` {
		t.Fatalf("Marshal = %s, expected \"2026-03-05\"", out)
	}
}

func TestDateValue(t *testing.T) {
	var zero Date
	v, err := zero.Value()
	if err != nil {
		t.Fatalf("Value(zero): %v", err)
	}
	if v != nil {
		t.Fatalf("zero date should store NULL, got %v", v)
	}

	v, err = NewDate(2026, time.January, 31).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "2026-01-31" {
		t.Fatalf("Value = %v, expected 2026-01-31", v)
	}
}

func TestParseDateParam(t *testing.T) {
	d, err := ParseDateParam("dateFrom", "")
	if err != nil || d != nil {
		t.Fatalf("empty value should parse to nil, got (%v, %v)", d, err)
	}

	d, err = ParseDateParam("dateFrom", "2026-01-31")
	if err != nil {
		t.Fatalf("ParseDateParam: %v", err)
	}
	if d == nil || d.String() != "2026-01-31" {
		t.Fatalf("expected 2026-01-31, got %v", d)
	}

	_, err = ParseDateParam("dateTo", "Jan 31")
	if err == nil {
		t.Fatalf("expected error for a malformed date")
	}
	ve, ok := utils.AsValidationError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %T", err)
	}
	if _, ok := ve.Details["dateTo"]; !ok {
		t.Fatalf("expected the error to name the dateTo field, got %v", ve.Details)
	}
}

func TestDateOrdering(t *testing.T) {
	early := NewDate(2026, time.February, 1)
	late := NewDate(2026, time.February, 2)
	if !early.Before(late) || late.Before(early) {
		t.Fatalf("Before ordering is wrong")
	}
	if !late.After(early) || early.After(late) {
		t.Fatalf("After ordering is wrong")
	}
	if Today().IsZero() {
		t.Fatalf("Today should not be the zero date")
	}
}
