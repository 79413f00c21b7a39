package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"amara@flores.example", true},
		{"first.last+tag@sub.domain.io", true},
		{"UPPER@CASE.COM", true},
		{"", false},
		{"plainaddress", false},
		{"missing@tld", false},
		{"@no-local.example", false},
		{"spaces in@local.example", false},
	}
	for _, tc := range cases {
		if got := IsValidEmail(tc.email); got != tc.valid {
			t.Fatalf("IsValidEmail(%q) = %v, expected %v", tc.email, got, tc.valid)
		}
	}
}

func TestUniqueSlice(t *testing.T) {
	ints := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(ints) != 3 || ints[0] != 3 || ints[1] != 1 || ints[2] != 2 {
		t.Fatalf("expected [3 1 2] preserving first-seen order, got %v", ints)
	}

	strs := UniqueSlice([]string{"a", "a", "b"})
	if len(strs) != 2 || strs[0] != "a" || strs[1] != "b" {
		t.Fatalf("expected [a b], got %v", strs)
	}

	if got := UniqueSlice[int](nil); len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %v", got)
	}
}

func TestProcessValidationErrors(t *testing.T) {
	type form struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	v := validator.New()
	err := v.Struct(form{Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation failure")
	}

	details := ProcessValidationErrors(err)
	if details["name"] != "is required" {
		t.Fatalf("expected lower-cased field with required message, got %v", details)
	}
	if details["email"] != "must be a valid email address" {
		t.Fatalf("expected email message, got %v", details)
	}
}

func TestNilIfEmpty(t *testing.T) {
	if NilIfEmpty("") != nil {
		t.Fatalf("empty string should map to nil")
	}
	p := NilIfEmpty("x")
	if p == nil || *p != "x" {
		t.Fatalf("non-empty string should round-trip, got %v", p)
	}
}

func TestDereferencePtr(t *testing.T) {
	if got := DereferencePtr[int](nil); got != 0 {
		t.Fatalf("nil pointer should yield the zero value, got %d", got)
	}
	n := 7
	if got := DereferencePtr(&n); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
