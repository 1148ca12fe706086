package utils

import "testing"

func TestDigitsOnly(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765-43210", "919876543210"},
		{"(987) 654 3210", "9876543210"},
		{"21-08-2006", "21082006"},
		{"no digits", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DigitsOnly(tc.in); got != tc.want {
			t.Fatalf("DigitsOnly(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDereferencePtr(t *testing.T) {
	if DereferencePtr[bool](nil) {
		t.Fatal("nil *bool should dereference to false")
	}
	if !DereferencePtr(NewTrue()) {
		t.Fatal("NewTrue should dereference to true")
	}
	if got := DereferencePtr[int](nil, 7); got != 7 {
		t.Fatalf("nil with default = %d, want 7", got)
	}
	v := "x"
	if got := DereferencePtr(&v, "fallback"); got != "x" {
		t.Fatalf("set pointer = %q, want the pointed-to value", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("UniqueSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueSlice = %v, want %v (order preserved)", got, want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("23691a3201@student.ch360.edu.in") {
		t.Fatal("student address should be valid")
	}
	if IsValidEmail("not-an-email") {
		t.Fatal("missing @ should be invalid")
	}
}
