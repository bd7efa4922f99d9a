package value

import "testing"

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0.0, true},
		{"", true},
		{"false", true},
	}
	for _, tt := range tests {
		if got := IsTruthy(tt.v); got != tt.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEqualPrimitives(t *testing.T) {
	if !Equal(1.0, 1.0) {
		t.Errorf("expected 1.0 == 1.0")
	}
	if Equal(1.0, 2.0) {
		t.Errorf("expected 1.0 != 2.0")
	}
	if !Equal("hi", "hi") {
		t.Errorf("expected equal strings with same content to be equal")
	}
	if Equal("hi", "bye") {
		t.Errorf("expected different strings to be unequal")
	}
	if !Equal(nil, nil) {
		t.Errorf("expected nil == nil")
	}
	if Equal(nil, false) {
		t.Errorf("expected nil != false despite both being falsey")
	}
	if Equal(1.0, "1") {
		t.Errorf("expected number and string of different types to be unequal")
	}
}

type fakeObj struct{ n int }

func TestEqualObjectIdentity(t *testing.T) {
	a := &fakeObj{n: 1}
	b := &fakeObj{n: 1}
	if !Equal(a, a) {
		t.Errorf("expected pointer equal to itself")
	}
	if Equal(a, b) {
		t.Errorf("expected distinct pointers with identical contents to be unequal")
	}
}

func TestPrintNumbers(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{7, "7"},
		{7.5, "7.5"},
		{0, "0"},
		{-3.25, "-3.25"},
	}
	for _, tt := range tests {
		if got := Print(tt.in); got != tt.want {
			t.Errorf("Print(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintOthers(t *testing.T) {
	if Print(nil) != "nil" {
		t.Errorf("expected nil to print as nil")
	}
	if Print(true) != "true" || Print(false) != "false" {
		t.Errorf("expected booleans to print as true/false")
	}
	if Print("hello") != "hello" {
		t.Errorf("expected strings to print unquoted")
	}
}
