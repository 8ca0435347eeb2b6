/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import "testing"

func TestResolutionErrorMessage(t *testing.T) {
	err := resolutionErrorf("method not found: %s.%s%s", "Foo", "bar", "()I")
	want := "method not found: Foo.bar()I"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestNullPointerErrorMessage(t *testing.T) {
	err := &NullPointerError{op: "getfield"}
	want := "NullPointerException (getfield)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDivisionByZeroErrorMessage(t *testing.T) {
	err := &DivisionByZeroError{op: "idiv"}
	want := "division by zero (idiv)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestUnsupportedOpcodeErrorUsesOpcodeName(t *testing.T) {
	err := &UnsupportedOpcodeError{Opcode: opIadd}
	got := err.Error()
	wantSuffix := OpcodeName(opIadd)
	if !containsString(got, wantSuffix) {
		t.Errorf("error %q does not mention opcode name %q", got, wantSuffix)
	}
}

func TestUnsupportedOpcodeErrorUnknownOpcode(t *testing.T) {
	err := &UnsupportedOpcodeError{Opcode: 0xff}
	got := err.Error()
	if !containsString(got, "unknown") {
		t.Errorf("got %q, want it to mention \"unknown\" for an unnamed opcode", got)
	}
}

func containsString(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
