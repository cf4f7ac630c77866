package isa

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestSignExt(t *testing.T) {
	assert(t, SignExt(0x1f, 5) == 0xffff, "expected -1 sign extended from 5 bits, got %#x", SignExt(0x1f, 5))
	assert(t, SignExt(0x0f, 5) == 0x000f, "positive value should pass through, got %#x", SignExt(0x0f, 5))
	assert(t, SignExt(0x10, 5) == 0xfff0, "got %#x", SignExt(0x10, 5))
}

func TestSetGetBit(t *testing.T) {
	var w Word = 0
	w = SetBit(w, 15, true)
	assert(t, GetBit(w, 15), "bit 15 should be set")
	w = SetBit(w, 15, false)
	assert(t, !GetBit(w, 15), "bit 15 should be cleared")
}

func TestPSRFlags(t *testing.T) {
	var p PSR
	p = p.WithFlags(0)
	assert(t, p.Z() && !p.N() && !p.P(), "zero result should set Z only")

	p = p.WithFlags(0x8000)
	assert(t, p.N() && !p.Z() && !p.P(), "negative result should set N only")

	p = p.WithFlags(1)
	assert(t, p.P() && !p.N() && !p.Z(), "positive result should set P only")
}

func TestPSRPriority(t *testing.T) {
	var p PSR
	p = PSR(SetBit(Word(p), PSRPrioLo, true))
	assert(t, p.Priority() == 1, "expected priority 1, got %d", p.Priority())
}

func TestSubScr(t *testing.T) {
	assert(t, SubScr(0b111_0000_0000, 8, 11) == 0b111, "expected 3-bit field extracted, got %03b", SubScr(0b111_0000_0000, 8, 11))
}
