package emit

import (
	"testing"

	"m16/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

func word(buf []byte, addr isa.Word) isa.Word {
	return (isa.Word(buf[addr]) << 8) | isa.Word(buf[addr+1])
}

func TestADDImmediateEncoding(t *testing.T) {
	e := New()
	e.ADDi(0, 1, 3)
	got := word(e.Code(), 0)
	want := isa.Word(isa.OpADD)<<12 | 0<<9 | 1<<6 | 0x20 | 3
	assert(t, got == want, "expected %#04x, got %#04x", want, got)
}

func TestMOVImmMacroIsTwoInstructions(t *testing.T) {
	e := New()
	e.MOVImm(2, 5)
	andWord := word(e.Code(), 0)
	addWord := word(e.Code(), 2)
	assert(t, isa.DecodeOpcode(andWord) == isa.OpAND, "expected AND first, got opcode %d", isa.DecodeOpcode(andWord))
	assert(t, isa.DecodeOpcode(addWord) == isa.OpADD, "expected ADD second, got opcode %d", isa.DecodeOpcode(addWord))
}

func TestLabelForwardReferencePatchedByCompleteCode(t *testing.T) {
	e := New()
	assert(t, e.BRLabel(false, true, false, "done") == nil, "branch emission failed")
	e.NOP()
	assert(t, e.Label("done") == nil, "label definition failed")

	assert(t, e.CompleteCode() == nil, "complete code failed")

	inst := word(e.Code(), 0)
	offset := isa.SignExtInt(inst&0x1ff, 9)
	assert(t, offset == 1, "expected patched offset 1, got %d", offset)
}

func TestLabelDuplicateIsError(t *testing.T) {
	e := New()
	assert(t, e.Label("x") == nil, "first label definition should succeed")

	err := e.Label("x")
	assert(t, err != nil, "expected duplicate label error")
	var ee *EmitterError
	assert(t, asEmitErr(err, &ee) && ee.Kind == ErrDuplicateLabel, "expected ErrDuplicateLabel")
}

func TestCompleteCodeUndefinedLabelIsError(t *testing.T) {
	e := New()
	assert(t, e.BRLabel(true, true, true, "missing") == nil, "branch emission failed")

	err := e.CompleteCode()
	assert(t, err != nil, "expected undefined label error")
	var ee *EmitterError
	assert(t, asEmitErr(err, &ee) && ee.Kind == ErrUndefinedLabel, "expected ErrUndefinedLabel")
}

func asEmitErr(err error, target **EmitterError) bool {
	ee, ok := err.(*EmitterError)
	if ok {
		*target = ee
	}
	return ok
}

func TestRETEncodingMatchesJMPr7(t *testing.T) {
	e := New()
	e.RET()
	got := word(e.Code(), 0)
	assert(t, got == 0xc1c0, "expected 0xc1c0, got %#04x", got)
}

func TestRTIEncoding(t *testing.T) {
	e := New()
	e.RTI()
	got := word(e.Code(), 0)
	assert(t, got == 0x8000, "expected 0x8000, got %#04x", got)
}

func TestNOPIsAllZero(t *testing.T) {
	e := New()
	e.NOP()
	got := word(e.Code(), 0)
	assert(t, got == 0, "expected 0x0000, got %#04x", got)
	assert(t, isa.DecodeOpcode(got) == isa.OpBR, "nop should decode as BR")
}
