package asm

import (
	"testing"

	"m16/emit"
	"m16/isa"
	"m16/sim"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

func wordAt(buf []byte, addr int) isa.Word {
	return (isa.Word(buf[addr]) << 8) | isa.Word(buf[addr+1])
}

func TestHelloHalt(t *testing.T) {
	code, err := Assemble([]byte(".orig x0\nhlt\n"))
	assert(t, err == nil, "assemble failed: %v", err)
	assert(t, code[0] == 0xf0, "expected byte0 == 0xf0, got %#02x", code[0])
	assert(t, code[1] == 0x25, "expected byte1 == 0x25, got %#02x", code[1])

	s := sim.New(false, false)
	s.LoadImage(code)
	s.WriteWord(0x4a, 0x0010)
	assert(t, s.Step() == nil, "step failed")
	assert(t, s.Halted(), "expected halted after one step")
}

func TestImmediateADD(t *testing.T) {
	code, err := Assemble([]byte("add r0, r0, #5\n"))
	assert(t, err == nil, "assemble failed: %v", err)
	assert(t, wordAt(code, 0) == 0x1025, "expected 0x1025, got %#04x", wordAt(code, 0))

	s := sim.New(false, false)
	s.LoadImage(code)
	assert(t, s.Step() == nil, "step failed")
	assert(t, s.Register(isa.R0) == 5, "expected r0 == 5, got %d", s.Register(isa.R0))
	assert(t, s.Register(isa.RPSR)&1 != 0, "expected P flag set") // PSRPBit == bit 0
}

func TestNegativeImmediateAndFlags(t *testing.T) {
	code, err := Assemble([]byte("add r1, r1, #-1\n"))
	assert(t, err == nil, "assemble failed: %v", err)

	s := sim.New(false, false)
	s.LoadImage(code)
	assert(t, s.Step() == nil, "step failed")
	assert(t, s.Register(isa.R1) == 0xffff, "expected r1 == 0xffff, got %#x", s.Register(isa.R1))

	psr := isa.PSR(s.Register(isa.RPSR))
	assert(t, psr.N() && !psr.Z() && !psr.P(), "expected N flag only")
}

func TestForwardBranchAndLabel(t *testing.T) {
	src := ".orig x0\n" +
		"    brnzp end\n" +
		"    add r0, r0, #1\n" +
		"end:\n" +
		"    hlt\n"
	code, err := Assemble([]byte(src))
	assert(t, err == nil, "assemble failed: %v", err)
	assert(t, wordAt(code, 0) == 0x0e01, "expected 0x0e01, got %#04x", wordAt(code, 0))

	s := sim.New(false, false)
	s.LoadImage(code)
	s.WriteWord(0x4a, 0x0010)
	assert(t, s.Step() == nil, "branch step failed")
	assert(t, s.Register(isa.RPC) == 4, "expected pc skip to 4, got %d", s.Register(isa.RPC))
	assert(t, s.Step() == nil, "halt step failed")
	assert(t, s.Halted(), "expected halted")
	assert(t, s.Register(isa.R0) == 0, "expected r0 unchanged, got %d", s.Register(isa.R0))
}

func TestLEASelfRelative(t *testing.T) {
	code, err := Assemble([]byte(".orig x0\nlea r0, #0\nhlt\n"))
	assert(t, err == nil, "assemble failed: %v", err)

	s := sim.New(false, false)
	s.LoadImage(code)
	assert(t, s.Step() == nil, "step failed")
	assert(t, s.Register(isa.R0) == 2, "expected r0 == 2, got %d", s.Register(isa.R0))
}

func TestJSRAndRET(t *testing.T) {
	src := ".orig x0\n" +
		"    jsr sub\n" +
		"    hlt\n" +
		"sub:\n" +
		"    ret\n"
	code, err := Assemble([]byte(src))
	assert(t, err == nil, "assemble failed: %v", err)

	s := sim.New(false, false)
	s.LoadImage(code)
	assert(t, s.Step() == nil, "jsr step failed")
	assert(t, s.Register(isa.RLR) == 2, "expected r7 == 2, got %d", s.Register(isa.RLR))
	assert(t, s.Register(isa.RPC) == 4, "expected pc == 4, got %d", s.Register(isa.RPC))

	assert(t, s.Step() == nil, "ret step failed")
	assert(t, s.Register(isa.RPC) == 2, "expected pc == 2 after ret, got %d", s.Register(isa.RPC))
}

// TestRoundTripAgainstEmitter checks the round-trip law from spec.md
// §8: assembling a single instruction produces the same bytes as the
// emitter's corresponding method.
func TestRoundTripAgainstEmitter(t *testing.T) {
	cases := []struct {
		name string
		src  string
		emit func(e *emit.Emitter)
	}{
		{"add-reg", "add r2, r3, r4\n", func(e *emit.Emitter) { e.ADD(2, 3, 4) }},
		{"add-imm", "add r0, r0, #-3\n", func(e *emit.Emitter) { e.ADDi(0, 0, -3) }},
		{"and-imm", "and r1, r1, #7\n", func(e *emit.Emitter) { e.ANDi(1, 1, 7) }},
		{"ldr", "ldr r0, r6, #2\n", func(e *emit.Emitter) { e.LDR(0, 6, 2) }},
		{"str", "str r0, r6, #2\n", func(e *emit.Emitter) { e.STR(0, 6, 2) }},
		{"ldb", "ldb r0, r1, #1\n", func(e *emit.Emitter) { e.LDB(0, 1, 1) }},
		{"stb", "stb r0, r1, #1\n", func(e *emit.Emitter) { e.STB(0, 1, 1) }},
		{"not", "not r0, r1\n", func(e *emit.Emitter) { e.NOT(0, 1) }},
		{"mul-imm", "mul r0, r1, #3\n", func(e *emit.Emitter) { e.MULi(0, 1, 3) }},
		{"div", "div r0, r1, r2\n", func(e *emit.Emitter) { e.DIV(0, 1, 2) }},
		{"mod", "mod r0, r1, r2\n", func(e *emit.Emitter) { e.MOD(0, 1, 2) }},
		{"jmp", "jmp r2\n", func(e *emit.Emitter) { e.JMP(2) }},
		{"jsrr", "jsr r2\n", func(e *emit.Emitter) { e.JSRR(2) }},
		{"lshf", "lshf r0, r1, #4\n", func(e *emit.Emitter) { e.SHFL(0, 1, 4) }},
		{"rshf", "rshf r0, r1, #4\n", func(e *emit.Emitter) { e.SHFR(0, 1, 4) }},
		{"arshf", "arshf r0, r1, #4\n", func(e *emit.Emitter) { e.SHFRA(0, 1, 4) }},
		{"lea", "lea r0, #5\n", func(e *emit.Emitter) { e.LEA(0, 5) }},
		{"trap", "trap x25\n", func(e *emit.Emitter) { e.TRAP(0x25) }},
		{"rti", "rti\n", func(e *emit.Emitter) { e.RTI() }},
		{"ret", "ret\n", func(e *emit.Emitter) { e.RET() }},
		{"nop", "nop\n", func(e *emit.Emitter) { e.NOP() }},
	}

	for _, c := range cases {
		asmCode, err := Assemble([]byte(c.src))
		assert(t, err == nil, "%s: assemble failed: %v", c.name, err)

		e := emit.New()
		c.emit(e)

		assert(t, wordAt(asmCode, 0) == wordAt(e.Code(), 0),
			"%s: asm produced %#04x, emit produced %#04x", c.name, wordAt(asmCode, 0), wordAt(e.Code(), 0))
	}
}

func TestBlkOverflowRejected(t *testing.T) {
	_, err := Assemble([]byte(".orig xfffe\n.blk xffff\n"))
	assert(t, err != nil, "expected .blk overflow to be rejected")
}

func TestUnreachableLabelRejected(t *testing.T) {
	src := "brnzp far\n" +
		".blk x200\n" +
		"far:\n" +
		"hlt\n"
	_, err := Assemble([]byte(src))
	assert(t, err != nil, "expected unreachable label error")
}
