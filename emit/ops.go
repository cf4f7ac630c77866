package emit

import "m16/isa"

// BR emits a conditional branch testing whichever of n/z/p are true
// against a literal 9-bit signed word offset.
func (e *Emitter) BR(n, z, p bool, offset9 int) {
	op := isa.Word(isa.OpBR) << 12
	op |= boolBit(n) << 11
	op |= boolBit(z) << 10
	op |= boolBit(p) << 9
	op |= isa.Word(offset9) & 0x1ff
	e.emitWord(op)
}

// BRLabel is BR but the offset is resolved from a label, patched by
// CompleteCode if the label isn't defined yet.
func (e *Emitter) BRLabel(n, z, p bool, label string) error {
	offset, err := e.label(label, 9)
	if err != nil {
		return err
	}
	e.BR(n, z, p, int(int16(offset)))
	return nil
}

// ADD emits the register-register form: dest = src1 + src2.
func (e *Emitter) ADD(dest, src1, src2 int) {
	e.emitWord(rrr(isa.OpADD, dest, src1, src2))
}

// ADDi emits the register-immediate form: dest = src1 + sext(imm5).
func (e *Emitter) ADDi(dest, src1, imm5 int) {
	e.emitWord(rri(isa.OpADD, dest, src1, imm5))
}

// LDB loads a zero-extended byte from base + sext(offset6).
func (e *Emitter) LDB(dest, base, offset6 int) {
	e.emitWord(rro(isa.OpLDB, dest, base, offset6, 0x3f))
}

// STB stores the low byte of src to base + sext(offset6).
func (e *Emitter) STB(src, base, offset6 int) {
	e.emitWord(rro(isa.OpSTB, src, base, offset6, 0x3f))
}

// JSR emits the PC-relative subroutine call form.
func (e *Emitter) JSR(offset11 int) {
	op := isa.Word(isa.OpJSR)<<12 | 1<<11 | (isa.Word(offset11) & 0x7ff)
	e.emitWord(op)
}

// JSRLabel is JSR but the offset is resolved from a label.
func (e *Emitter) JSRLabel(label string) error {
	offset, err := e.label(label, 11)
	if err != nil {
		return err
	}
	e.JSR(int(int16(offset)))
	return nil
}

// JSRR emits the register-indirect subroutine call form.
func (e *Emitter) JSRR(base int) {
	op := isa.Word(isa.OpJSR)<<12 | (isa.Word(base) & 0x7 << 6)
	e.emitWord(op)
}

// AND emits the register-register form: dest = src1 & src2.
func (e *Emitter) AND(dest, src1, src2 int) {
	e.emitWord(rrr(isa.OpAND, dest, src1, src2))
}

// ANDi emits the register-immediate form: dest = src1 & sext(imm5).
func (e *Emitter) ANDi(dest, src1, imm5 int) {
	e.emitWord(rri(isa.OpAND, dest, src1, imm5))
}

// LDR loads a word from base + (sext(offset6) << 1).
func (e *Emitter) LDR(dest, base, offset6 int) {
	e.emitWord(rro(isa.OpLDR, dest, base, offset6, 0x3f))
}

// STR stores src as a word to base + (sext(offset6) << 1).
func (e *Emitter) STR(src, base, offset6 int) {
	e.emitWord(rro(isa.OpSTR, src, base, offset6, 0x3f))
}

// RTI emits the return-from-interrupt instruction.
func (e *Emitter) RTI() {
	e.emitWord(isa.Word(isa.OpRTI) << 12)
}

// NOT emits dest = ^src1.
func (e *Emitter) NOT(dest, src1 int) {
	op := isa.Word(isa.OpNOT)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6
	e.emitWord(op)
}

// MUL emits the register-register form: dest = src1 * src2.
func (e *Emitter) MUL(dest, src1, src2 int) {
	e.emitWord(rrr(isa.OpMUL, dest, src1, src2))
}

// MULi emits the register-immediate form: dest = src1 * sext(imm5).
func (e *Emitter) MULi(dest, src1, imm5 int) {
	e.emitWord(rri(isa.OpMUL, dest, src1, imm5))
}

// DIV emits dest = src1 / src2 (register-register only; there is no
// immediate form for DIV/MOD).
func (e *Emitter) DIV(dest, src1, src2 int) {
	e.emitWord(rrr(isa.OpDIVMOD, dest, src1, src2))
}

// MOD emits dest = src1 % src2.
func (e *Emitter) MOD(dest, src1, src2 int) {
	op := rrr(isa.OpDIVMOD, dest, src1, src2) | 0x20
	e.emitWord(op)
}

// JMP emits an unconditional jump to base (low bit cleared on
// execution, not at emit time).
func (e *Emitter) JMP(base int) {
	op := isa.Word(isa.OpJMP)<<12 | (isa.Word(base)&0x7)<<6
	e.emitWord(op)
}

// RET emits JMP r7, the conventional subroutine return.
func (e *Emitter) RET() {
	e.JMP(isa.RLR)
}

// SHFL emits a logical left shift by imm4 bits.
func (e *Emitter) SHFL(dest, src1, imm4 int) {
	op := isa.Word(isa.OpSHF)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6 | 1<<4 | (isa.Word(imm4) & 0xf)
	e.emitWord(op)
}

// SHFR emits a logical right shift by imm4 bits.
func (e *Emitter) SHFR(dest, src1, imm4 int) {
	op := isa.Word(isa.OpSHF)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6 | (isa.Word(imm4) & 0xf)
	e.emitWord(op)
}

// SHFRA emits an arithmetic (sign-preserving) right shift by imm4 bits.
func (e *Emitter) SHFRA(dest, src1, imm4 int) {
	op := isa.Word(isa.OpSHF)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6 | 1<<5 | (isa.Word(imm4) & 0xf)
	e.emitWord(op)
}

// LEA emits dest = PC + (sext(offset9) << 1), PC meaning the address
// of the following instruction.
func (e *Emitter) LEA(dest, offset9 int) {
	op := isa.Word(isa.OpLEA)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(offset9) & 0x1ff)
	e.emitWord(op)
}

// LEALabel is LEA but the offset is resolved from a label.
func (e *Emitter) LEALabel(dest int, label string) error {
	offset, err := e.label(label, 9)
	if err != nil {
		return err
	}
	e.LEA(dest, int(int16(offset)))
	return nil
}

// TRAP emits a system call through the trap vector table at vector.
func (e *Emitter) TRAP(vector int) {
	op := isa.Word(isa.OpTRAP)<<12 | (isa.Word(vector) & 0xff)
	e.emitWord(op)
}

// NOP emits the all-zero word, which decodes as BR with no condition
// bits set (branch never taken) — there is no dedicated NOP opcode.
func (e *Emitter) NOP() {
	e.emitWord(0)
}

// HLT emits TRAP 0x25, the conventional halt vector.
func (e *Emitter) HLT() {
	e.TRAP(0x25)
}

// MOVReg emits the fixed dest = src register-move macro: AND dest,
// dest, #0 followed by ADD dest, dest, src.
func (e *Emitter) MOVReg(dest, src int) {
	e.ANDi(dest, dest, 0)
	e.ADD(dest, dest, src)
}

// MOVImm emits the fixed dest = imm5 macro.
func (e *Emitter) MOVImm(dest, imm5 int) {
	e.ANDi(dest, dest, 0)
	e.ADDi(dest, dest, imm5)
}

// MOVLabel emits the fixed dest = word-at-label macro: LEA dest,
// label followed by LDR dest, dest, #0.
func (e *Emitter) MOVLabel(dest int, label string) error {
	if err := e.LEALabel(dest, label); err != nil {
		return err
	}
	e.LDR(dest, dest, 0)
	return nil
}

func boolBit(b bool) isa.Word {
	if b {
		return 1
	}
	return 0
}

func rrr(op isa.Opcode, dest, src1, src2 int) isa.Word {
	return isa.Word(op)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6 | (isa.Word(src2) & 0x7)
}

func rri(op isa.Opcode, dest, src1, imm5 int) isa.Word {
	return isa.Word(op)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(src1)&0x7)<<6 | 1<<5 | (isa.Word(imm5) & 0x1f)
}

func rro(op isa.Opcode, dest, base, offset, mask int) isa.Word {
	return isa.Word(op)<<12 | (isa.Word(dest)&0x7)<<9 | (isa.Word(base)&0x7)<<6 | (isa.Word(offset) & isa.Word(mask))
}
