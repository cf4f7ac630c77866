package asm

import "m16/isa"

// mnemonics maps full mnemonic/pseudo-op text to the handler that
// parses its operands and emits the instruction. This replaces the
// original's nested character-by-character switch tree (case 'a' ->
// case 'd'/'n'/'r' -> checkRest(...)) with a single flat table,
// populated once at package init instead of re-walked on every line.
var mnemonics map[string]func(*Assembler) error

func init() {
	mnemonics = map[string]func(*Assembler) error{
		".strz": func(a *Assembler) error { return a.strzPseudoOp() },
		".dat":  func(a *Assembler) error { return a.datPseudoOp() },
		".blk":  func(a *Assembler) error { return a.blkPseudoOp() },
		".orig": func(a *Assembler) error { return a.origPseudoOp() },

		"add": func(a *Assembler) error { return rrirOp(a, isa.OpADD) },
		"and": func(a *Assembler) error { return rrirOp(a, isa.OpAND) },
		"mul": func(a *Assembler) error { return rrirOp(a, isa.OpMUL) },

		"ldr": func(a *Assembler) error { return rrbOp(a, isa.OpLDR, 6) },
		"ldb": func(a *Assembler) error { return rrbOp(a, isa.OpLDB, 6) },
		"str": func(a *Assembler) error { return rrbOp(a, isa.OpSTR, 6) },
		"stb": func(a *Assembler) error { return rrbOp(a, isa.OpSTB, 6) },

		"div": func(a *Assembler) error { return divModOp(a, false) },
		"mod": func(a *Assembler) error { return divModOp(a, true) },

		"lshf":  func(a *Assembler) error { return shiftOp(a, true, false) },
		"rshf":  func(a *Assembler) error { return shiftOp(a, false, false) },
		"arshf": func(a *Assembler) error { return shiftOp(a, false, true) },

		"lea":  leaOp,
		"trap": trapOp,
		"jsr":  jsrOp,
		"jmp":  jmpOp,
		"not":  notOp,

		"hlt": func(a *Assembler) error { a.emitWord(0xf025); return nil },
		"nop": func(a *Assembler) error { a.emitWord(0); return nil },
		"ret": func(a *Assembler) error { a.emitWord(0xc1c0); return nil },
		"rti": func(a *Assembler) error { a.emitWord(0x8000); return nil },

		"br":     func(a *Assembler) error { return brOp(a, false, false, false) },
		"brn":    func(a *Assembler) error { return brOp(a, true, false, false) },
		"brz":    func(a *Assembler) error { return brOp(a, false, true, false) },
		"brp":    func(a *Assembler) error { return brOp(a, false, false, true) },
		"brnz":   func(a *Assembler) error { return brOp(a, true, true, false) },
		"brnp":   func(a *Assembler) error { return brOp(a, true, false, true) },
		"brzp":   func(a *Assembler) error { return brOp(a, false, true, true) },
		"brnzp":  func(a *Assembler) error { return brOp(a, true, true, true) },
	}
}

// rrirOp implements the `add`/`and`/`mul` grammar: `op rd, rs1,
// (rs2|imm5)`.
func rrirOp(a *Assembler, opcode isa.Opcode) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	rs1, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}

	val, isReg, err := a.expectRegisterOrSigned(5)
	if err != nil {
		return err
	}

	op := isa.Word(opcode)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(rs1)&0x7)<<6
	if isReg {
		op |= isa.Word(val) & 0x7
	} else {
		op |= 1<<5 | (isa.Word(val) & 0x1f)
	}
	a.emitWord(op)
	return nil
}

// rrbOp implements the `ldr`/`ldb`/`str`/`stb` grammar: `op rd, base,
// offset`.
func rrbOp(a *Assembler, opcode isa.Opcode, offsetSize int) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	base, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	offset, err := a.expectSigned(offsetSize)
	if err != nil {
		return err
	}

	op := isa.Word(opcode)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(base)&0x7)<<6 | (isa.Word(uint16(offset)) & 0x3f)
	a.emitWord(op)
	return nil
}

func brOp(a *Assembler, n, z, p bool) error {
	offset, err := a.expectSigned(9)
	if err != nil {
		return err
	}

	op := isa.Word(isa.OpBR) << 12
	if n {
		op |= 1 << 11
	}
	if z {
		op |= 1 << 10
	}
	if p {
		op |= 1 << 9
	}
	op |= isa.Word(uint16(offset)) & 0x1ff
	a.emitWord(op)
	return nil
}

func leaOp(a *Assembler) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	offset, err := a.expectSigned(9)
	if err != nil {
		return err
	}

	op := isa.Word(isa.OpLEA)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(uint16(offset)) & 0x1ff)
	a.emitWord(op)
	return nil
}

func trapOp(a *Assembler) error {
	vector, err := a.expectUnsigned(8)
	if err != nil {
		return err
	}
	op := isa.Word(isa.OpTRAP)<<12 | (vector & 0xff)
	a.emitWord(op)
	return nil
}

func jsrOp(a *Assembler) error {
	val, isReg, err := a.expectRegisterOrSigned(11)
	if err != nil {
		return err
	}

	op := isa.Word(isa.OpJSR) << 12
	if isReg {
		op |= (isa.Word(val) & 0x7) << 6
	} else {
		op |= 1<<11 | (isa.Word(uint16(val)) & 0x7ff)
	}
	a.emitWord(op)
	return nil
}

func jmpOp(a *Assembler) error {
	base, err := a.expectRegister()
	if err != nil {
		return err
	}
	op := isa.Word(isa.OpJMP)<<12 | (isa.Word(base)&0x7)<<6
	a.emitWord(op)
	return nil
}

func notOp(a *Assembler) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	rs, err := a.expectRegister()
	if err != nil {
		return err
	}
	op := isa.Word(isa.OpNOT)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(rs)&0x7)<<6
	a.emitWord(op)
	return nil
}

func divModOp(a *Assembler, isMod bool) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	rs1, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	rs2, err := a.expectRegister()
	if err != nil {
		return err
	}

	op := isa.Word(isa.OpDIVMOD)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(rs1)&0x7)<<6 | (isa.Word(rs2) & 0x7)
	if isMod {
		op |= 0x20
	}
	a.emitWord(op)
	return nil
}

func shiftOp(a *Assembler, isLeft, isArith bool) error {
	rd, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	rs, err := a.expectRegister()
	if err != nil {
		return err
	}
	if err := a.expectComma(); err != nil {
		return err
	}
	imm4, err := a.expectUnsigned(4)
	if err != nil {
		return err
	}

	op := isa.Word(isa.OpSHF)<<12 | (isa.Word(rd)&0x7)<<9 | (isa.Word(rs)&0x7)<<6 | (imm4 & 0xf)
	if isArith {
		op |= 1 << 5
	}
	if isLeft {
		op |= 1 << 4
	}
	a.emitWord(op)
	return nil
}
