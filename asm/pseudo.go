package asm

import "m16/isa"

// strzPseudoOp implements `.strz "text"`: emits the string's bytes
// with backslash escapes resolved, followed by a NUL terminator. The
// lexer hands over the raw (unescaped) contents between quotes; this
// is where the escape table lives, matching the original's inline
// switch in strzPseudoOp (anomaly: the original's unterminated-string
// error names the pseudo-op ".strnz", a typo preserved verbatim in the
// message text Lex raises for a string cut off by end of input).
func (a *Assembler) strzPseudoOp() error {
	t := a.peek()
	if t.Kind != TokString {
		return errf(a.line(), "'\"' expected after '.strz'")
	}
	a.advance()

	raw := t.Text
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			a.emitByte(c)
			continue
		}

		i++
		switch raw[i] {
		case '0':
			a.emitByte(0)
		case 'a':
			a.emitByte('\a')
		case 'b':
			a.emitByte('\b')
		case 'f':
			a.emitByte('\f')
		case 'n':
			a.emitByte('\n')
		case 'r':
			a.emitByte('\r')
		case 't':
			a.emitByte('\t')
		case 'v':
			a.emitByte('\v')
		case '\\':
			a.emitByte('\\')
		default:
			a.emitByte('\\')
			a.emitByte(raw[i])
		}
	}

	a.emitByte(0)
	return nil
}

// datPseudoOp implements `.dat value[, value...]`: each value is a
// signed 16-bit literal or label reference, emitted as a big-endian
// word.
func (a *Assembler) datPseudoOp() error {
	for {
		val, err := a.expectSigned(16)
		if err != nil {
			return err
		}
		a.emitWord(isa.Word(uint16(val)))

		if a.peek().Kind != TokComma {
			return nil
		}
		a.advance()
	}
}

// blkPseudoOp implements `.blk size`: reserves size bytes by
// advancing the write cursor without emitting anything.
func (a *Assembler) blkPseudoOp() error {
	size, err := a.expectUnsigned(16)
	if err != nil {
		return err
	}
	if isa.Word(isa.MaxMemSize)-a.pc < size {
		return errf(a.line(), "space needed to be reserved is too large")
	}
	a.pc += size
	return nil
}

// origPseudoOp implements `.orig address`: repositions the write
// cursor.
func (a *Assembler) origPseudoOp() error {
	addr, err := a.expectUnsigned(16)
	if err != nil {
		return err
	}
	a.pc = addr
	return nil
}
