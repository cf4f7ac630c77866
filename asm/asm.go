// Package asm implements MicrAsm, the M16 assembler: it turns source
// text into a flat memory image using the same label table / patch
// list approach as the emitter, but driven off a lexed token stream
// and MicrAsm's own mnemonic and pseudo-op grammar.
package asm

import (
	"strconv"

	"m16/isa"
)

type patchedLabel struct {
	name       string
	addr       isa.Word
	offsetSize int
	line       int
}

// Assembler holds the state of one assembly pass: the lexed tokens,
// the write cursor into a fixed owned image buffer, and the label
// table / forward-patch list that get reconciled at the end.
type Assembler struct {
	toks []Token
	pos  int

	buf [isa.MaxMemSize]byte
	pc  isa.Word

	labels       map[string]isa.Word
	labelOnLine  bool
	patches      []patchedLabel
}

// Assemble lexes and assembles src in a single pass, returning the
// resulting 65535-byte memory image.
func Assemble(src []byte) ([]byte, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	a := &Assembler{toks: toks, labels: make(map[string]isa.Word)}
	if err := a.run(); err != nil {
		return nil, err
	}

	code := make([]byte, isa.MaxMemSize)
	copy(code, a.buf[:])
	return code, nil
}

func (a *Assembler) peek() Token  { return a.toks[a.pos] }
func (a *Assembler) line() int    { return a.peek().Line }
func (a *Assembler) advance() Token {
	t := a.toks[a.pos]
	if a.pos < len(a.toks)-1 {
		a.pos++
	}
	return t
}

func (a *Assembler) skipNewlines() {
	for a.peek().Kind == TokNewline {
		a.advance()
		a.labelOnLine = false
	}
}

func (a *Assembler) expectComma() error {
	if a.peek().Kind != TokComma {
		return errf(a.line(), "expected ',', got %q", a.peek().Text)
	}
	a.advance()
	return nil
}

// expectRegister consumes a Word token of the form r0-r7.
func (a *Assembler) expectRegister() (int, error) {
	t := a.peek()
	if t.Kind != TokWord || len(t.Text) != 2 || t.Text[0] != 'r' || t.Text[1] < '0' || t.Text[1] > '7' {
		return 0, errf(a.line(), "register identifier expected")
	}
	a.advance()
	return int(t.Text[1] - '0'), nil
}

// expectUnsigned consumes a prefixed numeric literal (#/b/o/x) and
// validates it fits in an unsigned field of the given bit size.
func (a *Assembler) expectUnsigned(size int) (isa.Word, error) {
	t := a.peek()
	if t.Kind != TokWord || len(t.Text) < 2 {
		return 0, errf(a.line(), "unknown number specifier %q", t.Text)
	}

	base, ok := literalBase(t.Text[0])
	if !ok {
		return 0, errf(a.line(), "unknown number specifier %q", t.Text)
	}

	val, err := strconv.ParseUint(t.Text[1:], base, 32)
	if err != nil {
		return 0, errf(a.line(), "invalid number literal %q", t.Text)
	}
	if val > uint64(1<<uint(size))-1 {
		return 0, errf(a.line(), "number exceeds %d-bit unsigned range", size)
	}

	a.advance()
	return isa.Word(val), nil
}

// expectSigned consumes either a prefixed numeric literal or a bare
// label reference and returns a signed value sized to fit the given
// field width. A forward reference to an as-yet-undefined label is
// recorded as a patch and returns 0 as a placeholder.
func (a *Assembler) expectSigned(size int) (int16, error) {
	t := a.peek()
	if t.Kind != TokWord || len(t.Text) == 0 {
		return 0, errf(a.line(), "unknown number specifier %q", t.Text)
	}

	if base, ok := literalBase(t.Text[0]); ok && len(t.Text) > 1 {
		val, err := strconv.ParseInt(t.Text[1:], base, 32)
		if err != nil {
			return 0, errf(a.line(), "invalid number literal %q", t.Text)
		}
		// Intentionally asymmetric: excludes the true minimum two's
		// complement value, matching the original scanSignedWord.
		limit := int64(1<<uint(size-1)) - 1
		if val < -limit || val > limit {
			return 0, errf(a.line(), "number exceeds %d-bit signed range", size)
		}
		a.advance()
		return int16(val), nil
	}

	return a.resolveLabelRef(size)
}

// expectRegisterOrSigned implements scanRegisterOrSignedNumber: if
// the next token is a register, it's consumed and (reg, true) is
// returned; otherwise a signed number/label reference is scanned and
// (val, false) is returned.
func (a *Assembler) expectRegisterOrSigned(size int) (int16, bool, error) {
	t := a.peek()
	if t.Kind == TokWord && len(t.Text) == 2 && t.Text[0] == 'r' && t.Text[1] >= '0' && t.Text[1] <= '7' {
		reg, err := a.expectRegister()
		return int16(reg), true, err
	}

	val, err := a.expectSigned(size)
	return val, false, err
}

func (a *Assembler) resolveLabelRef(size int) (int16, error) {
	t := a.peek()
	if !isIdentStart(t.Text) {
		return 0, errf(a.line(), "unknown number specifier %q", t.Text)
	}
	name := t.Text
	lineNo := a.line()
	a.advance()

	if addr, ok := a.labels[name]; ok {
		absAddr := addr >> 1
		curAddr := (a.pc + 2) >> 1
		diff := int16(absAddr) - int16(curAddr)

		limit := int16(1<<uint(size-1)) - 1
		if diff < -limit || diff > limit {
			return 0, errf(lineNo, "label '%s' is not reachable", name)
		}
		return diff, nil
	}

	a.patches = append(a.patches, patchedLabel{name: name, addr: a.pc, offsetSize: size, line: lineNo})
	return 0, nil
}

func isIdentStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func literalBase(prefix byte) (int, bool) {
	switch prefix {
	case '#':
		return 10, true
	case 'b':
		return 2, true
	case 'o':
		return 8, true
	case 'x':
		return 16, true
	default:
		return 0, false
	}
}

func (a *Assembler) emitWord(val isa.Word) {
	a.buf[a.pc] = byte(val >> 8)
	a.buf[a.pc+1] = byte(val)
	a.pc += 2
}

func (a *Assembler) emitByte(val byte) {
	a.buf[a.pc] = val
	a.pc++
}

func (a *Assembler) readWord(at isa.Word) isa.Word {
	return (isa.Word(a.buf[at]) << 8) | isa.Word(a.buf[at+1])
}

func (a *Assembler) writeWord(at, v isa.Word) {
	a.buf[at] = byte(v >> 8)
	a.buf[at+1] = byte(v)
}

func (a *Assembler) run() error {
	for {
		a.skipNewlines()
		if a.peek().Kind == TokEOF {
			break
		}

		t := a.peek()
		if t.Kind != TokWord {
			return errf(a.line(), "label or opcode expected")
		}

		// Label declaration: word immediately followed by ':'.
		if a.pos+1 < len(a.toks) && a.toks[a.pos+1].Kind == TokColon {
			if a.labelOnLine {
				return errf(a.line(), "this line has a label already declared")
			}
			if _, ok := a.labels[t.Text]; ok {
				return errf(a.line(), "label '%s' already exists", t.Text)
			}
			a.labels[t.Text] = a.pc
			a.labelOnLine = true
			a.advance() // word
			a.advance() // colon
			continue
		}

		if err := a.dispatch(t); err != nil {
			return err
		}

		// Consume to end of line.
		for a.peek().Kind != TokNewline && a.peek().Kind != TokEOF {
			a.advance()
		}
	}

	return a.codeFinalize()
}

func (a *Assembler) dispatch(t Token) error {
	handler, ok := mnemonics[t.Text]
	if !ok {
		return errf(a.line(), "unknown opcode '%s'", t.Text)
	}
	a.advance()
	return handler(a)
}

// codeFinalize resolves every forward label reference recorded
// during run() and patches the referencing instruction word in
// place.
func (a *Assembler) codeFinalize() error {
	for _, p := range a.patches {
		addr, ok := a.labels[p.name]
		if !ok {
			return errf(p.line, "can't find the label declaration with the name '%s'", p.name)
		}

		absAddr := addr >> 1
		curAddr := (p.addr + 2) >> 1
		diff := int16(absAddr) - int16(curAddr)

		limit := int16(1<<uint(p.offsetSize-1)) - 1
		if diff < -limit || diff > limit {
			return errf(p.line, "label '%s' is not reachable", p.name)
		}

		mask := isa.Word((1 << uint(p.offsetSize)) - 1)
		instr := a.readWord(p.addr)
		instr &^= mask
		instr |= isa.Word(diff) & mask
		a.writeWord(p.addr, instr)
	}

	return nil
}
