// Package emit is the programmatic counterpart to asm: it builds an
// M16 memory image instruction-by-instruction through Go method calls
// instead of parsing MicrAsm source text. Given equivalent input, it
// produces bit-identical output to the assembler (see DESIGN.md for
// the label-anchoring fix that makes this true).
package emit

import "m16/isa"

type patch struct {
	name       string
	addr       isa.Word
	offsetSize int
}

// Emitter accumulates a program into a fixed, owned 65535-byte buffer
// (REDESIGN FLAG: the original's heap-allocated `byte*` becomes a
// value-typed array here, so an Emitter needs no destructor; a copy
// by value gets its own buffer but shares the label table and patch
// list with the original).
type Emitter struct {
	buf    [isa.MaxMemSize]byte
	pc     isa.Word
	labels map[string]isa.Word

	patches []patch
}

// New returns an Emitter starting at address 0.
func New() *Emitter {
	return &Emitter{labels: make(map[string]isa.Word)}
}

// StartFrom repositions the write cursor without touching anything
// already emitted — used to lay down a trap vector table segment and
// then jump the cursor forward to where code actually starts.
func (e *Emitter) StartFrom(address isa.Word) {
	e.pc = address
}

// PC returns the current write cursor.
func (e *Emitter) PC() isa.Word {
	return e.pc
}

func (e *Emitter) emitWord(value isa.Word) {
	e.buf[e.pc] = byte(value >> 8)
	e.buf[e.pc+1] = byte(value)
	e.pc += 2
}

// EmitByte appends a single raw byte, advancing the cursor by 1 —
// used by .strz/.dat style data emission.
func (e *Emitter) EmitByte(value isa.Byte) {
	e.buf[e.pc] = byte(value)
	e.pc++
}

// EmitString appends the raw bytes of s with no trailing NUL.
func (e *Emitter) EmitString(s string) {
	for i := 0; i < len(s); i++ {
		e.EmitByte(isa.Byte(s[i]))
	}
}

func (e *Emitter) readWord(at isa.Word) isa.Word {
	return (isa.Word(e.buf[at]) << 8) | isa.Word(e.buf[at+1])
}

func (e *Emitter) writeWord(at, v isa.Word) {
	e.buf[at] = byte(v >> 8)
	e.buf[at+1] = byte(v)
}

// label resolves name to a signed offset of offsetSize bits anchored
// at the word *after* the one about to be emitted (pc+2) — matching
// the assembler's scanSignedWord anchor rather than the original
// emitter's unshifted PC, see DESIGN.md. If name hasn't been defined
// yet, the reference is recorded for CompleteCode to patch later and
// a placeholder offset of 0 is returned.
func (e *Emitter) label(name string, offsetSize int) (isa.Word, error) {
	if addr, ok := e.labels[name]; ok {
		absAddr := addr >> 1
		curAddr := (e.pc + 2) >> 1
		diff := int16(absAddr) - int16(curAddr)

		limit := int16(1<<uint(offsetSize-1)) - 1
		if diff < -limit || diff > limit {
			return 0, &EmitterError{Kind: ErrUnreachable, Label: name}
		}
		return isa.Word(diff), nil
	}

	e.patches = append(e.patches, patch{name: name, addr: e.pc, offsetSize: offsetSize})
	return 0, nil
}

// Label binds name to the current write cursor. Calling it twice for
// the same name is an error.
func (e *Emitter) Label(name string) error {
	if _, ok := e.labels[name]; ok {
		return &EmitterError{Kind: ErrDuplicateLabel, Label: name}
	}
	e.labels[name] = e.pc
	return nil
}

// CompleteCode resolves every forward label reference recorded by
// label() and patches the low offsetSize bits of the referencing word
// in place. It is idempotent: once the patch list is drained, calling
// it again is a no-op.
func (e *Emitter) CompleteCode() error {
	for _, p := range e.patches {
		addr, ok := e.labels[p.name]
		if !ok {
			return &EmitterError{Kind: ErrUndefinedLabel, Label: p.name}
		}

		absAddr := addr >> 1
		curAddr := (p.addr + 2) >> 1
		diff := int16(absAddr) - int16(curAddr)

		limit := int16(1<<uint(p.offsetSize-1)) - 1
		if diff < -limit || diff > limit {
			return &EmitterError{Kind: ErrUnreachable, Label: p.name}
		}

		mask := isa.Word((1 << uint(p.offsetSize)) - 1)
		instr := e.readWord(p.addr)
		instr &^= mask
		instr |= isa.Word(diff) & mask
		e.writeWord(p.addr, instr)
	}

	e.patches = e.patches[:0]
	return nil
}

// Code returns the full 65535-byte image built so far. The returned
// slice aliases the Emitter's internal buffer.
func (e *Emitter) Code() []byte {
	return e.buf[:]
}
