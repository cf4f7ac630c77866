// Package sim implements the M16 instruction set simulator: a flat
// 64K-minus-one byte address space, a 10-word register file and a
// single-step execution loop. There is no program/data distinction —
// the fetched word at PC is just whatever bytes live there.
package sim

import (
	"bufio"
	"fmt"
	"os"

	"m16/isa"
)

// Simulator is one M16 core. Like the teacher's VM, the program
// counter and stack pointer are reached through the register file
// rather than kept as separate fields, so every opcode handler reads
// and writes through the same array.
type Simulator struct {
	memory    [isa.MaxMemSize]byte
	registers [isa.NumRegisters]isa.Word

	usp, ssp isa.Word

	halted bool

	debugTraps bool
	trace      bool

	stdout *bufio.Writer
	stderr *bufio.Writer
}

// New returns a simulator with zeroed registers and memory, PSR in
// supervisor mode with the Z flag set (there is no prior result, so
// the original treats "nothing has run yet" the same as a zero
// result). debugTraps enables the M16_DEBUG_TRAPS fast paths in TRAP;
// trace enables one M16_TRACE diagnostic line per executed instruction.
func New(debugTraps, trace bool) *Simulator {
	s := &Simulator{
		debugTraps: debugTraps,
		trace:      trace,
		stdout:     bufio.NewWriter(os.Stdout),
		stderr:     bufio.NewWriter(os.Stderr),
	}
	s.registers[isa.RPSR] = isa.Word(isa.PSR(0).WithFlags(0))
	return s
}

// LoadImage copies image into memory starting at address 0. It does
// not touch the register file or halted flag, so loading a second
// image onto a running simulator only replaces memory contents — the
// same loadImage-is-just-a-memcpy behavior as the original.
func (s *Simulator) LoadImage(image []byte) {
	copy(s.memory[:], image)
}

// Halted reports whether the simulator has executed trap 0x25 (HLT).
func (s *Simulator) Halted() bool {
	return s.halted
}

// Register returns the current value of register index r (0-9).
func (s *Simulator) Register(r int) isa.Word {
	return s.registers[r]
}

// SetRegister writes value into register index r (0-9). Exported
// mainly so the CLI and tests can seed initial state (e.g. R6/SP
// before running a program that doesn't set up its own stack).
func (s *Simulator) SetRegister(r int, value isa.Word) {
	s.registers[r] = value
}

func (s *Simulator) psr() isa.PSR {
	return isa.PSR(s.registers[isa.RPSR])
}

func (s *Simulator) setPSR(p isa.PSR) {
	s.registers[isa.RPSR] = isa.Word(p)
}

func (s *Simulator) setFlags(result isa.Word) {
	s.setPSR(s.psr().WithFlags(result))
}

func (s *Simulator) setPrivileged(privileged bool) {
	s.setPSR(s.psr().WithUserMode(!privileged))
}

func (s *Simulator) privileged() bool {
	return !s.psr().UserMode()
}

// ReadWord reads a big-endian word at address. Word access must be
// 2-byte aligned; an odd address is a fatal unaligned-access error.
func (s *Simulator) ReadWord(address isa.Word) (isa.Word, error) {
	if address&1 != 0 {
		return 0, unalignedErr(address)
	}
	hi := isa.Word(s.memory[address])
	lo := isa.Word(s.memory[address+1])
	return (hi << 8) | lo, nil
}

// WriteWord writes value as a big-endian word at address. See
// ReadWord for the alignment requirement.
func (s *Simulator) WriteWord(address, value isa.Word) error {
	if address&1 != 0 {
		return unalignedErr(address)
	}
	s.memory[address] = byte(value >> 8)
	s.memory[address+1] = byte(value)
	return nil
}

// ReadByte reads a single byte at address. Byte access never traps.
func (s *Simulator) ReadByte(address isa.Word) isa.Byte {
	return isa.Byte(s.memory[address])
}

// WriteByte writes a single byte at address. Byte access never traps.
func (s *Simulator) WriteByte(address isa.Word, value isa.Byte) {
	s.memory[address] = byte(value)
}

func (s *Simulator) push(val isa.Word) error {
	sp := s.registers[isa.RSP] - 2
	if err := s.WriteWord(sp, val); err != nil {
		return err
	}
	s.registers[isa.RSP] = sp
	return nil
}

func (s *Simulator) pop() (isa.Word, error) {
	sp := s.registers[isa.RSP]
	val, err := s.ReadWord(sp)
	if err != nil {
		return 0, err
	}
	s.registers[isa.RSP] = sp + 2
	return val, nil
}

// Interrupt delivers an asynchronous interrupt with the given trap
// table index and priority level. If level is strictly lower than the
// current PSR priority the interrupt is ignored — the same priority
// gate as the original sendInterrupt (an interrupt at the same
// priority as the current level still dispatches). Otherwise it
// switches to supervisor mode, swaps in the supervisor stack, pushes
// PC and PSR, and transfers control to the byte read at memory[id]
// (the single-byte vector fetch is intentional, see DESIGN.md).
func (s *Simulator) Interrupt(id isa.Byte, level uint8) error {
	if isa.Word(level) < s.psr().Priority() {
		return nil
	}

	s.setPrivileged(true)

	s.usp = s.registers[isa.RSP]
	s.registers[isa.RSP] = s.ssp

	if err := s.push(s.registers[isa.RPC]); err != nil {
		return err
	}
	if err := s.push(s.registers[isa.RPSR]); err != nil {
		return err
	}

	s.registers[isa.RPC] = isa.ZeroExt(isa.Byte(s.memory[id]))
	return nil
}

func (s *Simulator) tracef(format string, args ...any) {
	if !s.trace {
		return
	}
	fmt.Fprintf(s.stderr, format, args...)
	s.stderr.Flush()
}
