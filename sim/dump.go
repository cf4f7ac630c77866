package sim

import (
	"fmt"
	"io"

	"m16/isa"
)

// DumpMemory writes a hex/ASCII dump of memory to w, 16 bytes per
// line, address-prefixed, collapsing consecutive all-zero lines into
// a single "..." the way the original cpu::dumpMem does.
func (s *Simulator) DumpMemory(w io.Writer) {
	fmt.Fprintln(w, "*** <Memory dump>")

	previousEmpty := false
	for line := 0; line < isa.MaxMemSize; line += 16 {
		end := line + 16
		if end > isa.MaxMemSize {
			end = isa.MaxMemSize
		}

		empty := true
		for i := line; i < end; i++ {
			if s.memory[i] != 0 {
				empty = false
				break
			}
		}

		if previousEmpty && !empty {
			fmt.Fprintln(w, "...")
		}
		previousEmpty = empty
		if empty {
			continue
		}

		fmt.Fprintf(w, "%04x: ", line)
		for i := line; i < end; i++ {
			fmt.Fprintf(w, "%02x ", s.memory[i])
		}
		fmt.Fprint(w, "| ")
		for i := line; i < end; i++ {
			b := s.memory[i]
			if b < 32 {
				b = '.'
			}
			fmt.Fprintf(w, "%c", b)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "[END OF MEMORY]\n***")
}

// DumpRegisters writes the general-purpose and control register file
// to w, mirroring the layout of the original cpu::printRegs.
func (s *Simulator) DumpRegisters(w io.Writer) {
	fmt.Fprintln(w, "*** <Registers dump>")
	fmt.Fprintln(w, "General purpose registers:")

	r := s.registers
	fmt.Fprintf(w, "R0 = 0x%04x : %-6d | R4 = 0x%04x : %d\n", r[0], int16(r[0]), r[4], int16(r[4]))
	fmt.Fprintf(w, "R1 = 0x%04x : %-6d | R5 = 0x%04x : %d\n", r[1], int16(r[1]), r[5], int16(r[5]))
	fmt.Fprintf(w, "R2 = 0x%04x : %-6d | R6 = 0x%04x : %d\n", r[2], int16(r[2]), r[6], int16(r[6]))
	fmt.Fprintf(w, "R3 = 0x%04x : %-6d | R7 = 0x%04x : %d\n", r[3], int16(r[3]), r[7], int16(r[7]))

	fmt.Fprintln(w, "\nControl registers:")
	fmt.Fprintf(w, "PC  = 0x%04x\n", r[isa.RPC])

	psr := s.psr()
	fmt.Fprintf(w, "PSR = 0x%04x (n = %t, z = %t, p = %t)\n***\n", isa.Word(psr), psr.N(), psr.Z(), psr.P())
}
