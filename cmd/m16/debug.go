package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"m16/sim"
)

// rawTerminal puts stdin into raw mode (no line buffering, no local
// echo) for the duration of the single-step debugger, restoring the
// original termios on return. golang.org/x/term is not part of the
// retrieved dependency set, so this goes straight through the ioctls
// it wraps (see DESIGN.md).
func rawTerminal(fd int) (restore func(), err error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}

	return func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, orig)
	}, nil
}

// runStepDebugger executes s one instruction per keystroke, printing
// register state after each step, until the program halts or the user
// quits with 'q'.
func runStepDebugger(s *sim.Simulator) error {
	fd := int(os.Stdin.Fd())
	restore, err := rawTerminal(fd)
	if err != nil {
		// Not every environment has a real tty (pipes, CI); fall back
		// to running to completion rather than failing the command.
		for !s.Halted() {
			if stepErr := s.Step(); stepErr != nil {
				return stepErr
			}
		}
		return nil
	}
	defer restore()

	reader := bufio.NewReader(os.Stdin)
	fmt.Fprintln(os.Stderr, "-step mode: press any key to execute the next instruction, 'q' to quit")

	for !s.Halted() {
		b, err := reader.ReadByte()
		if err != nil {
			return err
		}
		if b == 'q' {
			return nil
		}

		if err := s.Step(); err != nil {
			return err
		}
		s.DumpRegisters(os.Stderr)
	}

	return nil
}
