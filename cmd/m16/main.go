// Command m16 assembles a MicrAsm source file, loads the resulting
// image into a simulator and runs it to completion, printing a memory
// dump before execution and a register dump after halt — the same
// shape as the teacher's single-binary "assemble, load, run" CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"

	"m16/asm"
	"m16/sim"
)

const (
	exitUsage = 64
	exitError = -1
	exitOK    = 0
)

func main() {
	step := flag.Bool("step", false, "enter the raw-terminal single-step debugger instead of running to completion")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: m16 [-step] <source-file>")
		os.Exit(exitUsage)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	image, err := asm.Assemble(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}

	debugTraps := env.Bool("M16_DEBUG_TRAPS")
	trace := env.Bool("M16_TRACE")

	s := sim.New(debugTraps, trace)
	s.LoadImage(image)
	s.DumpMemory(os.Stdout)

	if *step {
		if err := runStepDebugger(s); err != nil {
			fmt.Fprintln(os.Stderr, err)
			s.DumpRegisters(os.Stdout)
			os.Exit(exitError)
		}
		s.DumpRegisters(os.Stdout)
		os.Exit(exitOK)
	}

	for !s.Halted() {
		if err := s.Step(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			s.DumpRegisters(os.Stdout)
			os.Exit(exitError)
		}
	}

	s.DumpRegisters(os.Stdout)
	os.Exit(exitOK)
}
