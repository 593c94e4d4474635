// Package rv64 implements a user-mode RV64I interpreter with the M
// extension, running statically linked ELF images against a small Linux
// syscall ABI (read, write, exit, gettimeofday).
package rv64

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lookbusy1344/retro-emulator/elf"
	"github.com/lookbusy1344/retro-emulator/mem"
)

// RegNames holds the standard ABI register names, indexed by register number
var RegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// ABI register numbers used by the syscall interface
const (
	RegRA = 1
	RegSP = 2
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
	RegA7 = 17
)

// CPU represents the RV64 hart state. PC holds a file offset into the
// loaded image, not a virtual address: the ELF bytes live in memory at
// their file offsets.
type CPU struct {
	Memory *mem.Memory

	PC   uint64
	Regs [32]uint64 // Regs[0] is forced to zero before every instruction

	// Halted and ExitCode are set by the exit syscall
	Halted   bool
	ExitCode int

	// RealTime selects the host clock for gettimeofday instead of the
	// fixed stub value
	RealTime bool

	// OutputWriter receives write-syscall output (defaults to os.Stdout)
	OutputWriter io.Writer

	stdinReader *bufio.Reader
}

// NewCPU creates a CPU with the given memory size in bytes
func NewCPU(memSize int) *CPU {
	return &CPU{
		Memory:       mem.New(memSize),
		OutputWriter: os.Stdout,
		stdinReader:  bufio.NewReader(os.Stdin),
	}
}

// SetStdinReader redirects the read syscall to a custom source, used by
// tests and frontends
func (c *CPU) SetStdinReader(r io.Reader) {
	if br, ok := r.(*bufio.Reader); ok {
		c.stdinReader = br
	} else {
		c.stdinReader = bufio.NewReader(r)
	}
}

// LoadELF copies the image bytes into memory at their file offsets,
// locates the text section, and initializes PC and the stack pointer
func (c *CPU) LoadELF(image []byte) error {
	text, err := elf.FindText(image)
	if err != nil {
		return err
	}
	if err := c.Memory.LoadBytes(0, image); err != nil {
		return fmt.Errorf("failed to load ELF image: %w", err)
	}

	c.PC = text.EntryOffset
	c.Regs[RegSP] = uint64(c.Memory.Size() - 1)
	return nil
}

// setReg writes a register, discarding writes to x0
func (c *CPU) setReg(rd uint32, value uint64) {
	if rd != 0 {
		c.Regs[rd] = value
	}
}

// Run executes instructions until the exit syscall or an error
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
