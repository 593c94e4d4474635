// Package mos6502 implements an interpreter for the MOS 6502 processor,
// covering the documented instruction set. Decimal mode is not modeled and
// BRK halts the interpreter instead of taking the interrupt vector.
package mos6502

import (
	"io"

	"github.com/lookbusy1344/retro-emulator/mem"
)

// Status register flag bits
const (
	FlagC = 0x01 // Carry
	FlagZ = 0x02 // Zero
	FlagI = 0x04 // Interrupt disable
	FlagD = 0x08 // Decimal mode (not modeled)
	FlagB = 0x10 // Break (only exists on the stack)
	FlagU = 0x20 // Unused, reads as 1
	FlagV = 0x40 // Overflow
	FlagN = 0x80 // Negative
)

// Memory layout constants
const (
	ProgramStart = 0x0600 // Programs are loaded and started here
	StackBase    = 0x0100 // Stack page
	DisplayStart = 0x0400 // 32x16 character framebuffer
	DisplayEnd   = 0x0600 // One past the last framebuffer byte
	ResetP       = 0x24   // Initial status register value
	ResetSP      = 0xFF   // Initial stack pointer
)

// CPU represents the 6502 processor state
type CPU struct {
	Memory *mem.Memory

	PC uint16
	A  byte
	X  byte
	Y  byte
	SP byte // Stack lives at StackBase+SP, grows downward
	P  byte

	// DisplayModified is set whenever a write lands in the framebuffer
	// range. The frontend polls and clears it.
	DisplayModified bool

	// Halted is set by BRK
	Halted bool

	// TraceWriter, when non-nil, receives one line per instruction with
	// the disassembly and A/X/Y values before execution
	TraceWriter io.Writer
}

// NewCPU creates a 6502 with 64KB of zeroed memory and reset register state
func NewCPU() *CPU {
	return &CPU{
		Memory: mem.New(mem.Size6502),
		PC:     ProgramStart,
		SP:     ResetSP,
		P:      ResetP,
	}
}

// LoadProgram copies a raw program image to ProgramStart
func (c *CPU) LoadProgram(data []byte) error {
	return c.Memory.LoadBytes(ProgramStart, data)
}

// read returns the byte at addr. The full 16-bit address space is mapped,
// so the access cannot fail.
func (c *CPU) read(addr uint16) byte {
	value, _ := c.Memory.ReadByte(uint64(addr))
	return value
}

// write stores a byte and tracks framebuffer writes
func (c *CPU) write(addr uint16, value byte) {
	_ = c.Memory.WriteByte(uint64(addr), value)
	if addr >= DisplayStart && addr < DisplayEnd {
		c.DisplayModified = true
	}
}

// read16 reads a little-endian word. The high byte wraps around the address
// space naturally.
func (c *CPU) read16(addr uint16) uint16 {
	return uint16(c.read(addr)) | uint16(c.read(addr+1))<<8
}

// fetch reads the byte at PC and advances PC
func (c *CPU) fetch() byte {
	value := c.read(c.PC)
	c.PC++
	return value
}

// fetch16 reads a little-endian word at PC and advances PC by two
func (c *CPU) fetch16() uint16 {
	low := c.fetch()
	high := c.fetch()
	return uint16(low) | uint16(high)<<8
}

// push stores a byte at the current stack position and decrements SP,
// wrapping modulo 256
func (c *CPU) push(value byte) {
	c.write(StackBase+uint16(c.SP), value)
	c.SP--
}

// pull increments SP and loads the byte there
func (c *CPU) pull() byte {
	c.SP++
	return c.read(StackBase + uint16(c.SP))
}

// push16 pushes high byte then low byte
func (c *CPU) push16(value uint16) {
	c.push(byte(value >> 8))
	c.push(byte(value))
}

// pull16 pulls low byte then high byte
func (c *CPU) pull16() uint16 {
	low := c.pull()
	high := c.pull()
	return uint16(low) | uint16(high)<<8
}

// flag returns whether a status bit is set
func (c *CPU) flag(mask byte) bool {
	return c.P&mask != 0
}

// setFlag sets or clears a status bit
func (c *CPU) setFlag(mask byte, on bool) {
	if on {
		c.P |= mask
	} else {
		c.P &^= mask
	}
}

// setZN updates the Z and N flags from a result byte
func (c *CPU) setZN(value byte) {
	c.setFlag(FlagZ, value == 0)
	c.setFlag(FlagN, value&0x80 != 0)
}
