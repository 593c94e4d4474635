package mos6502

import (
	"fmt"
	"io"
)

// DisassembleAt renders the instruction at addr without touching CPU state.
// It returns the text and the instruction length in bytes. Unknown opcodes
// render as "???" with length 1.
func (c *CPU) DisassembleAt(addr uint16) (string, int) {
	opcode := c.read(addr)
	info, ok := opcodes[opcode]
	if !ok {
		return "???", 1
	}

	length := 1 + info.mode.OperandSize()

	switch info.mode {
	case Implied:
		return info.mnemonic, length
	case Accumulator:
		return fmt.Sprintf("%s A", info.mnemonic), length
	case Immediate:
		return fmt.Sprintf("%s #$%02X", info.mnemonic, c.read(addr+1)), length
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", info.mnemonic, c.read(addr+1)), length
	case ZeroPageX:
		return fmt.Sprintf("%s $%02X,X", info.mnemonic, c.read(addr+1)), length
	case ZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", info.mnemonic, c.read(addr+1)), length
	case Absolute:
		return fmt.Sprintf("%s $%04X", info.mnemonic, c.read16(addr+1)), length
	case AbsoluteX:
		return fmt.Sprintf("%s $%04X,X", info.mnemonic, c.read16(addr+1)), length
	case AbsoluteY:
		return fmt.Sprintf("%s $%04X,Y", info.mnemonic, c.read16(addr+1)), length
	case Indirect:
		return fmt.Sprintf("%s ($%04X)", info.mnemonic, c.read16(addr+1)), length
	case IndirectX:
		return fmt.Sprintf("%s ($%02X,X)", info.mnemonic, c.read(addr+1)), length
	case IndirectY:
		return fmt.Sprintf("%s ($%02X),Y", info.mnemonic, c.read(addr+1)), length
	case Relative:
		// Branch target resolved to the absolute address
		offset := int8(c.read(addr + 1))
		target := uint16(int32(addr) + 2 + int32(offset))
		return fmt.Sprintf("%s $%04X", info.mnemonic, target), length
	}
	return info.mnemonic, length
}

// Disassemble writes a listing of programSize bytes starting at
// ProgramStart, one instruction per line with its address.
func (c *CPU) Disassemble(w io.Writer, programSize int) {
	offset := 0
	for offset < programSize {
		addr := uint16(ProgramStart + offset)
		text, length := c.DisassembleAt(addr)
		fmt.Fprintf(w, "%04X: %s\n", addr, text)
		offset += length
	}
}
