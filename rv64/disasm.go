package rv64

import (
	"fmt"
	"io"
)

// disassembleOne renders a single instruction word using ABI register
// names. Unknown encodings render as a data word.
func disassembleOne(ins uint32) string {
	rd := RegNames[rdOf(ins)]
	rs1 := RegNames[rs1Of(ins)]
	rs2 := RegNames[rs2Of(ins)]

	switch opcodeOf(ins) {
	case opcLUI:
		return fmt.Sprintf("lui %s, %d", rd, immU(ins)>>12)
	case opcAUIPC:
		return fmt.Sprintf("auipc %s, %d", rd, immU(ins)>>12)
	case opcJAL:
		return fmt.Sprintf("jal %s, %d", rd, immJ(ins))
	case opcJALR:
		return fmt.Sprintf("jalr %s, %s, %d", rd, rs1, immI(ins))

	case opcBranch:
		names := map[uint32]string{
			0b000: "beq", 0b001: "bne", 0b100: "blt",
			0b101: "bge", 0b110: "bltu", 0b111: "bgeu",
		}
		if name, ok := names[funct3Of(ins)]; ok {
			return fmt.Sprintf("%s %s, %s, %d", name, rs1, rs2, immB(ins))
		}

	case opcLoad:
		names := map[uint32]string{
			0b000: "lb", 0b001: "lh", 0b010: "lw", 0b011: "ld",
			0b100: "lbu", 0b101: "lhu", 0b110: "lwu",
		}
		if name, ok := names[funct3Of(ins)]; ok {
			return fmt.Sprintf("%s %s, %d(%s)", name, rd, immI(ins), rs1)
		}

	case opcStore:
		names := map[uint32]string{0b000: "sb", 0b001: "sh", 0b010: "sw", 0b011: "sd"}
		if name, ok := names[funct3Of(ins)]; ok {
			return fmt.Sprintf("%s %s, %d(%s)", name, rs2, immS(ins), rs1)
		}

	case opcALUImm:
		switch funct3Of(ins) {
		case 0b000:
			return fmt.Sprintf("addi %s, %s, %d", rd, rs1, immI(ins))
		case 0b001:
			if funct6Of(ins) == 0b000000 {
				return fmt.Sprintf("slli %s, %s, %d", rd, rs1, shamt64Of(ins))
			}
		case 0b010:
			return fmt.Sprintf("slti %s, %s, %d", rd, rs1, immI(ins))
		case 0b011:
			return fmt.Sprintf("sltiu %s, %s, %d", rd, rs1, immI(ins))
		case 0b100:
			return fmt.Sprintf("xori %s, %s, %d", rd, rs1, immI(ins))
		case 0b101:
			switch funct6Of(ins) {
			case 0b000000:
				return fmt.Sprintf("srli %s, %s, %d", rd, rs1, shamt64Of(ins))
			case 0b010000:
				return fmt.Sprintf("srai %s, %s, %d", rd, rs1, shamt64Of(ins))
			}
		case 0b110:
			return fmt.Sprintf("ori %s, %s, %d", rd, rs1, immI(ins))
		case 0b111:
			return fmt.Sprintf("andi %s, %s, %d", rd, rs1, immI(ins))
		}

	case opcALUReg:
		type key struct{ f3, f7 uint32 }
		names := map[key]string{
			{0b000, 0b0000000}: "add", {0b000, 0b0100000}: "sub", {0b000, 0b0000001}: "mul",
			{0b001, 0b0000000}: "sll", {0b001, 0b0000001}: "mulh",
			{0b010, 0b0000000}: "slt",
			{0b011, 0b0000000}: "sltu", {0b011, 0b0000001}: "mulhu",
			{0b100, 0b0000000}: "xor", {0b100, 0b0000001}: "div",
			{0b101, 0b0000000}: "srl", {0b101, 0b0100000}: "sra", {0b101, 0b0000001}: "divu",
			{0b110, 0b0000000}: "or", {0b110, 0b0000001}: "rem",
			{0b111, 0b0000000}: "and", {0b111, 0b0000001}: "remu",
		}
		if name, ok := names[key{funct3Of(ins), funct7Of(ins)}]; ok {
			return fmt.Sprintf("%s %s, %s, %s", name, rd, rs1, rs2)
		}

	case opcALUImmW:
		switch funct3Of(ins) {
		case 0b000:
			return fmt.Sprintf("addiw %s, %s, %d", rd, rs1, immI(ins))
		case 0b001:
			if funct7Of(ins) == 0b0000000 {
				return fmt.Sprintf("slliw %s, %s, %d", rd, rs1, shamt32Of(ins))
			}
		case 0b101:
			switch funct7Of(ins) {
			case 0b0000000:
				return fmt.Sprintf("srliw %s, %s, %d", rd, rs1, shamt32Of(ins))
			case 0b0100000:
				return fmt.Sprintf("sraiw %s, %s, %d", rd, rs1, shamt32Of(ins))
			}
		}

	case opcALURegW:
		type key struct{ f3, f7 uint32 }
		names := map[key]string{
			{0b000, 0b0000000}: "addw", {0b000, 0b0100000}: "subw", {0b000, 0b0000001}: "mulw",
			{0b001, 0b0000000}: "sllw",
			{0b100, 0b0000001}: "divw",
			{0b101, 0b0000000}: "srlw", {0b101, 0b0100000}: "sraw", {0b101, 0b0000001}: "divuw",
			{0b110, 0b0000001}: "remw",
			{0b111, 0b0000001}: "remuw",
		}
		if name, ok := names[key{funct3Of(ins), funct7Of(ins)}]; ok {
			return fmt.Sprintf("%s %s, %s, %s", name, rd, rs1, rs2)
		}

	case opcSystem:
		if funct3Of(ins) == 0 && immI(ins) == 0 {
			return "ecall"
		}
	}

	return fmt.Sprintf(".word 0x%08X", ins)
}

// Disassemble writes a listing of the text section, one instruction per
// line with its file offset
func (c *CPU) Disassemble(w io.Writer, textOffset, textSize uint64) error {
	for offset := textOffset; offset < textOffset+textSize; offset += 4 {
		ins, err := c.Memory.ReadWord(offset)
		if err != nil {
			return fmt.Errorf("disassemble at 0x%X: %w", offset, err)
		}
		fmt.Fprintf(w, "%08X: %s\n", offset, disassembleOne(ins))
	}
	return nil
}
