package mos6502

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisassembleModes(t *testing.T) {
	tests := []struct {
		program  []byte
		expected string
	}{
		{[]byte{0xEA}, "NOP"},
		{[]byte{0x0A}, "ASL A"},
		{[]byte{0xA9, 0x41}, "LDA #$41"},
		{[]byte{0xA5, 0x10}, "LDA $10"},
		{[]byte{0xB5, 0x10}, "LDA $10,X"},
		{[]byte{0xB6, 0x10}, "LDX $10,Y"},
		{[]byte{0xAD, 0x00, 0x04}, "LDA $0400"},
		{[]byte{0xBD, 0x00, 0x04}, "LDA $0400,X"},
		{[]byte{0xB9, 0x00, 0x04}, "LDA $0400,Y"},
		{[]byte{0x6C, 0x00, 0x03}, "JMP ($0300)"},
		{[]byte{0xA1, 0x20}, "LDA ($20,X)"},
		{[]byte{0xB1, 0x20}, "LDA ($20),Y"},
	}

	for _, tt := range tests {
		c := NewCPU()
		if err := c.LoadProgram(tt.program); err != nil {
			t.Fatal(err)
		}
		text, length := c.DisassembleAt(ProgramStart)
		if text != tt.expected {
			t.Errorf("disassembly = %q, expected %q", text, tt.expected)
		}
		if length != len(tt.program) {
			t.Errorf("%s: length = %d, expected %d", tt.expected, length, len(tt.program))
		}
	}
}

func TestDisassembleBranchTarget(t *testing.T) {
	// BNE at $0600 with offset -2 targets $0600
	c := NewCPU()
	if err := c.LoadProgram([]byte{0xD0, 0xFE}); err != nil {
		t.Fatal(err)
	}
	text, _ := c.DisassembleAt(ProgramStart)
	if text != "BNE $0600" {
		t.Errorf("branch disassembly = %q, expected %q", text, "BNE $0600")
	}
}

func TestDisassembleListing(t *testing.T) {
	c := NewCPU()
	program := []byte{0xA2, 0x03, 0xE8, 0x00} // LDX #$03; INX; BRK
	if err := c.LoadProgram(program); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	c.Disassemble(&buf, len(program))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expected := []string{"0600: LDX #$03", "0602: INX", "0603: BRK"}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines, expected %d:\n%s", len(lines), len(expected), buf.String())
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d = %q, expected %q", i, lines[i], want)
		}
	}
}
