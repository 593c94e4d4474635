package chip8

import (
	"strings"
	"testing"
)

// fakeKeypad implements Keypad with fixed state for tests
type fakeKeypad struct {
	held    [16]bool
	waitKey byte
}

func (k *fakeKeypad) Pressed(key byte) bool  { return k.held[key] }
func (k *fakeKeypad) WaitKey() (byte, error) { return k.waitKey, nil }

// step executes one instruction encoded directly at PC
func step(t *testing.T, c *CHIP8, ins uint16) {
	t.Helper()
	if err := c.Memory.WriteByte(uint64(c.PC), byte(ins>>8)); err != nil {
		t.Fatal(err)
	}
	if err := c.Memory.WriteByte(uint64(c.PC)+1, byte(ins)); err != nil {
		t.Fatal(err)
	}
	if err := c.Step(); err != nil {
		t.Fatalf("Step(0x%04X) failed: %v", ins, err)
	}
}

func TestFontLoadedAtZero(t *testing.T) {
	c := New()
	// Glyph for 0 starts with 0xF0, glyph for F ends with 0x80
	first, _ := c.Memory.ReadByte(0)
	last, _ := c.Memory.ReadByte(79)
	if first != 0xF0 {
		t.Errorf("font byte 0 = 0x%02X, expected 0xF0", first)
	}
	if last != 0x80 {
		t.Errorf("font byte 79 = 0x%02X, expected 0x80", last)
	}
	if c.PC != ProgramStart {
		t.Errorf("initial PC = 0x%03X, expected 0x200", c.PC)
	}
}

func TestLoadROM(t *testing.T) {
	c := New()
	if err := c.LoadROM([]byte{0xAA, 0xBB}); err != nil {
		t.Fatal(err)
	}
	b, _ := c.Memory.ReadByte(ProgramStart)
	if b != 0xAA {
		t.Errorf("ROM byte at 0x200 = 0x%02X, expected 0xAA", b)
	}

	if err := c.LoadROM(make([]byte, 4096)); err == nil {
		t.Error("oversized ROM should be rejected")
	}
}

func TestAddWithCarry(t *testing.T) {
	c := New()
	c.V[0] = 0xFF
	c.V[1] = 0x01
	step(t, c, 0x8014) // ADD V0, V1

	if c.V[0] != 0x00 {
		t.Errorf("V0 = 0x%02X, expected 0x00", c.V[0])
	}
	if c.V[0xF] != 1 {
		t.Errorf("VF = %d, expected 1 (carry)", c.V[0xF])
	}

	c.V[0] = 0x01
	c.V[1] = 0x02
	step(t, c, 0x8014)
	if c.V[0] != 0x03 || c.V[0xF] != 0 {
		t.Errorf("V0 = 0x%02X VF = %d, expected 0x03 and 0", c.V[0], c.V[0xF])
	}
}

func TestSubSetsNotBorrow(t *testing.T) {
	c := New()
	c.V[0] = 0x05
	c.V[1] = 0x03
	step(t, c, 0x8015) // SUB V0, V1
	if c.V[0] != 0x02 || c.V[0xF] != 1 {
		t.Errorf("SUB: V0 = 0x%02X VF = %d, expected 0x02 and 1", c.V[0], c.V[0xF])
	}

	c.V[0] = 0x03
	c.V[1] = 0x05
	step(t, c, 0x8015)
	if c.V[0] != 0xFE || c.V[0xF] != 0 {
		t.Errorf("SUB borrow: V0 = 0x%02X VF = %d, expected 0xFE and 0", c.V[0], c.V[0xF])
	}
}

func TestSubn(t *testing.T) {
	c := New()
	c.V[0] = 0x03
	c.V[1] = 0x05
	step(t, c, 0x8017) // SUBN V0, V1
	if c.V[0] != 0x02 || c.V[0xF] != 1 {
		t.Errorf("SUBN: V0 = 0x%02X VF = %d, expected 0x02 and 1", c.V[0], c.V[0xF])
	}
}

func TestShiftsOperateOnVxInPlace(t *testing.T) {
	c := New()
	c.V[2] = 0x05
	c.V[3] = 0xFF      // must be ignored
	step(t, c, 0x8236) // SHR V2
	if c.V[2] != 0x02 {
		t.Errorf("SHR: V2 = 0x%02X, expected 0x02", c.V[2])
	}
	if c.V[0xF] != 1 {
		t.Errorf("SHR: VF = %d, expected low bit 1", c.V[0xF])
	}

	c.V[2] = 0x81
	step(t, c, 0x823E) // SHL V2
	if c.V[2] != 0x02 {
		t.Errorf("SHL: V2 = 0x%02X, expected 0x02", c.V[2])
	}
	if c.V[0xF] != 1 {
		t.Errorf("SHL: VF = %d, expected high bit 1", c.V[0xF])
	}
}

func TestConditionalSkips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *CHIP8)
		ins   uint16
		skip  bool
	}{
		{"SE equal", func(c *CHIP8) { c.V[0] = 0x42 }, 0x3042, true},
		{"SE not equal", func(c *CHIP8) { c.V[0] = 0x41 }, 0x3042, false},
		{"SNE not equal", func(c *CHIP8) { c.V[0] = 0x41 }, 0x4042, true},
		{"SNE equal", func(c *CHIP8) { c.V[0] = 0x42 }, 0x4042, false},
		{"SE Vx Vy equal", func(c *CHIP8) { c.V[0], c.V[1] = 7, 7 }, 0x5010, true},
		{"SNE Vx Vy", func(c *CHIP8) { c.V[0], c.V[1] = 7, 8 }, 0x9010, true},
	}

	for _, tt := range tests {
		c := New()
		tt.setup(c)
		step(t, c, tt.ins)

		expected := uint16(ProgramStart + 2)
		if tt.skip {
			expected += 2
		}
		if c.PC != expected {
			t.Errorf("%s: PC = 0x%03X, expected 0x%03X", tt.name, c.PC, expected)
		}
	}
}

func TestCallAndReturn(t *testing.T) {
	c := New()
	step(t, c, 0x2400) // CALL 0x400
	if c.PC != 0x400 {
		t.Fatalf("CALL: PC = 0x%03X, expected 0x400", c.PC)
	}
	if c.SP != 1 || c.Stack[1] != ProgramStart+2 {
		t.Fatalf("CALL: SP = %d stack[1] = 0x%03X", c.SP, c.Stack[1])
	}

	step(t, c, 0x00EE) // RET
	if c.PC != ProgramStart+2 {
		t.Errorf("RET: PC = 0x%03X, expected 0x%03X", c.PC, ProgramStart+2)
	}
	if c.SP != 0 {
		t.Errorf("RET: SP = %d, expected 0", c.SP)
	}
}

func TestReturnWithEmptyStack(t *testing.T) {
	c := New()
	if err := c.Memory.WriteByte(ProgramStart, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := c.Memory.WriteByte(ProgramStart+1, 0xEE); err != nil {
		t.Fatal(err)
	}
	if err := c.Step(); err == nil {
		t.Error("RET with empty stack should fail")
	}
}

func TestJumpWithOffset(t *testing.T) {
	c := New()
	c.V[0] = 0x10
	step(t, c, 0xB300) // JP V0, 0x300
	if c.PC != 0x310 {
		t.Errorf("JP V0: PC = 0x%03X, expected 0x310", c.PC)
	}
}

func TestRandomMask(t *testing.T) {
	c := New()
	c.SeedRandom(1)
	for i := 0; i < 20; i++ {
		c.PC = ProgramStart
		step(t, c, 0xC00F) // RND V0, 0x0F
		if c.V[0]&0xF0 != 0 {
			t.Fatalf("RND with mask 0x0F produced 0x%02X", c.V[0])
		}
	}
}

func TestDrawAndCollision(t *testing.T) {
	c := New()
	// Sprite: one byte 0xFF at 0x300
	if err := c.Memory.WriteByte(0x300, 0xFF); err != nil {
		t.Fatal(err)
	}
	c.I = 0x300
	c.V[0] = 4 // x
	c.V[1] = 2 // y

	step(t, c, 0xD011) // DRW V0, V1, 1
	if c.V[0xF] != 0 {
		t.Errorf("first draw: VF = %d, expected 0", c.V[0xF])
	}
	for i := 0; i < 8; i++ {
		if *c.pixel(4+i, 2) != 1 {
			t.Fatalf("pixel (%d,2) not set after draw", 4+i)
		}
	}
	if !c.DisplayModified {
		t.Error("draw should set DisplayModified")
	}

	// Second identical draw erases everything and reports collision
	c.PC = ProgramStart
	step(t, c, 0xD011)
	if c.V[0xF] != 1 {
		t.Errorf("second draw: VF = %d, expected 1", c.V[0xF])
	}
	for i := 0; i < 8; i++ {
		if *c.pixel(4+i, 2) != 0 {
			t.Fatalf("pixel (%d,2) still set after redraw", 4+i)
		}
	}
}

func TestDrawRedrawFiveRows(t *testing.T) {
	// Drawing a 5-row sprite of 0xFF twice leaves the region clear with
	// VF collision on the second pass
	c := New()
	for i := 0; i < 5; i++ {
		if err := c.Memory.WriteByte(uint64(0x300+i), 0xFF); err != nil {
			t.Fatal(err)
		}
	}
	c.I = 0x300
	c.V[0] = 0
	c.V[1] = 0

	step(t, c, 0xD015)
	c.PC = ProgramStart
	step(t, c, 0xD015)

	if c.V[0xF] != 1 {
		t.Errorf("VF = %d, expected 1 after redraw", c.V[0xF])
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 8; x++ {
			if *c.pixel(x, y) != 0 {
				t.Fatalf("pixel (%d,%d) still set", x, y)
			}
		}
	}
}

func TestDrawWrapsCoordinates(t *testing.T) {
	c := New()
	if err := c.Memory.WriteByte(0x300, 0x80); err != nil { // single leftmost pixel
		t.Fatal(err)
	}
	c.I = 0x300
	c.V[0] = 63 // last column
	c.V[1] = 31 // last row
	step(t, c, 0xD011)

	if *c.pixel(63, 31) != 1 {
		t.Error("pixel (63,31) not set")
	}

	// Coordinates beyond the display wrap mod 64/32
	c.Display = [DisplayWidth * DisplayHeight]byte{}
	c.V[0] = 64 + 3
	c.V[1] = 32 + 1
	c.PC = ProgramStart
	step(t, c, 0xD011)
	if *c.pixel(3, 1) != 1 {
		t.Error("wrapped draw should hit pixel (3,1)")
	}
}

func TestClearScreen(t *testing.T) {
	c := New()
	*c.pixel(5, 5) = 1
	step(t, c, 0x00E0)
	if *c.pixel(5, 5) != 0 {
		t.Error("CLS should clear the display")
	}
	if !c.DisplayModified {
		t.Error("CLS should set DisplayModified")
	}
}

func TestTimers(t *testing.T) {
	c := New()
	c.V[0] = 3
	step(t, c, 0xF015) // LD DT, V0
	c.PC = ProgramStart
	step(t, c, 0xF018) // LD ST, V0

	if c.DelayTimer != 3 || c.SoundTimer != 3 {
		t.Fatalf("timers = %d/%d, expected 3/3", c.DelayTimer, c.SoundTimer)
	}
	if !c.Beeping() {
		t.Error("sound timer running should report beeping")
	}

	for i := 0; i < 5; i++ {
		c.TickTimers()
	}
	if c.DelayTimer != 0 || c.SoundTimer != 0 {
		t.Errorf("timers after 5 ticks = %d/%d, expected 0/0", c.DelayTimer, c.SoundTimer)
	}

	c.PC = ProgramStart
	step(t, c, 0xF107) // LD V1, DT
	if c.V[1] != 0 {
		t.Errorf("V1 = %d, expected 0", c.V[1])
	}
}

func TestFontAddress(t *testing.T) {
	c := New()
	c.V[4] = 0xA
	step(t, c, 0xF429) // LD F, V4
	if c.I != 0xA*5 {
		t.Errorf("I = 0x%03X, expected 0x%03X", c.I, 0xA*5)
	}
}

func TestBCD(t *testing.T) {
	c := New()
	c.V[7] = 254
	c.I = 0x320
	step(t, c, 0xF733)

	digits := make([]byte, 3)
	for i := range digits {
		digits[i], _ = c.Memory.ReadByte(uint64(0x320 + i))
	}
	if digits[0] != 2 || digits[1] != 5 || digits[2] != 4 {
		t.Errorf("BCD of 254 = %v, expected [2 5 4]", digits)
	}
}

func TestStoreLoadRegistersLeaveIUnmodified(t *testing.T) {
	c := New()
	for i := byte(0); i <= 5; i++ {
		c.V[i] = i * 11
	}
	c.I = 0x340
	step(t, c, 0xF555) // LD [I], V0..V5

	if c.I != 0x340 {
		t.Errorf("Fx55 modified I: 0x%03X", c.I)
	}

	var fresh [16]byte
	c.V = fresh
	c.PC = ProgramStart
	step(t, c, 0xF565) // LD V0..V5, [I]

	if c.I != 0x340 {
		t.Errorf("Fx65 modified I: 0x%03X", c.I)
	}
	for i := byte(0); i <= 5; i++ {
		if c.V[i] != i*11 {
			t.Errorf("V%d = %d, expected %d", i, c.V[i], i*11)
		}
	}
}

func TestAddToIndex(t *testing.T) {
	c := New()
	c.I = 0x100
	c.V[3] = 0x20
	step(t, c, 0xF31E)
	if c.I != 0x120 {
		t.Errorf("I = 0x%03X, expected 0x120", c.I)
	}
}

func TestKeySkips(t *testing.T) {
	pad := &fakeKeypad{}
	pad.held[0x5] = true

	c := New()
	c.Keypad = pad
	c.V[0] = 0x5
	step(t, c, 0xE09E) // SKP V0
	if c.PC != ProgramStart+4 {
		t.Errorf("SKP with key held: PC = 0x%03X", c.PC)
	}

	c = New()
	c.Keypad = pad
	c.V[0] = 0x6
	step(t, c, 0xE0A1) // SKNP V0
	if c.PC != ProgramStart+4 {
		t.Errorf("SKNP with key up: PC = 0x%03X", c.PC)
	}
}

func TestWaitKey(t *testing.T) {
	c := New()
	c.Keypad = &fakeKeypad{waitKey: 0xB}
	step(t, c, 0xF20A) // LD V2, K
	if c.V[2] != 0xB {
		t.Errorf("V2 = 0x%X, expected 0xB", c.V[2])
	}
}

func TestWaitKeyWithoutKeypad(t *testing.T) {
	c := New()
	if err := c.Memory.WriteByte(ProgramStart, 0xF0); err != nil {
		t.Fatal(err)
	}
	if err := c.Memory.WriteByte(ProgramStart+1, 0x0A); err != nil {
		t.Fatal(err)
	}
	if err := c.Step(); err == nil {
		t.Error("Fx0A without a keypad should fail")
	}
}

func TestUnrecognizedInstruction(t *testing.T) {
	for _, ins := range []uint16{0x800F, 0xE000, 0xF0FF, 0x5003} {
		c := New()
		if err := c.Memory.WriteByte(ProgramStart, byte(ins>>8)); err != nil {
			t.Fatal(err)
		}
		if err := c.Memory.WriteByte(ProgramStart+1, byte(ins)); err != nil {
			t.Fatal(err)
		}
		err := c.Step()
		if err == nil {
			t.Errorf("instruction 0x%04X should be a decode error", ins)
			continue
		}
		if !strings.Contains(err.Error(), "0x") {
			t.Errorf("error should name the encoding in hex: %v", err)
		}
	}
}

func TestDisassembleSelection(t *testing.T) {
	tests := []struct {
		ins      uint16
		expected string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x1234, "JP 0x234"},
		{0x2345, "CALL 0x345"},
		{0x6A42, "LD VA, 66"},
		{0x8124, "ADD V1, V2"},
		{0xA123, "LD I, 0x123"},
		{0xD125, "DRW V1, V2, 5"},
		{0xF329, "LD F, V3"},
		{0xF555, "LD [I], V5"},
	}

	for _, tt := range tests {
		if got := disassembleOne(tt.ins); got != tt.expected {
			t.Errorf("disassembleOne(0x%04X) = %q, expected %q", tt.ins, got, tt.expected)
		}
	}
}
