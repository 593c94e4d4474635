// Package chip8 implements the CHIP-8 virtual machine: 4KB of memory, a
// 64x32 monochrome display and a sixteen-key keypad. The shift and
// load/store quirks follow the modern convention: SHR/SHL operate on Vx in
// place, and Fx55/Fx65 leave I unmodified.
package chip8

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lookbusy1344/retro-emulator/mem"
)

// Display dimensions in pixels
const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// ProgramStart is where ROM images are loaded and execution begins
const ProgramStart = 0x200

// fontSet holds the sixteen 4x5 hex digit glyphs stored at memory 0..79
var fontSet = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Keypad provides key state to the interpreter. Pressed reports whether a
// key 0x0..0xF is currently held; WaitKey blocks until any key is pressed
// and returns it. The frontend stays responsive during the wait.
type Keypad interface {
	Pressed(key byte) bool
	WaitKey() (byte, error)
}

// CHIP8 represents the full machine state
type CHIP8 struct {
	Memory *mem.Memory

	PC    uint16
	V     [16]byte // VF is the flag/borrow/collision register
	I     uint16
	Stack [17]uint16 // index 0 unused; SP is 1-based and pre-incremented
	SP    byte

	DelayTimer byte
	SoundTimer byte

	// Display is one byte per pixel, value 0 or 1, row-major
	Display [DisplayWidth * DisplayHeight]byte

	// DisplayModified is set by CLS and DRW and is never cleared by the
	// core; the gui frontend redraws every frame without consulting it
	DisplayModified bool

	// Keypad may be nil when no input device is attached; key
	// instructions then see no keys held and Fx0A fails
	Keypad Keypad

	rng *rand.Rand
}

// New creates a CHIP8 with the font loaded and PC at ProgramStart
func New() *CHIP8 {
	c := &CHIP8{
		Memory: mem.New(mem.SizeChip8),
		PC:     ProgramStart,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	_ = c.Memory.LoadBytes(0, fontSet[:])
	return c
}

// SeedRandom reseeds the RND generator, used by tests for determinism
func (c *CHIP8) SeedRandom(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// LoadROM copies a raw ROM image to ProgramStart
func (c *CHIP8) LoadROM(data []byte) error {
	if len(data) > mem.SizeChip8-ProgramStart {
		return fmt.Errorf("ROM too large: %d bytes (max %d)", len(data), mem.SizeChip8-ProgramStart)
	}
	return c.Memory.LoadBytes(ProgramStart, data)
}

// TickTimers decrements the delay and sound timers by one if nonzero.
// The frontend calls this at 60Hz, independent of the instruction rate.
func (c *CHIP8) TickTimers() {
	if c.DelayTimer > 0 {
		c.DelayTimer--
	}
	if c.SoundTimer > 0 {
		c.SoundTimer--
	}
}

// Beeping reports whether the sound timer is running
func (c *CHIP8) Beeping() bool {
	return c.SoundTimer > 0
}

// pixel returns a pointer to the display byte at (x, y), wrapped
func (c *CHIP8) pixel(x, y int) *byte {
	x %= DisplayWidth
	y %= DisplayHeight
	return &c.Display[y*DisplayWidth+x]
}
