// Package gui renders the CHIP-8 display in a window using ebiten and maps
// the host keyboard onto the sixteen-key pad. The update loop runs a fixed
// number of instructions per 60Hz frame and ticks the core timers once.
package gui

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lookbusy1344/retro-emulator/chip8"
)

// errNoKeyPressed signals that a key wait found no key down this frame.
// The update loop rewinds PC so the instruction retries next frame,
// keeping the window responsive during the wait.
var errNoKeyPressed = errors.New("no key pressed")

// keyMap is the canonical 1234/QWER/ASDF/ZXCV layout for the hex pad
var keyMap = map[ebiten.Key]byte{
	ebiten.Key1: 0x1, ebiten.Key2: 0x2, ebiten.Key3: 0x3, ebiten.Key4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

// Display is the ebiten game driving one CHIP-8 instance
type Display struct {
	vm           *chip8.CHIP8
	stepsPerTick int
	stepErr      error

	keys [16]bool
}

// NewDisplay wires a CHIP-8 core to the window. stepsPerTick is the number
// of instructions interpreted per 60Hz frame.
func NewDisplay(vm *chip8.CHIP8, stepsPerTick int) *Display {
	d := &Display{vm: vm, stepsPerTick: stepsPerTick}
	vm.Keypad = d
	return d
}

// Pressed implements chip8.Keypad from the per-frame key snapshot
func (d *Display) Pressed(key byte) bool {
	return d.keys[key&0x0F]
}

// WaitKey implements chip8.Keypad. It cannot block inside the frame loop,
// so it reports the first held key or errNoKeyPressed to retry next frame.
func (d *Display) WaitKey() (byte, error) {
	for key, down := range d.keys {
		if down {
			return byte(key), nil
		}
	}
	return 0, errNoKeyPressed
}

// Update runs one frame: refresh key state, interpret a batch of
// instructions, tick the timers
func (d *Display) Update() error {
	if d.stepErr != nil {
		return d.stepErr
	}

	for hostKey, padKey := range keyMap {
		d.keys[padKey] = ebiten.IsKeyPressed(hostKey)
	}

	for i := 0; i < d.stepsPerTick; i++ {
		if err := d.vm.Step(); err != nil {
			if errors.Is(err, errNoKeyPressed) {
				// Retry the key wait next frame
				d.vm.PC -= 2
				break
			}
			d.stepErr = err
			return err
		}
	}

	d.vm.TickTimers()
	return nil
}

// Draw blits the 64x32 framebuffer; ebiten scales it to the window
func (d *Display) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	for y := 0; y < chip8.DisplayHeight; y++ {
		for x := 0; x < chip8.DisplayWidth; x++ {
			if d.vm.Display[y*chip8.DisplayWidth+x] != 0 {
				screen.Set(x, y, color.White)
			}
		}
	}
}

// Layout reports the logical framebuffer size
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return chip8.DisplayWidth, chip8.DisplayHeight
}

// Run opens the window and drives the core until the window closes or the
// interpreter fails
func Run(vm *chip8.CHIP8, pixelScale, stepsPerTick int) error {
	if pixelScale < 1 {
		pixelScale = 1
	}
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}

	display := NewDisplay(vm, stepsPerTick)
	ebiten.SetWindowSize(chip8.DisplayWidth*pixelScale, chip8.DisplayHeight*pixelScale)
	ebiten.SetWindowTitle("CHIP-8")

	if err := ebiten.RunGame(display); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("display loop failed: %w", err)
	}
	return nil
}
