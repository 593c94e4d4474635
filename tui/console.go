// Package tui renders the 6502 memory-mapped text framebuffer in the
// terminal using tcell. The 32x16 character grid at 0x0400..0x05FF is
// redrawn whenever the core reports a framebuffer write.
package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lookbusy1344/retro-emulator/mos6502"
)

// Text frame dimensions in characters
const (
	FrameWidth  = 32
	FrameHeight = 16
)

// stepsPerPoll bounds how many instructions run between event polls so the
// terminal stays responsive
const stepsPerPoll = 2000

// Console drives a 6502 CPU and mirrors its text framebuffer on screen
type Console struct {
	cpu    *mos6502.CPU
	screen tcell.Screen
	poll   time.Duration
}

// New creates a console for the given CPU. pollInterval controls how often
// the framebuffer dirty bit is checked.
func New(cpu *mos6502.CPU, pollInterval time.Duration) *Console {
	return &Console{cpu: cpu, poll: pollInterval}
}

// Run executes the CPU until BRK or an error, rendering the framebuffer as
// it changes. After a halt it waits for a keypress before returning.
func (c *Console) Run() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	c.screen = screen
	defer screen.Fini()

	// Events are delivered on a channel so the step loop never blocks
	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	c.draw()
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	var stepErr error
	for !c.cpu.Halted && stepErr == nil {
		select {
		case ev := <-events:
			if quitRequested(ev) {
				return nil
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
		case <-ticker.C:
			if c.cpu.DisplayModified {
				c.cpu.DisplayModified = false
				c.draw()
			}
		default:
			for i := 0; i < stepsPerPoll && !c.cpu.Halted; i++ {
				if stepErr = c.cpu.Step(); stepErr != nil {
					break
				}
			}
		}
	}

	// Final frame, then wait for a key so the result stays visible
	c.draw()
	if stepErr != nil {
		return stepErr
	}
	for ev := range events {
		if _, ok := ev.(*tcell.EventKey); ok {
			return nil
		}
	}
	return nil
}

// draw copies the text frame out of guest memory onto the screen
func (c *Console) draw() {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorBlack)

	for row := 0; row < FrameHeight; row++ {
		for col := 0; col < FrameWidth; col++ {
			addr := uint16(mos6502.DisplayStart + row*FrameWidth + col)
			ch, err := c.cpu.Memory.ReadByte(uint64(addr))
			if err != nil {
				continue
			}
			r := rune(ch)
			if r < 0x20 || r > 0x7E {
				r = ' '
			}
			c.screen.SetContent(col, row, r, nil, style)
		}
	}
	c.screen.Show()
}

// quitRequested reports whether the event asks to leave the console
func quitRequested(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	return key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC
}
