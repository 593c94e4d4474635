package chip8

import (
	"fmt"
)

// instruction holds the decoded fields of one 16-bit big-endian word
type instruction struct {
	ins uint16
	nnn uint16 // lowest 12 bits
	n   byte   // lowest 4 bits
	x   byte   // bits 8..11
	y   byte   // bits 4..7
	kk  byte   // lowest 8 bits
}

// fetch reads the big-endian instruction at PC and advances PC by two
func (c *CHIP8) fetch() (instruction, error) {
	high, err := c.Memory.ReadByte(uint64(c.PC))
	if err != nil {
		return instruction{}, fmt.Errorf("instruction fetch at 0x%03X: %w", c.PC, err)
	}
	low, err := c.Memory.ReadByte(uint64(c.PC) + 1)
	if err != nil {
		return instruction{}, fmt.Errorf("instruction fetch at 0x%03X: %w", c.PC, err)
	}
	c.PC += 2

	ins := uint16(high)<<8 | uint16(low)
	return instruction{
		ins: ins,
		nnn: ins & 0x0FFF,
		n:   byte(ins & 0x000F),
		x:   byte(ins>>8) & 0x0F,
		y:   byte(ins>>4) & 0x0F,
		kk:  byte(ins),
	}, nil
}

// skip advances PC over the next instruction when cond holds
func (c *CHIP8) skip(cond bool) {
	if cond {
		c.PC += 2
	}
}

// setVF stores 0 or 1 into the flag register
func (c *CHIP8) setVF(on bool) {
	if on {
		c.V[0xF] = 1
	} else {
		c.V[0xF] = 0
	}
}

// Step fetches, decodes and executes one instruction
func (c *CHIP8) Step() error {
	in, err := c.fetch()
	if err != nil {
		return err
	}

	switch in.ins >> 12 {
	case 0x0:
		switch in.nnn {
		case 0x0E0: // CLS
			c.Display = [DisplayWidth * DisplayHeight]byte{}
			c.DisplayModified = true
		case 0x0EE: // RET
			if c.SP == 0 {
				return fmt.Errorf("RET with empty stack at 0x%03X", c.PC-2)
			}
			c.PC = c.Stack[c.SP]
			c.SP--
		default:
			// SYS nnn behaves as a jump on this interpreter
			c.PC = in.nnn
		}

	case 0x1: // JP nnn
		c.PC = in.nnn

	case 0x2: // CALL nnn
		if c.SP >= 16 {
			return fmt.Errorf("CALL overflows the stack at 0x%03X", c.PC-2)
		}
		c.SP++
		c.Stack[c.SP] = c.PC
		c.PC = in.nnn

	case 0x3: // SE Vx, kk
		c.skip(c.V[in.x] == in.kk)

	case 0x4: // SNE Vx, kk
		c.skip(c.V[in.x] != in.kk)

	case 0x5: // SE Vx, Vy
		if in.n != 0 {
			return decodeError(in)
		}
		c.skip(c.V[in.x] == c.V[in.y])

	case 0x6: // LD Vx, kk
		c.V[in.x] = in.kk

	case 0x7: // ADD Vx, kk (no carry flag)
		c.V[in.x] += in.kk

	case 0x8:
		return c.executeALU(in)

	case 0x9: // SNE Vx, Vy
		if in.n != 0 {
			return decodeError(in)
		}
		c.skip(c.V[in.x] != c.V[in.y])

	case 0xA: // LD I, nnn
		c.I = in.nnn

	case 0xB: // JP V0, nnn
		c.PC = in.nnn + uint16(c.V[0])

	case 0xC: // RND Vx, kk
		c.V[in.x] = byte(c.rng.Intn(256)) & in.kk

	case 0xD: // DRW Vx, Vy, n
		return c.draw(in)

	case 0xE:
		switch in.kk {
		case 0x9E: // SKP Vx
			c.skip(c.keyHeld(c.V[in.x]))
		case 0xA1: // SKNP Vx
			c.skip(!c.keyHeld(c.V[in.x]))
		default:
			return decodeError(in)
		}

	case 0xF:
		return c.executeMisc(in)
	}

	return nil
}

// executeALU handles the 8xyN register operations
func (c *CHIP8) executeALU(in instruction) error {
	vx, vy := c.V[in.x], c.V[in.y]

	switch in.n {
	case 0x0: // LD
		c.V[in.x] = vy
	case 0x1: // OR
		c.V[in.x] = vx | vy
	case 0x2: // AND
		c.V[in.x] = vx & vy
	case 0x3: // XOR
		c.V[in.x] = vx ^ vy
	case 0x4: // ADD, VF = carry
		sum := uint16(vx) + uint16(vy)
		c.V[in.x] = byte(sum)
		c.setVF(sum > 0xFF)
	case 0x5: // SUB, VF = NOT borrow
		c.V[in.x] = vx - vy
		c.setVF(vx > vy)
	case 0x6: // SHR in place, VF = bit shifted out
		c.V[in.x] = vx >> 1
		c.setVF(vx&0x01 != 0)
	case 0x7: // SUBN, VF = NOT borrow
		c.V[in.x] = vy - vx
		c.setVF(vy > vx)
	case 0xE: // SHL in place, VF = bit shifted out
		c.V[in.x] = vx << 1
		c.setVF(vx&0x80 != 0)
	default:
		return decodeError(in)
	}
	return nil
}

// draw XORs an n-byte sprite from memory[I..I+n) into the display at
// (Vx, Vy). Coordinates wrap; VF reports whether any lit pixel was
// turned off.
func (c *CHIP8) draw(in instruction) error {
	x0 := int(c.V[in.x])
	y0 := int(c.V[in.y])
	c.V[0xF] = 0

	for row := 0; row < int(in.n); row++ {
		spriteByte, err := c.Memory.ReadByte(uint64(c.I) + uint64(row))
		if err != nil {
			return fmt.Errorf("DRW sprite read: %w", err)
		}
		for bit := 0; bit < 8; bit++ {
			on := (spriteByte >> (7 - bit)) & 1
			if on == 0 {
				continue
			}
			p := c.pixel(x0+bit, y0+row)
			if *p == 1 {
				c.V[0xF] = 1
			}
			*p ^= 1
		}
	}

	c.DisplayModified = true
	return nil
}

// executeMisc handles the FxNN family
func (c *CHIP8) executeMisc(in instruction) error {
	switch in.kk {
	case 0x07: // LD Vx, DT
		c.V[in.x] = c.DelayTimer
	case 0x0A: // LD Vx, K: block until a key is pressed
		if c.Keypad == nil {
			return fmt.Errorf("Fx0A with no keypad attached")
		}
		key, err := c.Keypad.WaitKey()
		if err != nil {
			return fmt.Errorf("Fx0A key wait: %w", err)
		}
		c.V[in.x] = key
	case 0x15: // LD DT, Vx
		c.DelayTimer = c.V[in.x]
	case 0x18: // LD ST, Vx
		c.SoundTimer = c.V[in.x]
	case 0x1E: // ADD I, Vx
		c.I += uint16(c.V[in.x])
	case 0x29: // LD F, Vx: font glyphs are 5 bytes each from address 0
		c.I = uint16(c.V[in.x]) * 5
	case 0x33: // BCD of Vx at I, I+1, I+2
		value := c.V[in.x]
		if err := c.Memory.WriteByte(uint64(c.I), value/100); err != nil {
			return fmt.Errorf("Fx33 store: %w", err)
		}
		if err := c.Memory.WriteByte(uint64(c.I)+1, (value/10)%10); err != nil {
			return fmt.Errorf("Fx33 store: %w", err)
		}
		if err := c.Memory.WriteByte(uint64(c.I)+2, value%10); err != nil {
			return fmt.Errorf("Fx33 store: %w", err)
		}
	case 0x55: // LD [I], V0..Vx; I is left unmodified
		for r := byte(0); r <= in.x; r++ {
			if err := c.Memory.WriteByte(uint64(c.I)+uint64(r), c.V[r]); err != nil {
				return fmt.Errorf("Fx55 store: %w", err)
			}
		}
	case 0x65: // LD V0..Vx, [I]; I is left unmodified
		for r := byte(0); r <= in.x; r++ {
			value, err := c.Memory.ReadByte(uint64(c.I) + uint64(r))
			if err != nil {
				return fmt.Errorf("Fx65 load: %w", err)
			}
			c.V[r] = value
		}
	default:
		return decodeError(in)
	}
	return nil
}

// keyHeld consults the keypad, treating a missing keypad as no keys held
func (c *CHIP8) keyHeld(key byte) bool {
	if c.Keypad == nil {
		return false
	}
	return c.Keypad.Pressed(key & 0x0F)
}

func decodeError(in instruction) error {
	return fmt.Errorf("unrecognized instruction 0x%04X", in.ins)
}
