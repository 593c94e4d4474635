package rv64

import (
	"fmt"
	"io"
	"time"
)

// Linux syscall numbers handled by the emulator
const (
	sysRead         = 63
	sysWrite        = 64
	sysExit         = 93
	sysGettimeofday = 169
)

// stubSeconds is the fixed tv_sec value returned by gettimeofday unless
// RealTime is enabled
const stubSeconds = 1234567890

// ecall dispatches on the syscall number in a7. read and write are limited
// to the standard streams; anything unrecognized is fatal.
func (c *CPU) ecall() error {
	switch c.Regs[RegA7] {
	case sysRead:
		return c.sysRead()
	case sysWrite:
		return c.sysWrite()
	case sysExit:
		c.ExitCode = int(int64(c.Regs[RegA0]))
		c.Halted = true
		return nil
	case sysGettimeofday:
		return c.sysGettimeofday()
	default:
		return fmt.Errorf("unrecognized syscall %d at 0x%X", c.Regs[RegA7], c.PC)
	}
}

// sysRead reads up to a2 bytes from stdin into the buffer at a1, stopping
// at a newline or EOF, and returns the byte count in a0
func (c *CPU) sysRead() error {
	fd := c.Regs[RegA0]
	buf := c.Regs[RegA1]
	count := c.Regs[RegA2]

	if fd != 0 {
		return fmt.Errorf("read syscall: unsupported fd %d", fd)
	}

	var n uint64
	for n < count {
		b, err := c.stdinReader.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read syscall: %w", err)
		}
		if werr := c.Memory.WriteByte(buf+n, b); werr != nil {
			return fmt.Errorf("read syscall buffer: %w", werr)
		}
		n++
		if b == '\n' {
			break
		}
	}

	c.Regs[RegA0] = n
	return nil
}

// sysWrite copies a2 bytes from the buffer at a1 to the output writer
func (c *CPU) sysWrite() error {
	fd := c.Regs[RegA0]
	buf := c.Regs[RegA1]
	count := c.Regs[RegA2]

	if fd != 1 {
		return fmt.Errorf("write syscall: unsupported fd %d", fd)
	}

	data, err := c.Memory.GetBytes(buf, int(count))
	if err != nil {
		return fmt.Errorf("write syscall buffer: %w", err)
	}
	if _, err := c.OutputWriter.Write(data); err != nil {
		return fmt.Errorf("write syscall: %w", err)
	}

	c.Regs[RegA0] = count
	return nil
}

// sysGettimeofday fills a timeval at a0 (tv_sec and tv_usec as 64-bit
// little-endian values) and zeroes the 8-byte timezone at a1 when nonzero
func (c *CPU) sysGettimeofday() error {
	tv := c.Regs[RegA0]
	tz := c.Regs[RegA1]

	sec := uint64(stubSeconds)
	usec := uint64(0)
	if c.RealTime {
		now := time.Now()
		sec = uint64(now.Unix())
		usec = uint64(now.Nanosecond() / 1000)
	}

	if err := c.Memory.WriteDouble(tv, sec); err != nil {
		return fmt.Errorf("gettimeofday timeval: %w", err)
	}
	if err := c.Memory.WriteDouble(tv+8, usec); err != nil {
		return fmt.Errorf("gettimeofday timeval: %w", err)
	}
	if tz != 0 {
		if err := c.Memory.WriteDouble(tz, 0); err != nil {
			return fmt.Errorf("gettimeofday timezone: %w", err)
		}
	}

	c.Regs[RegA0] = 0
	return nil
}
