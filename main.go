package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/retro-emulator/chip8"
	"github.com/lookbusy1344/retro-emulator/config"
	"github.com/lookbusy1344/retro-emulator/elf"
	"github.com/lookbusy1344/retro-emulator/gui"
	"github.com/lookbusy1344/retro-emulator/mos6502"
	"github.com/lookbusy1344/retro-emulator/rv64"
	"github.com/lookbusy1344/retro-emulator/tui"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	var configPath string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "retro-emulator",
		Short:         "Instruction-set emulators for the 6502, CHIP-8 and RISC-V 64",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				cfg, err = config.LoadFrom(configPath)
			} else {
				cfg, err = config.Load()
			}
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: platform config dir)")

	// chip8 subcommand
	var chip8Disasm bool
	var pixelScale int
	chip8Cmd := &cobra.Command{
		Use:   "chip8 <rom>",
		Short: "Run a CHIP-8 ROM in a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified ROM path
			if err != nil {
				return fmt.Errorf("failed to read ROM: %w", err)
			}

			vm := chip8.New()
			if err := vm.LoadROM(rom); err != nil {
				return err
			}

			if chip8Disasm {
				return vm.Disassemble(os.Stdout, len(rom))
			}

			scale := cfg.Chip8.PixelScale
			if pixelScale > 0 {
				scale = pixelScale
			}
			return gui.Run(vm, scale, cfg.Chip8.StepsPerTick)
		},
	}
	chip8Cmd.Flags().BoolVarP(&chip8Disasm, "disassemble", "d", false, "Disassemble the ROM and exit")
	chip8Cmd.Flags().IntVar(&pixelScale, "scale", 0, "Window pixel scale (overrides config)")

	// mos6502 subcommand
	var mosDisasm bool
	var mosTrace bool
	mosCmd := &cobra.Command{
		Use:   "mos6502 <program>",
		Short: "Run a raw 6502 program image loaded at $0600",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified program path
			if err != nil {
				return fmt.Errorf("failed to read program: %w", err)
			}

			cpu := mos6502.NewCPU()
			if err := cpu.LoadProgram(program); err != nil {
				return err
			}

			if mosDisasm {
				cpu.Disassemble(os.Stdout, len(program))
				return nil
			}

			if mosTrace || cfg.Execution.Trace {
				// Headless: print each instruction with A/X/Y before it runs
				cpu.TraceWriter = os.Stdout
				return runSteps(cpu.Step, func() bool { return cpu.Halted }, cfg.Execution.MaxSteps)
			}

			console := tui.New(cpu, time.Duration(cfg.Mos6502.DisplayPollMs)*time.Millisecond)
			return console.Run()
		},
	}
	mosCmd.Flags().BoolVarP(&mosDisasm, "disassemble", "d", false, "Disassemble the program and exit")
	mosCmd.Flags().BoolVarP(&mosTrace, "print", "p", false, "Print each instruction and A/X/Y before executing it")

	// riscv subcommand
	var riscvDisasm bool
	riscvCmd := &cobra.Command{
		Use:   "riscv <elf>",
		Short: "Run a statically linked RISC-V 64 ELF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified ELF path
			if err != nil {
				return fmt.Errorf("failed to read ELF: %w", err)
			}

			cpu := rv64.NewCPU(cfg.Riscv.MemorySize)
			cpu.RealTime = cfg.Riscv.RealTimeOfDay
			if err := cpu.LoadELF(image); err != nil {
				return err
			}

			if riscvDisasm {
				text, err := elf.FindText(image)
				if err != nil {
					return err
				}
				return cpu.Disassemble(os.Stdout, text.Offset, text.Size)
			}

			if err := runSteps(cpu.Step, func() bool { return cpu.Halted }, cfg.Execution.MaxSteps); err != nil {
				return err
			}

			fmt.Printf("exit code: %d\n", cpu.ExitCode)
			os.Exit(cpu.ExitCode)
			return nil
		},
	}
	riscvCmd.Flags().BoolVarP(&riscvDisasm, "disassemble", "d", false, "Disassemble the text section and exit")

	rootCmd.AddCommand(chip8Cmd, mosCmd, riscvCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runSteps drives a core until it halts, enforcing the configured step
// limit when one is set
func runSteps(step func() error, halted func() bool, maxSteps uint64) error {
	var n uint64
	for !halted() {
		if maxSteps > 0 && n >= maxSteps {
			return fmt.Errorf("step limit exceeded (%d instructions)", maxSteps)
		}
		if err := step(); err != nil {
			return err
		}
		n++
	}
	return nil
}
