package kernel

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Talescruzs/so2025s2/internal/frametable"
)

// Config carries the tunables spec.md §9 leaves as open parameters: quantum
// length, swap page-transfer time, page size, and maximum process count, plus
// the frame/swap geometry and replacement policy needed to size
// internal/frametable and internal/swapstore. Defaults match the original
// course's most complete draft (Trabalhos/t3/Codigo), per DESIGN.md.
type Config struct {
	MaxProcesses         int    `yaml:"maxProcesses"`
	Quantum              int    `yaml:"quantum"`
	ClockInterval        int    `yaml:"clockInterval"`
	PageSize             int    `yaml:"pageSize"`
	FrameCount           int    `yaml:"frameCount"`
	FrameBase            int    `yaml:"frameBase"`
	SwapPages            int    `yaml:"swapPages"`
	SwapPageTransferTime int    `yaml:"swapPageTransferTime"`
	TerminalCount        int    `yaml:"terminalCount"`
	NameLengthLimit      int    `yaml:"nameLengthLimit"`
	ReplacementPolicy    string `yaml:"replacementPolicy"` // "fifo" or "lru"
	TrapHandlerImage     string `yaml:"trapHandlerImage"`
	InitProgram          string `yaml:"initProgram"`
}

// DefaultConfig returns the conventional tunables this repository was
// calibrated against.
func DefaultConfig() Config {
	return Config{
		MaxProcesses:         4,
		Quantum:              50,
		ClockInterval:        50,
		PageSize:             16,
		FrameCount:           8,
		FrameBase:            16, // reserve the first page for the trap-handler image
		SwapPages:            256,
		SwapPageTransferTime: 10,
		TerminalCount:        4,
		NameLengthLimit:      32,
		ReplacementPolicy:    "fifo",
		TrapHandlerImage:     "trap.maq",
		InitProgram:          "init.maq",
	}
}

// LoadConfig reads a YAML config file, starting from DefaultConfig and
// overriding whatever keys are present, mirroring tinyrange-cc's
// internal/bundle YAML-metadata pattern.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("kernel: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("kernel: parse config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides cfg's fields from environment variables,
// following the teacher's examples/shared/config.go GetEnv*-style pattern.
func ApplyEnvOverrides(cfg *Config) {
	cfg.MaxProcesses = getEnvInt("TEACHOS_MAX_PROCESSES", cfg.MaxProcesses)
	cfg.Quantum = getEnvInt("TEACHOS_QUANTUM", cfg.Quantum)
	cfg.ClockInterval = getEnvInt("TEACHOS_CLOCK_INTERVAL", cfg.ClockInterval)
	cfg.PageSize = getEnvInt("TEACHOS_PAGE_SIZE", cfg.PageSize)
	cfg.FrameCount = getEnvInt("TEACHOS_FRAME_COUNT", cfg.FrameCount)
	cfg.FrameBase = getEnvInt("TEACHOS_FRAME_BASE", cfg.FrameBase)
	cfg.SwapPages = getEnvInt("TEACHOS_SWAP_PAGES", cfg.SwapPages)
	cfg.SwapPageTransferTime = getEnvInt("TEACHOS_SWAP_PAGE_TRANSFER_TIME", cfg.SwapPageTransferTime)
	cfg.TerminalCount = getEnvInt("TEACHOS_TERMINAL_COUNT", cfg.TerminalCount)
	cfg.NameLengthLimit = getEnvInt("TEACHOS_NAME_LENGTH_LIMIT", cfg.NameLengthLimit)
	if v := os.Getenv("TEACHOS_REPLACEMENT_POLICY"); v != "" {
		cfg.ReplacementPolicy = v
	}
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// Policy resolves the configured replacement policy to a frametable.Policy,
// defaulting to FIFO on an unrecognised value.
func (c Config) Policy() frametable.Policy {
	switch c.ReplacementPolicy {
	case "lru":
		return frametable.PolicyLRU
	default:
		return frametable.PolicyFIFO
	}
}
