package driver

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"varbuf/internal/source"
)

// Op is one buffer operation inside a kernel body. Kind selects the
// operation; the whole-buffer and indexed null operations are distinct
// kinds, never one kind with an optional index.
type Op struct {
	Kind  string  `toml:"op"`
	Index uint64  `toml:"index"`
	Value float64 `toml:"value"`
}

// Kernel is a declarative description of one compiled function body: it
// constructs a buffer of Count elements of Element type and applies Ops
// in order. When Return is set the buffer is handed back to the caller
// and excluded from the exit drain.
type Kernel struct {
	Name      string `toml:"name"`
	Element   string `toml:"element"`
	Container string `toml:"container"` // "Array" (default) or "Column"
	Mode      string `toml:"mode"`      // "ptr" (default) or "value"
	Count     uint64 `toml:"count"`
	Return    bool   `toml:"return"`
	Ops       []Op   `toml:"ops"`
}

type kernelFile struct {
	Kernels []Kernel `toml:"kernel"`
}

// LoadKernels reads [[kernel]] entries from a TOML file.
func LoadKernels(path string) ([]Kernel, error) {
	var cfg kernelFile
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for i := range cfg.Kernels {
		if err := cfg.Kernels[i].validate(); err != nil {
			return nil, fmt.Errorf("%s: kernel %d: %w", path, i, err)
		}
	}
	return cfg.Kernels, nil
}

func (k *Kernel) validate() error {
	if k.Name == "" {
		return fmt.Errorf("kernel has no name")
	}
	if k.Element == "" {
		return fmt.Errorf("kernel %q has no element type", k.Name)
	}
	switch k.Container {
	case "", "Array", "Column":
	default:
		return fmt.Errorf("kernel %q: unknown container %q", k.Name, k.Container)
	}
	switch k.Mode {
	case "", "ptr", "value":
	default:
		return fmt.Errorf("kernel %q: unknown mode %q", k.Name, k.Mode)
	}
	for i, op := range k.Ops {
		switch op.Kind {
		case "set", "get", "len", "is_null", "set_null", "is_null_at", "set_null_at", "free":
		default:
			return fmt.Errorf("kernel %q: op %d has unknown kind %q", k.Name, i, op.Kind)
		}
	}
	return nil
}

// opSpan synthesizes a span for the i-th operation of a kernel; op index
// -1 stands for the construction itself.
func opSpan(file source.FileID, i int) source.Span {
	pos := uint32(i + 1)
	return source.Span{File: file, Start: pos, End: pos + 1}
}
