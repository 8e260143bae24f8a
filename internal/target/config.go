package target

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// targetFile is the on-disk shape of a target description:
//
//	[target]
//	triple = "x86_64-linux-gnu"
//	alloc = "allocate_varlen_buffer"
//	free = "free"
//
//	[null_values]
//	"Array<int8>" = 129
type targetFile struct {
	Target struct {
		Triple   string `toml:"triple"`
		PtrSize  int    `toml:"ptr_size"`
		PtrAlign int    `toml:"ptr_align"`
		Alloc    string `toml:"alloc"`
		Free     string `toml:"free"`
	} `toml:"target"`
	NullValues map[string]uint64 `toml:"null_values"`
}

// ErrTargetSectionMissing indicates that [target] is missing in a target file.
var ErrTargetSectionMissing = errors.New("missing [target]")

// Load reads a target description from a TOML file. Unset fields fall
// back to the x86_64 defaults; [null_values] entries override the builtin
// table key by key.
func Load(path string) (Info, error) {
	var cfg targetFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Info{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("target") {
		return Info{}, fmt.Errorf("%s: %w", path, ErrTargetSectionMissing)
	}

	info := X86_64LinuxGNU()
	if cfg.Target.Triple != "" {
		info.Triple = cfg.Target.Triple
	}
	if cfg.Target.PtrSize > 0 {
		info.PtrSize = cfg.Target.PtrSize
	}
	if cfg.Target.PtrAlign > 0 {
		info.PtrAlign = cfg.Target.PtrAlign
	}
	if cfg.Target.Alloc != "" {
		info.AllocSym = cfg.Target.Alloc
	}
	if cfg.Target.Free != "" {
		info.FreeSym = cfg.Target.Free
	}
	for k, v := range cfg.NullValues {
		info.NullValues[k] = v
	}
	return info, nil
}
