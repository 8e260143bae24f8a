package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"varbuf/internal/diag"
	"varbuf/internal/driver"
	"varbuf/internal/source"
	"varbuf/internal/target"
)

// runSummary totals the diagnostics of one compile run.
type runSummary struct {
	Warnings int
	Errors   int
	Cached   int
}

var emitCmd = &cobra.Command{
	Use:   "emit [flags] <kernels.toml>",
	Short: "Compile kernels to an LLVM IR module",
	Long:  "Compile every [[kernel]] entry in the given TOML file and write the assembled LLVM IR module.",
	Args:  cobra.ExactArgs(1),
	RunE:  emitExecution,
}

func init() {
	emitCmd.Flags().StringP("output", "o", "", "write module IR to this file (default stdout)")
	emitCmd.Flags().String("target", "", "target description TOML (default built-in x86_64-linux-gnu)")
	emitCmd.Flags().Bool("no-cache", false, "bypass the on-disk IR cache")
	emitCmd.Flags().String("cache-dir", "", "cache directory (default XDG cache location)")
}

func emitExecution(cmd *cobra.Command, args []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	targetPath, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}

	mod, sum, err := compileAll(cmd, args[0], targetPath, noCache, cacheDir)
	if err != nil {
		return err
	}
	if sum.Errors > 0 {
		return fmt.Errorf("emit failed: %d errors", sum.Errors)
	}

	if outputPath != "" && outputPath != "-" {
		if err := os.WriteFile(outputPath, []byte(mod.Text()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), mod.Text())
	}
	return nil
}

// compileAll runs the shared load-compile-report pipeline used by both
// emit and check. Diagnostics go to stderr so piped IR stays clean.
func compileAll(cmd *cobra.Command, kernelsPath, targetPath string, noCache bool, cacheDir string) (*driver.Module, runSummary, error) {
	var sum runSummary

	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return nil, sum, err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, sum, err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, sum, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, sum, err
	}

	mode, err := readColorMode(colorValue)
	if err != nil {
		return nil, sum, err
	}
	applyColorMode(mode)

	tgt := target.X86_64LinuxGNU()
	if targetPath != "" {
		tgt, err = target.Load(targetPath)
		if err != nil {
			return nil, sum, err
		}
	}

	kernels, err := driver.LoadKernels(kernelsPath)
	if err != nil {
		return nil, sum, err
	}

	var cache *driver.Cache
	if !noCache {
		if cacheDir != "" {
			cache, err = driver.OpenCacheAt(cacheDir)
		} else {
			cache, err = driver.OpenCache("varbuf")
		}
		if err != nil {
			// A broken cache dir degrades to uncached compilation.
			cache = nil
		}
	}

	mod, err := driver.CompileKernels(cmd.Context(), tgt, kernels, source.FileID(1), cache)
	if err != nil {
		return nil, sum, err
	}

	errOut := cmd.ErrOrStderr()
	for _, r := range mod.Results {
		if r.Cached {
			sum.Cached++
		}
		for _, d := range r.Bag.Items() {
			switch {
			case d.Severity >= diag.SevError:
				sum.Errors++
			case d.Severity == diag.SevWarning:
				sum.Warnings++
			}
		}
		if r.Bag.Len() > 0 {
			printDiagnostics(errOut, r.Kernel.Name, r.Bag, maxDiagnostics)
		}
	}
	if !quiet {
		fmt.Fprintln(errOut, summaryLine(len(mod.Results), sum.Cached, sum.Warnings, sum.Errors))
	}
	if timings {
		printPhaseTimings(errOut, mod.Timing)
	}
	return mod, sum, nil
}
