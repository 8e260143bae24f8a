package main

import (
	"fmt"
	"io"

	"varbuf/internal/observ"
)

func printPhaseTimings(out io.Writer, report observ.Report) {
	if out == nil {
		return
	}
	for _, p := range report.Phases {
		fmt.Fprintf(out, "%s %.1f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(out, " (%s)", p.Note)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "total %.1f ms\n", report.TotalMS)
}
