package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
)

// render writes res as indented JSON, or as the errors/warnings display
// form for "text".
func render(w io.Writer, format string, res *notice.Result, cutoff int) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	opts := notice.DefaultProcessOptions()
	opts.CutoffPriorityLevel = cutoff
	p := notice.ToErrorsWarnings(res, opts)

	for _, s := range p.SuccessList {
		if _, err := fmt.Fprintf(w, "ok      %s\n", s); err != nil {
			return err
		}
	}
	for _, n := range p.ErrorList {
		fmt.Fprintf(w, "ERROR   %s\n", n)
	}
	for _, n := range p.WarningList {
		fmt.Fprintf(w, "WARNING %s\n", n)
	}
	_, err := fmt.Fprintf(w, "%d error(s), %d warning(s) in %d file(s) (%.2fs)\n",
		len(p.ErrorList)+p.NumSuppressedErrors, len(p.WarningList)+p.NumSuppressedWarnings,
		res.CheckedFileCount, res.ElapsedSeconds)
	return err
}
