package cli

import (
	"encoding/json"
	"io"
)

// printer writes command results as JSON or as text.
type printer struct {
	format string
	w      io.Writer
}

type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

func newPrinter(opts *RootOptions, w io.Writer) *printer {
	return &printer{format: opts.Format, w: w}
}

// emit prints data as JSON, or runs text for the text format.
func (p *printer) emit(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(response{Status: "ok", Data: data})
	}
	text(p.w)
	return nil
}
