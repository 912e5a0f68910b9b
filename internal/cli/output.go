package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// output writes command results in the selected format.
type output struct {
	w      io.Writer
	format string
}

func newOutput(w io.Writer, opts *RootOptions) *output {
	return &output{w: w, format: opts.Format}
}

// emit writes data as JSON, or text in text mode.
func (o *output) emit(data any, text string) error {
	if o.format == "json" {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(o.w, string(b))
		return err
	}
	_, err := fmt.Fprintln(o.w, text)
	return err
}
