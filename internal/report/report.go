package report

import (
	"fmt"
	"io"

	"github.com/Lutefd/exchange-symbols/internal/service"
)

const (
	NoSymbolsLine    = "No currency codes found."
	SymbolLineFormat = "Currency Code: %s, Description: %s\n"
	ErrorLineFormat  = "Error: %s\n"
)

// Render writes a lookup result as plain text. The raw body, when one was
// read, always comes first, ahead of any error or symbol line.
func Render(w io.Writer, r service.Result) error {
	if r.BodyRead {
		if _, err := fmt.Fprintln(w, r.Body); err != nil {
			return err
		}
	}

	if r.Err != nil {
		_, err := fmt.Fprintf(w, ErrorLineFormat, r.Err.Error())
		return err
	}

	if r.Response.Len() == 0 {
		_, err := fmt.Fprintln(w, NoSymbolsLine)
		return err
	}

	var writeErr error
	r.Response.Each(func(code, description string) {
		if writeErr != nil {
			return
		}
		_, writeErr = fmt.Fprintf(w, SymbolLineFormat, code, description)
	})
	return writeErr
}

// RenderError reports a failure that happened before any lookup ran.
func RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, ErrorLineFormat, err.Error())
	return werr
}
