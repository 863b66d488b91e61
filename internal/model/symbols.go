package model

import (
	"encoding/json"
	"fmt"
)

// SymbolsResponse is the decoded body of the symbols endpoint. The symbols
// mapping is optional: a payload without it decodes fine and reports absence.
type SymbolsResponse struct {
	Success bool

	symbols map[string]string
	present bool
}

type symbolsPayload struct {
	Success bool               `json:"success"`
	Symbols *map[string]string `json:"symbols"`
}

func DecodeSymbols(raw []byte) (SymbolsResponse, error) {
	var payload symbolsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return SymbolsResponse{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resp := SymbolsResponse{Success: payload.Success}
	if payload.Symbols != nil && *payload.Symbols != nil {
		resp.symbols = *payload.Symbols
		resp.present = true
	}
	return resp, nil
}

// Symbols returns a copy of the mapping and whether the payload carried one.
func (r SymbolsResponse) Symbols() (map[string]string, bool) {
	if !r.present {
		return nil, false
	}
	out := make(map[string]string, len(r.symbols))
	for code, desc := range r.symbols {
		out[code] = desc
	}
	return out, true
}

func (r SymbolsResponse) Len() int {
	return len(r.symbols)
}

func (r SymbolsResponse) Each(fn func(code, description string)) {
	for code, desc := range r.symbols {
		fn(code, desc)
	}
}
