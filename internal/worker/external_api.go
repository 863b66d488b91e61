package worker

import (
	"context"
)

// SymbolsClient fetches the raw body of the symbols endpoint. A non-nil error
// means no body is available.
type SymbolsClient interface {
	FetchSymbols(ctx context.Context) (string, error)
	Close() error
}
