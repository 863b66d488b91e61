package service

import (
	"context"
)

type SymbolsServiceInterface interface {
	Lookup(ctx context.Context) Result
}
