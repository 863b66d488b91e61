package service

import (
	"context"

	"github.com/Lutefd/exchange-symbols/internal/logger"
	"github.com/Lutefd/exchange-symbols/internal/model"
	"github.com/Lutefd/exchange-symbols/internal/worker"
)

// Result is the outcome of one lookup. Body is only meaningful when BodyRead
// is set; it stays available when decoding fails so it can still be echoed.
type Result struct {
	Body     string
	BodyRead bool
	Response model.SymbolsResponse
	Err      error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

type SymbolsService struct {
	client worker.SymbolsClient
}

var _ SymbolsServiceInterface = (*SymbolsService)(nil)

func NewSymbolsService(client worker.SymbolsClient) *SymbolsService {
	return &SymbolsService{client: client}
}

func (s *SymbolsService) Lookup(ctx context.Context) Result {
	body, err := s.client.FetchSymbols(ctx)
	if err != nil {
		logger.Errorf("symbols lookup failed: %v", err)
		return Result{Err: err}
	}

	result := Result{Body: body, BodyRead: true}
	resp, err := model.DecodeSymbols([]byte(body))
	if err != nil {
		logger.Errorf("symbols response could not be decoded: %v", err)
		result.Err = err
		return result
	}

	result.Response = resp
	logger.Infof("symbols lookup returned %d entries (success=%t)", resp.Len(), resp.Success)
	return result
}
