package repository

import (
	"context"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/model"
)

type LogRepository interface {
	SaveLog(ctx context.Context, log model.Log) error
	CreatePartition(ctx context.Context, month time.Time) error
	Close() error
}
