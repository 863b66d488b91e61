package commons

import "time"

const (
	DefaultBaseURL           = "https://api.apilayer.com/exchangerates_data/"
	SymbolsEndpoint          = "symbols"
	APIKeyHeader             = "apikey"
	DefaultRequestTimeout    = 10 * time.Second
	TransportDialTimeout     = 5 * time.Second
	TransportKeepAlive       = 30 * time.Second
	TransportIdleConnTimeout = 90 * time.Second
	TransportTLSTimeout      = 5 * time.Second
	TransportMaxIdleConns    = 10
	LoggerBufferSize         = 1000
	ShutdownTimeout          = 10 * time.Second
	LogSinkConnectTimeout    = 5 * time.Second
	PartitionMonthsAhead     = 3
	PartitionCronSpec        = "0 0 1 * *"
)
