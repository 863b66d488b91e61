package worker

import (
	"net"
	"net/http"

	"github.com/Lutefd/exchange-symbols/internal/commons"
)

// NewHTTPClient builds the client used for the symbols call. The overall
// request deadline is applied per call through the context, so the client
// itself only bounds dialing and the TLS handshake.
func NewHTTPClient() *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   commons.TransportDialTimeout,
			KeepAlive: commons.TransportKeepAlive,
		}).DialContext,
		MaxIdleConns:        commons.TransportMaxIdleConns,
		IdleConnTimeout:     commons.TransportIdleConnTimeout,
		TLSHandshakeTimeout: commons.TransportTLSTimeout,
	}
	return &http.Client{Transport: t}
}
