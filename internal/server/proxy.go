package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// NewFrontendProxy encaminha para o servidor da UI tudo que não é da API.
func NewFrontendProxy(upstream string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid frontend upstream: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid frontend upstream %q: scheme and host are required", upstream)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("frontend proxy error",
			zap.String("path", r.URL.Path),
			zap.String("upstream", target.Host),
			zap.Error(err))
		writeError(w, http.StatusBadGateway, "Bad gateway")
	}
	return proxy, nil
}
