// internal/gateway/transport/http/proxy.go
package http

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/response"
)

// newProxy строит reverse-proxy на один downstream-сервис. Request-ID
// уже проброшен middleware'ом, путь передаётся как есть: бэкенды
// монтируют свои роуты под теми же префиксами, что и шлюз.
func newProxy(target string, log *logger.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse target %q: %w", target, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithContext(r.Context()).Error("proxy error",
			zap.String("target", target), zap.Error(err))
		response.Error(w, autherr.ErrServerError.WithCause(err))
	}
	return proxy, nil
}
