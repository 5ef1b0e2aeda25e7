package httpapi

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, internalJobToken string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/watch", handler.ListWatchItems)
	mux.Handle("POST /v1/internal/scan", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScanJob)))
	mux.Handle("POST /v1/internal/tick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunTickJob)))

	wrapped := RequestLogging(logger, recoverPanic(logger, mux))
	return otelhttp.NewHandler(wrapped, "loanwatch.httpapi",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz"
		}),
	)
}
