package webserver

import (
	"net/http"

	"github.com/spboyer/topsis/internal/webapi"
)

// buildHandler wires the API routes behind CORS, rate limiting and request
// metrics. /metrics is served outside the limiter so scrapes never get 429.
func buildHandler(cfg Config, store webapi.ResultStore, metrics *webapi.Metrics) (http.Handler, error) {
	handlers := webapi.NewHandlers(store, cfg.Sensitivity, cfg.Logger)
	if err := handlers.EnableMemo(cfg.MemoSize); err != nil {
		return nil, err
	}
	api := http.NewServeMux()
	webapi.RegisterRoutes(api, handlers)

	var h http.Handler = api
	h = webapi.RateLimitMiddleware(h, webapi.NewLimiter(cfg.RateLimit, cfg.Burst))
	h = webapi.CORSMiddleware(h, cfg.AllowedOrigins...)
	h = metrics.Middleware(h)

	root := http.NewServeMux()
	root.Handle("GET /metrics", metrics.Handler())
	root.Handle("/", h)
	return root, nil
}
