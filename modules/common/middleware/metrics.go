package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vidu-proxy-server/modules/common/metrics"
)

// Metrics counts requests per route template. It is meant for mux.Router.Use,
// where the matched route is already known.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
	})
}
