package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// status reports the written status, 200 when the handler never called WriteHeader
func status(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// LoggingMiddleware logs HTTP requests. The image payload is never logged.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Printf(
			"req_id=%s method=%s path=%s status=%d duration=%s bytes=%d ip=%s user_agent=%q",
			chimw.GetReqID(r.Context()),
			r.Method,
			r.URL.Path,
			status(ww),
			time.Since(start),
			ww.BytesWritten(),
			r.RemoteAddr,
			r.UserAgent(),
		)
	})
}
