package api

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			event := log.Info()
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				event = log.Error()
			case ww.Status() >= http.StatusBadRequest:
				event = log.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("Request handled")
		}()

		next.ServeHTTP(ww, r)
	})
}

// recoverer turns a handler panic into an opaque JSON 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Str("request_id", middleware.GetReqID(r.Context())).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic")
				writeJSONError(w, http.StatusInternalServerError, "Server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// securityHeaders sets the usual hardening headers on every response.
func securityHeaders() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "DENY"),
		middleware.SetHeader("Referrer-Policy", "no-referrer"),
		middleware.SetHeader("Cross-Origin-Opener-Policy", "same-origin"),
		middleware.SetHeader("Cross-Origin-Resource-Policy", "same-origin"),
		middleware.SetHeader("X-DNS-Prefetch-Control", "off"),
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusNotFound, "Route not found")
}
