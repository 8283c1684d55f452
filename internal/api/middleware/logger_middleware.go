package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *StatusRecoder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func userIDString(r *http.Request) string {
	if id, ok := util.GetUserIDFromContext(r.Context()); ok {
		return id.String()
	}
	return uuid.Nil.String()
}

// 記錄request 請求
// 有一起處理recover
func LoggerMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recoder := &StatusRecoder{
				ResponseWriter: w,
			}

			defer func() {
				if err := recover(); err != nil {
					var errMsg string
					if e, ok := err.(error); ok {
						errMsg = e.Error()
					} else {
						errMsg = fmt.Sprintf("%v", err)
					}
					logger.Error().
						Str("request_id", util.GetRequestIDFromContext(r.Context())).
						Str("user_id", userIDString(r)).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("error", errMsg).
						Bytes("stack", debug.Stack()).
						Msg("request panic")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal Server Error",
					})
					return
				}

				logger.Info().
					Str("request_id", util.GetRequestIDFromContext(r.Context())).
					Str("user_id", userIDString(r)).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Int("status", recoder.Status()).
					Dur("latency", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(recoder, r)
		})
	}
}
