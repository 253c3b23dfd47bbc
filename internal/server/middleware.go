package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/telemetry"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	searchIDSlotKey
)

// searchIDSlot lets a handler report the search id it minted back out to
// recoverer.
type searchIDSlot struct {
	id string
}

// mintSearchID returns the one search id for this request.
func (h *handlers) mintSearchID(ctx context.Context) string {
	slot, _ := ctx.Value(searchIDSlotKey).(*searchIDSlot)
	if slot != nil && slot.id != "" {
		return slot.id
	}
	id := h.deps.Searcher.NewSearchID()
	if slot != nil {
		slot.id = id
	}
	return id
}

// requestID injects a request ID into context and response headers.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func getRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// accessLog writes one zap entry per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", rec.bytes),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// recoverer turns a handler panic into the 500 failed shape.
func (h *handlers) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := h.now()
		slot := &searchIDSlot{}
		r = r.WithContext(context.WithValue(r.Context(), searchIDSlotKey, slot))
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := telemetry.CapturePanic(r.Context(), rec)
			zap.L().Error("server: handler panic",
				zap.String("path", r.URL.Path),
				zap.String("request_id", getRequestID(r.Context())),
				zap.Error(err),
			)
			elapsed := h.now().Sub(start).Milliseconds()
			writeJSON(w, http.StatusInternalServerError, model.FailureResponse{
				SearchID:        h.mintSearchID(r.Context()),
				Status:          model.SessionStatusFailed,
				Error:           err.Error(),
				ExecutionTimeMs: &elapsed,
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// maxBodyBytes limits request body size.
func maxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
