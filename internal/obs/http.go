package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers the suite attaches to browser traffic when it targets the local
// test sites.
const (
	HeaderRunID   = "X-E2E-Run-Id"
	HeaderProject = "X-E2E-Project"
	HeaderTest    = "X-E2E-Test"
	HeaderAttempt = "X-E2E-Attempt"
)

// ResponseRecorder tracks response status and bytes written.
type ResponseRecorder struct {
	http.ResponseWriter
	statusCode  int
	respBytes   int64
	wroteHeader bool
}

func (r *ResponseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.statusCode = http.StatusOK
		r.wroteHeader = true
	}
	n, err := r.ResponseWriter.Write(p)
	r.respBytes += int64(n)
	return n, err
}

func (r *ResponseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *ResponseRecorder) StatusCode() int {
	return r.statusCode
}

func (r *ResponseRecorder) RespBytes() int64 {
	return r.respBytes
}

// NewResponseRecorder wraps a response writer.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// CorrelationHeaders renders correlation fields as request headers.
func CorrelationHeaders(corr Correlation) map[string]string {
	headers := map[string]string{}
	if corr.RunID != "" {
		headers[HeaderRunID] = corr.RunID
	}
	if corr.Project != "" {
		headers[HeaderProject] = corr.Project
	}
	if corr.Test != "" {
		headers[HeaderTest] = corr.Test
	}
	if corr.Attempt != 0 {
		headers[HeaderAttempt] = strconv.Itoa(corr.Attempt)
	}
	return headers
}

// RequestContextMiddleware lifts correlation headers into the request context.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt, _ := strconv.Atoi(strings.TrimSpace(r.Header.Get(HeaderAttempt)))
		corr := Correlation{
			RunID:   strings.TrimSpace(r.Header.Get(HeaderRunID)),
			Project: strings.TrimSpace(r.Header.Get(HeaderProject)),
			Test:    strings.TrimSpace(r.Header.Get(HeaderTest)),
			Attempt: attempt,
		}
		ctx := WithCorrelation(r.Context(), corr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLogMiddleware emits one structured access event per request.
func AccessLogMiddleware(pkg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := NewResponseRecorder(w)
		next.ServeHTTP(recorder, r)

		durMS := float64(time.Since(start).Microseconds()) / 1000.0
		From(r.Context()).
			With("pkg", pkg).
			Debug(
				"http_access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.StatusCode(),
				"dur_ms", durMS,
				"resp_bytes", recorder.RespBytes(),
			)
	})
}
