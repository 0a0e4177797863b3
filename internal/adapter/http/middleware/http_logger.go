package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aq2208/growcery-api/internal/logging"
)

const (
	// MaxRequestBody bounds JSON request bodies; larger ones are answered with 413.
	MaxRequestBody = 1 << 20
	logBodyLimit   = 8 * 1024
	truncatedMark  = "...truncated..."
)

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"passwordhash":  {},
	"authorization": {},
	"token":         {},
	"secret":        {},
}

// responseTap copies up to logBodyLimit bytes of the response for the access log.
type responseTap struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *responseTap) Write(b []byte) (int, error) {
	// one byte past the limit lets forLog tell the body was cut
	if room := logBodyLimit + 1 - w.buf.Len(); room > 0 {
		w.buf.Write(b[:min(len(b), room)])
	}
	return w.ResponseWriter.Write(b)
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

// redactJSON masks credential fields at any depth. Non-JSON input is returned as is.
func redactJSON(raw []byte) []byte {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return raw
	}
	out, err := json.Marshal(scrub(v))
	if err != nil {
		return raw
	}
	return out
}

func scrub(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				x[k] = "***redacted***"
				continue
			}
			x[k] = scrub(val)
		}
	case []any:
		for i := range x {
			x[i] = scrub(x[i])
		}
	}
	return v
}

// forLog redacts a copy of b and cuts it to logBodyLimit. b is never modified.
func forLog(b []byte) string {
	s := redactJSON(bytes.Clone(b))
	if len(s) > logBodyLimit {
		return string(s[:logBodyLimit]) + truncatedMark
	}
	return string(s)
}

// readJSONBody buffers a JSON request body up to MaxRequestBody and puts an untouched
// copy back for the handlers.
func readJSONBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil || !isJSON(c.GetHeader("Content-Type")) {
		return nil, nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBody))
	_ = c.Request.Body.Close()
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

// Logging returns a Gin middleware that logs request/response and injects a slog.Logger into the context.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set("X-Request-Id", reqID)
		}
		c.Header("X-Request-Id", reqID)

		l := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(), // empty when no route matched
			"remote", c.ClientIP(),
		)
		logging.With(c, l)
		c.Request = c.Request.WithContext(logging.WithCtx(c.Request.Context(), l))

		raw, err := readJSONBody(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				l.Warn("http_request", "status", http.StatusRequestEntityTooLarge, "limit", tooLarge.Limit)
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Request body too large"})
				return
			}
			l.Warn("http_request", "status", http.StatusBadRequest, "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}

		tap := &responseTap{ResponseWriter: c.Writer}
		c.Writer = tap

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"dur_ms", time.Since(start).Milliseconds(),
			"resp_bytes", c.Writer.Size(),
		}
		if len(raw) > 0 {
			attrs = append(attrs, "req_body", forLog(raw))
		}
		if isJSON(c.Writer.Header().Get("Content-Type")) && tap.buf.Len() > 0 {
			attrs = append(attrs, "resp_body", forLog(tap.buf.Bytes()))
		}
		if len(c.Params) > 0 {
			attrs = append(attrs, "params", c.Params)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		if status >= http.StatusBadRequest {
			l.Error("http_request", attrs...)
			return
		}
		l.Info("http_request", attrs...)
	}
}
