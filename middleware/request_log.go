package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/repositories"
	"github.com/AXI0MH1VE/State-Inverant/userctx"
)

// maxFormValueLength truncates long form values in the request log
const maxFormValueLength = 500

// RequestLogger middleware records all POST/PUT/DELETE requests in the request log
func RequestLogger(repo repositories.RequestLogRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
				entry := &models.RequestLogEntry{
					Timestamp: time.Now(),
					UserEmail: userctx.GetUserEmail(r.Context()),
					Method:    r.Method,
					Path:      r.URL.Path,
					UserAgent: r.UserAgent(),
					IPAddress: clientIP(r),
					FormData:  captureFormData(r),
				}

				// Write asynchronously to avoid blocking the request
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := repo.Create(ctx, entry); err != nil {
						log.Error().Err(err).Str("path", entry.Path).Msg("Failed to create request log entry")
					}
				}()
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr; chi's RealIP has already applied proxy headers
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// captureFormData captures form data as JSON string
func captureFormData(r *http.Request) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	if len(r.PostForm) == 0 {
		return ""
	}

	formMap := make(map[string]interface{}, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) == 1 {
			formMap[key] = truncate(values[0])
			continue
		}
		truncated := make([]string, len(values))
		for i, v := range values {
			truncated[i] = truncate(v)
		}
		formMap[key] = truncated
	}

	jsonData, err := json.Marshal(formMap)
	if err != nil {
		return ""
	}

	return string(jsonData)
}

func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxFormValueLength {
		return value
	}
	return string(runes[:maxFormValueLength]) + "…"
}
