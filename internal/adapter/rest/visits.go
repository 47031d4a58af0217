package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// VisitCookie marks a browser that was already counted today
const VisitCookie = "visited_today"

var untrackedPrefixes = []string{"/admin/", "/static/", "/health"}

// VisitRecorder counts page views
type VisitRecorder interface {
	RecordVisit(ctx context.Context, firstVisitToday bool) error
}

// VisitCounter counts one page view per request and one unique visit per browser per day.
// Counting failures are logged and never affect the response.
func VisitCounter(recorder VisitRecorder, log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("middleware", "visits").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || untracked(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now().UTC()
			today := domain.FormatDate(now)
			first := true
			if c, err := r.Cookie(VisitCookie); err == nil && c.Value == today {
				first = false
			}
			if first {
				y, m, d := now.Date()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitCookie,
					Value:    today,
					Path:     "/",
					Expires:  time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if err := recorder.RecordVisit(r.Context(), first); err != nil {
				log.Warn().Err(err).Msg("Failed to record visit")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func untracked(path string) bool {
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
