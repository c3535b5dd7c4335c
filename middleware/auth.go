package middleware

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/AXI0MH1VE/State-Inverant/userctx"
)

// Session keys shared with the auth controller
const (
	SessionUserID        = "user_id"
	SessionUserEmail     = "user_email"
	SessionUserName      = "user_nickname"
	SessionRedirectAfter = "redirect_after_login"
)

// InjectOperator copies the signed-in operator from the session into the request context
func InjectOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		if id, ok := sess.Get(SessionUserID).(string); ok && id != "" {
			email, _ := sess.Get(SessionUserEmail).(string)
			name, _ := sess.Get(SessionUserName).(string)
			ctx := userctx.SetOperator(r.Context(), userctx.Operator{ID: id, Email: email, Name: name})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth ensures an operator is signed in when login is enabled.
// Unauthenticated GETs are redirected to /login; other methods get 401.
func RequireAuth(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := userctx.GetOperator(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method != http.MethodGet {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			sess := session.GetSession(r)
			sess.Set(SessionRedirectAfter, r.URL.Path)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}
