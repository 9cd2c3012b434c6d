package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
)

// Admin checks for the 'admin' role in an OAuth token signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		if rolesClaim, ok := claims["roles"]; ok {
			for _, role := range strings.Split(rolesClaim, ",") {
				if strings.TrimSpace(role) == httpx.RoleAdmin {
					isAdmin = true
					break
				}
			}
		}

		if !isAdmin {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.admin.role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieAuth lets browser pages reach handlers guarded by bearer auth. The
// access token is read from a cookie; when it is missing or rejected, the
// refresh cookie is traded for a new pair, and failing that the visitor is
// sent to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(httpx.AccessCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				httpx.LogInternalError(w, "auth.cookie.access", err)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie(httpx.RefreshCookie)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					httpx.LogInternalError(w, "auth.cookie.refresh", err)
					return
				}
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			req, err := httpx.RefreshRequest(refreshToken.Value)
			if err != nil {
				httpx.LogInternalError(w, "auth.refresh.request", err)
				return
			}
			resp := httpx.NewResponseBuffer()
			bearerServer.UserCredentials(resp, req)
			switch status := resp.Status(); {
			case status >= 400 && status < 500:
				log.Debugf("auth.refresh: rejected (%d)", status)
				httpx.ClearRefreshCookie(w)
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			case !resp.OK():
				httpx.LogStatus(w, http.StatusInternalServerError, log.WarnLevel, "auth.refresh")
				return
			}

			t, err := httpx.DecodeToken(resp)
			if err != nil {
				httpx.LogInternalError(w, "auth.refresh.decode", err)
				return
			}
			httpx.SetTokenCookies(w, t)

			r.Header.Set("authorization", "Bearer "+t.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
