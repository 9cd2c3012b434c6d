package routes

import (
	"net/http"
	"regexp"

	"github.com/mbolis/parish-forms/app"
	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
)

var reRefreshAuth = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login trades basic auth credentials for a token pair. The pair is sent
// back as JSON and also as cookies, so the dashboard pages under /admin can
// be opened right after.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		httpx.PasswordRequest(r, user, pass)
		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		if resp.OK() {
			setTokenCookies(w, resp)
		} else {
			log.Debugf("login.rejected: %s (%d)", user, resp.Status())
		}
		resp.Flush(w)
	}
}

// Refresh expects an "Authorization: Refresh <token>" header.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefreshAuth.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		req, err := httpx.RefreshRequest(match[1])
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		if resp.OK() {
			setTokenCookies(w, resp)
		}
		resp.Flush(w)
	}
}

func setTokenCookies(w http.ResponseWriter, resp httpx.ResponseBuffer) {
	t, err := httpx.DecodeToken(resp)
	if err != nil || t.AccessToken == "" {
		return
	}
	httpx.SetTokenCookies(w, t)
}
