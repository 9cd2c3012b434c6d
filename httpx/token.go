package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Token is the body sent back by the bearer server on a successful grant.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest builds the form-encoded request the bearer server expects
// for a refresh_token grant. The bearer server only exposes an http.Handler,
// so refreshing from inside another handler goes through a synthetic request.
func RefreshRequest(refreshToken string) (*http.Request, error) {
	return grantRequest(url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// PasswordRequest rewrites r into a password grant for the bearer server.
func PasswordRequest(r *http.Request, username, password string) {
	body := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}.Encode()
	r.Body = io.NopCloser(strings.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("content-type", "application/x-www-form-urlencoded")
	r.Header.Set("content-length", strconv.Itoa(len(body)))
}

func grantRequest(values url.Values) (*http.Request, error) {
	body := values.Encode()
	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))
	return req, nil
}

// DecodeToken parses a buffered bearer server response.
func DecodeToken(resp ResponseBuffer) (Token, error) {
	var t Token
	err := json.Unmarshal(resp.Body(), &t)
	return t, err
}

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// SetTokenCookies hands a token pair to the browser.
func SetTokenCookies(w http.ResponseWriter, t Token) {
	http.SetCookie(w, tokenCookie(AccessCookie, t.AccessToken, time.Duration(t.ExpiresIn)*time.Second))
	http.SetCookie(w, tokenCookie(RefreshCookie, t.RefreshToken, RefreshTTL))
}

// ClearRefreshCookie drops a refresh token the bearer server refused.
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     RefreshCookie,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    value,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
