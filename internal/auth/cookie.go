package auth

import (
	"net/http"
	"time"
)

// CookiePolicy describes how the session token is stored on the client.
type CookiePolicy struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// Set writes the session cookie. Its lifetime matches the token's.
func (p CookiePolicy) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true, // not readable from scripts
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// Clear instructs the client to drop the session cookie immediately.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}
