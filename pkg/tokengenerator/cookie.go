package tokengenerator

import (
	"net/http"
	"time"
)

// CookieSetter interface defines methods for cookie operations
type CookieSetter interface {
	// SetCookie sets a cookie with the given value and expiry
	SetCookie(w http.ResponseWriter, tokenName, tokenValue string, expire time.Time) error

	// ClearCookie clears a cookie
	ClearCookie(w http.ResponseWriter, tokenName string) error
}

// BaseCookieSetter provides a base implementation of CookieSetter
type BaseCookieSetter struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// SetCookie sets a cookie with the given value and expiry
func (c *BaseCookieSetter) SetCookie(w http.ResponseWriter, tokenName, tokenValue string, expire time.Time) error {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenName,
		Path:     c.Path,
		Value:    tokenValue,
		Expires:  expire,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	return nil
}

// ClearCookie clears a cookie
func (c *BaseCookieSetter) ClearCookie(w http.ResponseWriter, tokenName string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenName,
		Path:     c.Path,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
	})
	return nil
}

// NewCookieSetter creates a new cookie setter
func NewCookieSetter(httpOnly, secure bool) CookieSetter {
	return &BaseCookieSetter{
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetTokensCookie writes every token in the map as a cookie
func SetTokensCookie(setter CookieSetter, w http.ResponseWriter, tokens map[string]TokenValue) error {
	for name, tv := range tokens {
		if err := setter.SetCookie(w, name, tv.Token, tv.Expiry); err != nil {
			return err
		}
	}
	return nil
}
