package client

import (
	"net/http"
	"net/url"
	"time"
)

// CookieOptions mirrors the attributes a cookie can be set with.
type CookieOptions struct {
	Expires  time.Time
	MaxAge   int
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// Cookie returns the value the jar would send to the server for name.
func (c *Client) Cookie(name string) (string, bool) {
	for _, ck := range c.httpClient.Jar.Cookies(c.cookieURL("/")) {
		if ck.Name == name {
			v, err := url.QueryUnescape(ck.Value)
			if err != nil {
				return ck.Value, true
			}
			return v, true
		}
	}
	return "", false
}

// SetCookie stores a cookie for the API host. Values are query-escaped.
func (c *Client) SetCookie(name, value string, opts CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     path,
		Domain:   opts.Domain,
		Expires:  opts.Expires,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	c.httpClient.Jar.SetCookies(c.cookieURL(path), []*http.Cookie{ck})
}

// DeleteCookie expires name at path ("/" when empty).
func (c *Client) DeleteCookie(name, path string) {
	c.SetCookie(name, "", CookieOptions{Path: path, MaxAge: -1})
}

// Cookies returns every cookie the jar holds for the API root.
func (c *Client) Cookies() map[string]string {
	out := make(map[string]string)
	for _, ck := range c.httpClient.Jar.Cookies(c.cookieURL("/")) {
		if ck.Value == "" {
			continue
		}
		v, err := url.QueryUnescape(ck.Value)
		if err != nil {
			v = ck.Value
		}
		out[ck.Name] = v
	}
	return out
}

// SessionToken returns the session cookie, if the client is signed in.
func (c *Client) SessionToken() (string, bool) {
	return c.Cookie(c.cookieName)
}

func (c *Client) cookieURL(path string) *url.URL {
	u := *c.baseURL
	u.Path = path
	u.RawQuery = ""
	return &u
}
