package core

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"bocateam/internal/chrono"
)

// Cookie is a cookie as remembered by a Jar, every attribute needed to restore it
// later is kept.
type Cookie struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
	// Expires is nil for session cookies.
	Expires  *time.Time `json:"expires,omitempty"`
	HostOnly bool       `json:"hostOnly"`
	Secure   bool       `json:"secure,omitempty"`
	HttpOnly bool       `json:"httpOnly,omitempty"`
	SameSite string     `json:"sameSite,omitempty"`
	Creation time.Time  `json:"creation"`
}

func (c Cookie) expired(now time.Time) bool {
	return c.Expires != nil && !c.Expires.After(now)
}

// Jar is an http.CookieJar that keeps cookies in insertion order and can enumerate
// them, which net/http/cookiejar cannot.
type Jar struct {
	mutex   sync.Mutex
	cookies []Cookie
	clock   chrono.API
}

// NewJar creates an empty jar, clock may be nil to use the system clock.
func NewJar(clock chrono.API) *Jar {
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	return &Jar{clock: clock}
}

func canonicalHost(u *url.URL) string {
	return strings.ToLower(u.Hostname())
}

func domainMatch(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	}
	return ""
}

func (j *Jar) index(key, domain, path string) int {
	for i, c := range j.cookies {
		if c.Key == key && c.Domain == domain && c.Path == path {
			return i
		}
	}
	return -1
}

func (j *Jar) remove(i int) {
	j.cookies = append(j.cookies[:i], j.cookies[i+1:]...)
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	host := canonicalHost(u)
	now := j.clock.Now().UTC()

	for _, c := range cookies {
		if c.Name == "" {
			continue
		}

		domain, hostOnly := host, true
		if c.Domain != "" {
			d := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
			if !domainMatch(host, d) {
				continue
			}
			domain, hostOnly = d, false
		}
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultPath(u.Path)
		}

		existing := j.index(c.Name, domain, path)

		var expires *time.Time
		switch {
		case c.MaxAge < 0:
			if existing >= 0 {
				j.remove(existing)
			}
			continue
		case c.MaxAge > 0:
			t := now.Add(time.Duration(c.MaxAge) * time.Second)
			expires = &t
		case !c.Expires.IsZero():
			t := c.Expires.UTC()
			if !t.After(now) {
				if existing >= 0 {
					j.remove(existing)
				}
				continue
			}
			expires = &t
		}

		record := Cookie{
			Key:      c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     path,
			Expires:  expires,
			HostOnly: hostOnly,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: sameSiteName(c.SameSite),
			Creation: now,
		}
		if existing >= 0 {
			record.Creation = j.cookies[existing].Creation
			j.cookies[existing] = record
			continue
		}
		j.cookies = append(j.cookies, record)
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	host := canonicalHost(u)
	now := j.clock.Now()
	secure := u.Scheme == "https"
	path := u.Path
	if path == "" {
		path = "/"
	}

	var out []*http.Cookie
	for _, c := range j.cookies {
		if c.expired(now) {
			continue
		}
		if c.HostOnly && c.Domain != host {
			continue
		}
		if !c.HostOnly && !domainMatch(host, c.Domain) {
			continue
		}
		if !pathMatch(path, c.Path) {
			continue
		}
		if c.Secure && !secure {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Key, Value: c.Value})
	}
	return out
}

// Get returns the first live cookie named key regardless of domain or path.
func (j *Jar) Get(key string) (Cookie, bool) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	now := j.clock.Now()
	for _, c := range j.cookies {
		if c.Key == key && !c.expired(now) {
			return c, true
		}
	}
	return Cookie{}, false
}

// CookieString renders the Cookie header value the jar would send to u.
func (j *Jar) CookieString(u *url.URL) string {
	cookies := j.Cookies(u)
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

// All returns a copy of every cookie, expired ones included.
func (j *Jar) All() []Cookie {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	out := make([]Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}
