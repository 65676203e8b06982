package core

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"bocateam/internal/chrono"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func testClock() *chrono.FixedImpl {
	return &chrono.FixedImpl{Time: time.Date(2024, time.October, 5, 14, 0, 0, 0, time.UTC)}
}

func TestJarSetCookies(t *testing.T) {
	clock := testClock()
	jar := NewJar(clock)
	index := mustParse(t, "http://10.0.0.5/boca/index.php")

	jar.SetCookies(index, []*http.Cookie{
		{Name: "PHPSESSID", Value: "abc", Path: "/"},
		{Name: "biscoitobocabombonera", Value: "xyz"},
		{Name: "", Value: "ignored"},
	})

	require.Equal(t, "PHPSESSID=abc; biscoitobocabombonera=xyz", jar.CookieString(index))

	// default path is the directory of the request
	require.Equal(t, "PHPSESSID=abc", jar.CookieString(mustParse(t, "http://10.0.0.5/other")))
	require.Equal(t, "", jar.CookieString(mustParse(t, "http://10.0.0.6/boca/index.php")))

	token, ok := jar.Get("PHPSESSID")
	require.True(t, ok)
	require.Equal(t, "10.0.0.5", token.Domain)
	require.True(t, token.HostOnly)

	clock.Advance(time.Minute)
	jar.SetCookies(index, []*http.Cookie{{Name: "PHPSESSID", Value: "def", Path: "/"}})
	token, _ = jar.Get("PHPSESSID")
	require.Equal(t, "def", token.Value)
	require.Equal(t, clock.Time.Add(-time.Minute), token.Creation, "replacing a cookie keeps its creation time")
	require.Len(t, jar.All(), 2)

	jar.SetCookies(index, []*http.Cookie{{Name: "PHPSESSID", Path: "/", MaxAge: -1}})
	_, ok = jar.Get("PHPSESSID")
	require.False(t, ok)
}

func TestJarExpiry(t *testing.T) {
	clock := testClock()
	jar := NewJar(clock)
	u := mustParse(t, "http://contest.local/boca/team/index.php")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "short", Value: "1", Path: "/", MaxAge: 60},
		{Name: "gone", Value: "2", Path: "/", Expires: clock.Time.Add(-time.Hour)},
		{Name: "wide", Value: "3", Path: "/", Domain: ".contest.local"},
	})
	require.Equal(t, "short=1; wide=3", jar.CookieString(u))
	require.Equal(t, "wide=3", jar.CookieString(mustParse(t, "http://www.contest.local/")))

	clock.Advance(2 * time.Minute)
	require.Equal(t, "wide=3", jar.CookieString(u))
	_, ok := jar.Get("short")
	require.False(t, ok)
	require.Len(t, jar.All(), 2, "expired cookies are kept until replaced")
}

func TestJarRoundTrip(t *testing.T) {
	clock := testClock()
	jar := NewJar(clock)
	u := mustParse(t, "http://10.0.0.5/boca/index.php")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "PHPSESSID", Value: "abc", Path: "/", HttpOnly: true},
		{Name: "biscoitobocabombonera", Value: "xyz", Path: "/", MaxAge: 3600, SameSite: http.SameSiteLaxMode},
		{Name: "secure", Value: "s", Path: "/boca", Secure: true},
	})

	raw, err := SerializeJar(jar)
	require.NoError(t, err)

	restored, err := DeserializeJar(raw, clock)
	require.NoError(t, err)

	diff := cmp.Diff(jar.All(), restored.All())
	if diff != "" {
		t.Fatalf("restored jar differs (-want +got):\n%s", diff)
	}
	require.Equal(t, jar.CookieString(u), restored.CookieString(u))

	again, err := SerializeJar(restored)
	require.NoError(t, err)
	require.JSONEq(t, raw, again)
}

// a jar restored in a later process keeps session cookies as session cookies, accepts a
// domain attribute naming the server ip and evaluates expiry against the injected clock
func TestRestoredJarState(t *testing.T) {
	clock := testClock()
	jar := NewJar(clock)
	u := mustParse(t, "http://10.0.0.5/boca/index.php")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "PHPSESSID", Value: "abc", Path: "/"},
		{Name: "biscoitobocabombonera", Value: "xyz", Path: "/", Domain: "10.0.0.5"},
		{Name: "short", Value: "1", Path: "/", MaxAge: 60},
	})
	require.Equal(t, "PHPSESSID=abc; biscoitobocabombonera=xyz; short=1", jar.CookieString(u))

	raw, err := SerializeJar(jar)
	require.NoError(t, err)

	later := &chrono.FixedImpl{Time: clock.Time.Add(2 * time.Minute)}
	restored, err := DeserializeJar(raw, later)
	require.NoError(t, err)
	require.Equal(t, "PHPSESSID=abc; biscoitobocabombonera=xyz", restored.CookieString(u))

	token, ok := restored.Get("PHPSESSID")
	require.True(t, ok)
	require.Nil(t, token.Expires)
	require.True(t, token.HostOnly)
	require.Equal(t, clock.Time, token.Creation)

	wide, ok := restored.Get("biscoitobocabombonera")
	require.True(t, ok)
	require.False(t, wide.HostOnly)
	require.Equal(t, "10.0.0.5", wide.Domain)
}

func TestSerializeEmptyJar(t *testing.T) {
	raw, err := SerializeJar(NewJar(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"version": 1, "cookies": []}`, raw)

	jar, err := DeserializeJar(raw, nil)
	require.NoError(t, err)
	require.Empty(t, jar.All())
}

func TestDeserializeMalformedJar(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not json", raw: "PHPSESSID=abc"},
		{name: "wrong type", raw: `["PHPSESSID"]`},
		{name: "missing version", raw: `{"cookies": []}`},
		{name: "future version", raw: `{"version": 2, "cookies": []}`},
		{name: "missing cookies", raw: `{"version": 1}`},
		{name: "null cookies", raw: `{"version": 1, "cookies": null}`},
		{name: "unknown field", raw: `{"version": 1, "cookies": [], "store": "memory"}`},
		{name: "cookie without key", raw: `{"version": 1, "cookies": [{"value": "a", "domain": "h", "path": "/"}]}`},
		{name: "cookie without domain", raw: `{"version": 1, "cookies": [{"key": "a", "path": "/"}]}`},
		{name: "relative path", raw: `{"version": 1, "cookies": [{"key": "a", "domain": "h", "path": "boca"}]}`},
		{name: "bad expiry", raw: `{"version": 1, "cookies": [{"key": "a", "domain": "h", "path": "/", "expires": "tomorrow"}]}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DeserializeJar(c.raw, nil)
			require.ErrorIs(t, err, ErrMalformedCookieData)
		})
	}
}
