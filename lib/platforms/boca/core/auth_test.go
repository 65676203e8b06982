package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bocateam/internal/chrono"
	"bocateam/lib/platforms/boca/bocatest"
	"bocateam/lib/secretstore"
	"bocateam/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const problemsPage = `<html><body><table><tr><td>problems</td></tr></table></body></html>`

type fixture struct {
	server  *bocatest.Server
	store   *secretstore.Memory
	clock   *chrono.FixedImpl
	session *Session
	creds   Credentials
}

func newFixture(t testing.TB, opts Options) fixture {
	cleanup := telemetry.SetupForTesting(t, "test:boca/core")
	t.Cleanup(cleanup)

	server := bocatest.NewServer("team1", "secret")
	t.Cleanup(server.Close)
	server.SetPage("team/problem.php", problemsPage)

	clock := testClock()
	opts.Clock = clock
	store := secretstore.NewMemory()

	return fixture{
		server:  server,
		store:   store,
		clock:   clock,
		session: NewSession(store, opts),
		creds: Credentials{
			Ip:       server.Ip(),
			Username: "team1",
			Password: "secret",
		},
	}
}

func (f fixture) storeCredentials(t testing.TB) {
	err := f.session.storeCredentials(context.Background(), f.creds)
	require.NoError(t, err)
}

func (f fixture) stored(t testing.TB, key string) (string, bool) {
	value, ok, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	return value, ok
}

func TestHashPassword(t *testing.T) {
	require.Equal(
		t,
		"ce8a071accdf06e37c182788378955ee820dca7a19805a00026d771ed593ac73",
		HashPassword("secret", "sess0001"),
	)
}

func TestUrl(t *testing.T) {
	session := NewSession(secretstore.NewMemory(), Options{})
	require.Equal(t, "http://10.0.0.5/boca/team/run.php", session.Url("10.0.0.5", "team/run.php"))
	require.Equal(t, "http://10.0.0.5/boca/team/run.php", session.Url("10.0.0.5", "/team/run.php"))

	session = NewSession(secretstore.NewMemory(), Options{App: "contest"})
	require.Equal(t, "http://10.0.0.5/contest/index.php", session.Url("10.0.0.5", LoginPath))
}

func TestFetchAuthenticatedFreshLogin(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	page, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, problemsPage, page.Html)
	require.Equal(t, "problems", page.Doc.Find("td").Text())
	require.Equal(t, 1, f.server.LoginAttempts)

	raw, ok := f.stored(t, secretstore.KeyCookieJar)
	require.True(t, ok)
	jar, err := DeserializeJar(raw, nil)
	require.NoError(t, err)
	token, ok := jar.Get(SessionTokenCookie)
	require.True(t, ok)
	require.Equal(t, "sess0001", token.Value)
	_, ok = jar.Get("biscoitobocabombonera")
	require.True(t, ok)

	// a valid stored session is reused without logging in
	_, err = f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, 1, f.server.LoginAttempts)
	require.Equal(t, 1, f.server.Sessions())
}

func TestSilentRelogin(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)

	f.server.ExpireSessions()

	page, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, problemsPage, page.Html)
	require.Equal(t, 2, f.server.LoginAttempts, "expired session logs in exactly once more")
	require.Equal(t, 0, f.server.FailedLogins)
	require.Equal(t, 1, f.server.Sessions(), "the stored session token is reused")
}

func TestReloginWithUnknownTokenStartsNewSession(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	jar := NewJar(f.clock)
	jar.SetCookies(mustParse(t, f.session.Url(f.creds.Ip, LoginPath)), []*http.Cookie{
		{Name: SessionTokenCookie, Value: "forged", Path: "/"},
	})
	require.NoError(t, f.session.saveJar(ctx, jar))

	page, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, problemsPage, page.Html)
	require.Equal(t, 2, f.server.LoginAttempts)
	require.Equal(t, 1, f.server.FailedLogins)

	raw, _ := f.stored(t, secretstore.KeyCookieJar)
	restored, err := DeserializeJar(raw, nil)
	require.NoError(t, err)
	token, _ := restored.Get(SessionTokenCookie)
	require.NotEqual(t, "forged", token.Value)
}

func TestMalformedStoredJarIsReplaced(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, secretstore.KeyCookieJar, "PHPSESSID=abc"))

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, 1, f.server.LoginAttempts)

	raw, _ := f.stored(t, secretstore.KeyCookieJar)
	_, err = DeserializeJar(raw, nil)
	require.NoError(t, err)
}

func TestFetchAuthenticatedWrongPassword(t *testing.T) {
	f := newFixture(t, Options{})
	f.creds.Password = "wrong"
	f.storeCredentials(t)

	_, err := f.session.FetchAuthenticated(context.Background(), "team/problem.php")
	require.ErrorIs(t, err, ErrLoginFailed)
	require.Equal(t, 1, f.server.LoginAttempts)

	_, ok := f.stored(t, secretstore.KeyCookieJar)
	require.False(t, ok, "a jar that failed to log in is not kept")
}

func TestFetchAuthenticatedWithoutCredentials(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.saveJar(ctx, NewJar(nil)))

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	require.Equal(t, 0, f.server.LoginAttempts)
	require.Empty(t, f.store.Keys(), "no jar outlives its credentials")
}

func TestFetchAuthenticatedReservedPath(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)

	for _, path := range []string{"index.php", "/index.php", ""} {
		_, err := f.session.FetchAuthenticated(context.Background(), path)
		require.ErrorIs(t, err, ErrReservedPath, path)
	}
	require.Equal(t, 0, f.server.LoginAttempts)
}

func TestExpiredCredentials(t *testing.T) {
	f := newFixture(t, Options{})
	f.creds.ExpiresAt = f.clock.Time.Add(time.Hour)
	f.storeCredentials(t)
	ctx := context.Background()

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	_, err = f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.ErrorIs(t, err, ErrCredentialsExpired)
	require.Empty(t, f.store.Keys())

	_, err = f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogOut(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)

	require.NoError(t, f.session.LogOut(ctx))
	require.Equal(t, 1, f.server.Logouts)
	require.Empty(t, f.store.Keys())

	require.NoError(t, f.session.LogOut(ctx))
	require.Equal(t, 1, f.server.Logouts)

	_, err = f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogOutUnreachableServer(t *testing.T) {
	f := newFixture(t, Options{})
	f.storeCredentials(t)
	ctx := context.Background()

	_, err := f.session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)

	f.server.Close()

	require.NoError(t, f.session.LogOut(ctx))
	require.Empty(t, f.store.Keys())
}

func TestCookieString(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.session.CookieString(ctx, false)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	f.storeCredentials(t)

	cookies, err := f.session.CookieString(ctx, false)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(cookies, "PHPSESSID=sess0001; biscoitobocabombonera="), cookies)
	require.Equal(t, 1, f.server.LoginAttempts)

	f.server.ExpireSessions()

	_, err = f.session.CookieString(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, f.server.LoginAttempts, "unverified cookies do not touch the server")

	verified, err := f.session.CookieString(ctx, true)
	require.NoError(t, err)
	require.Equal(t, cookies, verified)
	require.Equal(t, 2, f.server.LoginAttempts)
}

func TestValidateAndStore(t *testing.T) {
	f := newFixture(t, Options{CredentialLifetime: 24 * time.Hour})
	ctx := context.Background()

	err := f.session.ValidateAndStore(ctx, Credentials{
		Ip:       " " + f.creds.Ip + " ",
		Username: f.creds.Username,
		Password: f.creds.Password,
	})
	require.NoError(t, err)

	stored, err := f.session.Credentials(ctx)
	require.NoError(t, err)
	require.Equal(t, f.creds.Ip, stored.Ip)
	require.Equal(t, f.clock.Time.Add(24*time.Hour), stored.ExpiresAt)

	_, ok := f.stored(t, secretstore.KeyCookieJar)
	require.True(t, ok)

	// logging in again first logs the previous session out
	require.NoError(t, f.session.ValidateAndStore(ctx, f.creds))
	require.Equal(t, 1, f.server.Logouts)
	require.Equal(t, 2, f.server.LoginAttempts)
}

func TestValidateAndStoreErrors(t *testing.T) {
	notBoca := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Apache2 Ubuntu Default Page: It works</title></head></html>`))
	}))
	defer notBoca.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadIp := mustParse(t, dead.URL).Host
	dead.Close()

	f := newFixture(t, Options{ProbeTimeout: time.Second})
	ctx := context.Background()

	cases := []struct {
		name  string
		creds Credentials
		err   error
	}{
		{
			name:  "missing password",
			creds: Credentials{Ip: f.creds.Ip, Username: "team1"},
			err:   ErrInvalidFormat,
		},
		{
			name:  "blank ip",
			creds: Credentials{Ip: "  ", Username: "team1", Password: "secret"},
			err:   ErrInvalidFormat,
		},
		{
			name:  "unreachable",
			creds: Credentials{Ip: deadIp, Username: "team1", Password: "secret"},
			err:   ErrHostUnreachable,
		},
		{
			name:  "not boca",
			creds: Credentials{Ip: mustParse(t, notBoca.URL).Host, Username: "team1", Password: "secret"},
			err:   ErrNotTargetServer,
		},
		{
			name:  "wrong password",
			creds: Credentials{Ip: f.creds.Ip, Username: "team1", Password: "wrong"},
			err:   ErrInvalidCredentials,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := f.session.ValidateAndStore(ctx, c.creds)
			require.ErrorIs(t, err, c.err)
			require.Empty(t, f.store.Keys())
		})
	}

	require.Equal(t, "Invalid credentials.", UserMessage(f.session.ValidateAndStore(ctx, Credentials{
		Ip: f.creds.Ip, Username: "team2", Password: "secret",
	})))
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "", UserMessage(nil))
	require.Equal(t, "All fields are required.", UserMessage(ErrInvalidFormat))
	require.Equal(t, "IP is unreachable.", UserMessage(ErrHostUnreachable))
	require.Equal(t, "Something went wrong while talking to the BOCA server.", UserMessage(ErrLoginFailed))
}

func TestUserFacing(t *testing.T) {
	message, ok := UserFacing(fmt.Errorf("%w: wrong password", ErrInvalidCredentials))
	require.True(t, ok)
	require.Equal(t, "Invalid credentials.", message)

	_, ok = UserFacing(ErrUnexpectedPageStructure)
	require.False(t, ok)
}
