package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bocateam/internal/assert"
	"bocateam/internal/chrono"
	"bocateam/lib/restyutil"
	"bocateam/lib/secretstore"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("bocateam/platforms/boca/core")
var meter = otel.Meter("bocateam/platforms/boca/core")

var reloginCounter, _ = meter.Int64Counter(
	"boca.session.relogin",
	metric.WithDescription("silent re-logins with a stored cookie jar"),
)

const (
	// LoginPath is the index page, it is the login form and visiting it with an
	// authenticated session logs out.
	LoginPath = "index.php"
	// AuthenticatedPath is a cheap page that requires a logged in team.
	AuthenticatedPath = "team/index.php"
	// SessionTokenCookie is the cookie whose value salts the password hash.
	SessionTokenCookie = "PHPSESSID"
)

// IsLogoutPath reports whether visiting path (relative to the application) logs out.
func IsLogoutPath(path string) bool {
	path = strings.TrimPrefix(path, "/")
	return path == "" || path == LoginPath
}

type Options struct {
	// App is the path BOCA is served under, defaults to "boca".
	App string
	// ProbeTimeout bounds the reachability probe made while validating credentials,
	// defaults to 5 seconds.
	ProbeTimeout time.Duration
	// DownloadRetries is how many times a download is retried after logging in
	// again, defaults to 1. Use a negative value to disable retries.
	DownloadRetries int
	// CredentialLifetime is applied to credentials stored without an expiry, zero
	// keeps them until logout.
	CredentialLifetime time.Duration
	// RequestsPerSecond limits every request made by the session, zero is unlimited.
	RequestsPerSecond float64
	UserAgent         string

	Detector  Detector
	Clock     chrono.API
	Transport http.RoundTripper
	// DumpOutput receives full http exchanges when set.
	DumpOutput restyutil.InstrumentOutput
}

func (o Options) withDefaults() Options {
	if o.App == "" {
		o.App = "boca"
	}
	if o.ProbeTimeout == 0 {
		o.ProbeTimeout = 5 * time.Second
	}
	if o.DownloadRetries == 0 {
		o.DownloadRetries = 1
	}
	if o.DownloadRetries < 0 {
		o.DownloadRetries = 0
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	if o.Detector == nil {
		o.Detector = DefaultDetector
	}
	if o.Clock == nil {
		o.Clock = chrono.StandardImpl{}
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	return o
}

// Session is the single owner of session state: the stored credentials and cookie jar.
// Every component reads the latest values through it instead of caching them, login and
// logout can happen between any two operations.
//
// Session does not serialize its callers, at most one authentication affecting operation
// should be in flight at a time. Two concurrent silent re-logins both write the jar.
type Session struct {
	store   secretstore.Store
	opts    Options
	limiter *rate.Limiter
}

func NewSession(store secretstore.Store, opts Options) *Session {
	assert.NotNil(store, "store")
	assert.NonNegative(opts.RequestsPerSecond, "opts.RequestsPerSecond")
	assert.NonNegative(opts.ProbeTimeout, "opts.ProbeTimeout")

	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Session{
		store:   store,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *Session) Options() Options {
	return s.opts
}

func (s *Session) Now() time.Time {
	return s.opts.Clock.Now()
}

// Url returns the absolute url of path on the BOCA server at ip.
func (s *Session) Url(ip, path string) string {
	return fmt.Sprintf("http://%s/%s/%s", ip, s.opts.App, strings.TrimPrefix(path, "/"))
}

// HttpClient returns a client that sends the cookies of jar, jar may be nil for
// requests that set the Cookie header themselves.
func (s *Session) HttpClient(jar http.CookieJar) *resty.Client {
	client := resty.NewWithClient(&http.Client{
		Jar:       jar,
		Transport: s.opts.Transport,
	})
	client.SetHeader("user-agent", s.opts.UserAgent)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return s.limiter.Wait(req.Context())
	})
	restyutil.InstrumentClient(client, tracer, s.opts.DumpOutput)
	return client
}

func (s *Session) get(ctx context.Context, url string, jar *Jar) (Page, error) {
	res, err := s.HttpClient(jar).R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Page{}, err
	}
	return ParsePage(url, res.Body())
}

// Credentials returns the stored credentials or ErrNotLoggedIn.
func (s *Session) Credentials(ctx context.Context) (Credentials, error) {
	raw, ok, err := s.store.Get(ctx, secretstore.KeyCredentials)
	if err != nil {
		return Credentials{}, err
	}
	if !ok {
		return Credentials{}, ErrNotLoggedIn
	}
	creds, err := unmarshalCredentials(raw)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable stored credentials", "err", err)
		err = s.clear(ctx)
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{}, ErrNotLoggedIn
	}
	return creds, nil
}

// activeCredentials is Credentials, but expired credentials log the session out.
func (s *Session) activeCredentials(ctx context.Context) (Credentials, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if creds.Expired(s.Now()) {
		slog.InfoContext(ctx, "stored credentials expired", "expires_at", creds.ExpiresAt)
		err = s.clear(ctx)
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{}, ErrCredentialsExpired
	}
	return creds, nil
}

func (s *Session) storeCredentials(ctx context.Context, creds Credentials) error {
	raw, err := marshalCredentials(creds)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, secretstore.KeyCredentials, raw)
}

// storedJar returns nil when no usable jar is stored, a malformed jar is deleted.
func (s *Session) storedJar(ctx context.Context) (*Jar, error) {
	raw, ok, err := s.store.Get(ctx, secretstore.KeyCookieJar)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	jar, err := DeserializeJar(raw, s.opts.Clock)
	if errors.Is(err, ErrMalformedCookieData) {
		slog.WarnContext(ctx, "discarding malformed stored cookie jar", "err", err)
		return nil, s.store.Delete(ctx, secretstore.KeyCookieJar)
	}
	if err != nil {
		return nil, err
	}
	return jar, nil
}

func (s *Session) saveJar(ctx context.Context, jar *Jar) error {
	raw, err := SerializeJar(jar)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, secretstore.KeyCookieJar, raw)
}

// clear forgets both credentials and cookie jar.
func (s *Session) clear(ctx context.Context) error {
	return errors.Join(
		s.store.Delete(ctx, secretstore.KeyCredentials),
		s.store.Delete(ctx, secretstore.KeyCookieJar),
	)
}
