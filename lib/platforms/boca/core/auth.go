package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"bocateam/lib/secretstore"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State names the steps the session goes through while resolving a request.
type State int

const (
	StateNoCredentials State = iota
	StateNoStoredSession
	StateSessionPresentUnverified
	StateAuthenticated
	StateSessionInvalid
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateNoCredentials:
		return "no-credentials"
	case StateNoStoredSession:
		return "no-stored-session"
	case StateSessionPresentUnverified:
		return "session-present-unverified"
	case StateAuthenticated:
		return "authenticated"
	case StateSessionInvalid:
		return "session-invalid"
	case StateLoggingOut:
		return "logging-out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s *Session) transition(ctx context.Context, state State) {
	slog.DebugContext(ctx, "session state", "state", state.String())
}

// HashPassword computes the password BOCA expects on login: the sha256 hex digest of the
// sha256 hex digest of the password concatenated with the session token.
func HashPassword(password, sessionToken string) string {
	inner := sha256.Sum256([]byte(password))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + sessionToken))
	return hex.EncodeToString(outer[:])
}

// handshake logs jar's session in. false without an error means the server refused the
// login or the jar carries no session token.
func (s *Session) handshake(ctx context.Context, creds Credentials, jar *Jar) (bool, error) {
	ctx, span := tracer.Start(ctx, "handshake")
	defer span.End()

	token, ok := jar.Get(SessionTokenCookie)
	if !ok || token.Value == "" {
		span.SetStatus(codes.Error, "missing session token")
		slog.WarnContext(ctx, "cookie jar has no session token", "cookie", SessionTokenCookie)
		return false, nil
	}

	res, err := s.HttpClient(jar).R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     creds.Username,
			"password": HashPassword(creds.Password, token.Value),
		}).
		Get(s.Url(creds.Ip, LoginPath))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request login")
		return false, err
	}

	success := s.opts.Detector.IsLoginSuccessful(res.String())
	span.SetAttributes(attribute.Bool("boca.login.success", success))
	return success, nil
}

// FetchAuthenticated fetches path (relative to the application root) with a logged in
// session. A stored session is reused when still valid, logged in again with its own
// session token when expired, and replaced by a brand-new session when that fails.
func (s *Session) FetchAuthenticated(ctx context.Context, path string) (Page, error) {
	ctx, span := tracer.Start(ctx, "FetchAuthenticated")
	defer span.End()
	span.SetAttributes(attribute.String("boca.path", path))

	if IsLogoutPath(path) {
		return Page{}, ErrReservedPath
	}
	page, err := s.navigate(ctx, path, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch authenticated page")
		return Page{}, err
	}
	return page, nil
}

// LogOut visits the index page, which BOCA treats as a logout, and forgets the stored
// credentials and cookie jar. Local state is cleared even when the request fails and
// logging out twice is fine.
func (s *Session) LogOut(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "LogOut")
	defer span.End()

	_, err := s.navigate(ctx, LoginPath, true)
	if err != nil && !errors.Is(err, ErrNotLoggedIn) {
		span.RecordError(err)
		slog.WarnContext(ctx, "could not confirm logout with the server", "err", err)
	}
	return s.clear(ctx)
}

func (s *Session) navigate(ctx context.Context, path string, logout bool) (Page, error) {
	var creds Credentials
	var err error
	if logout {
		creds, err = s.Credentials(ctx)
	} else {
		creds, err = s.activeCredentials(ctx)
	}
	if errors.Is(err, ErrNotLoggedIn) {
		s.transition(ctx, StateNoCredentials)
		// no jar may outlive its credentials
		delErr := s.store.Delete(ctx, secretstore.KeyCookieJar)
		if delErr != nil {
			return Page{}, delErr
		}
		return Page{}, err
	}
	if err != nil {
		return Page{}, err
	}

	target := s.Url(creds.Ip, path)

	jar, err := s.storedJar(ctx)
	if err != nil {
		return Page{}, err
	}
	if jar != nil {
		s.transition(ctx, StateSessionPresentUnverified)

		page, err := s.get(ctx, target, jar)
		if err != nil {
			return Page{}, err
		}
		authenticated := s.opts.Detector.IsAuthenticated(page.Html)

		if logout {
			s.transition(ctx, StateLoggingOut)
			slog.InfoContext(ctx, "logged out", "user", creds.String(), "was_authenticated", authenticated)
			return page, s.clear(ctx)
		}

		if authenticated {
			s.transition(ctx, StateAuthenticated)
			return page, nil
		}

		s.transition(ctx, StateSessionInvalid)
		ok, err := s.handshake(ctx, creds, jar)
		if err != nil {
			return Page{}, err
		}
		if ok {
			reloginCounter.Add(ctx, 1)
			slog.InfoContext(ctx, "logged in again using stored cookie jar", "user", creds.String())
			err = s.saveJar(ctx, jar)
			if err != nil {
				return Page{}, err
			}
			s.transition(ctx, StateAuthenticated)
			return s.get(ctx, target, jar)
		}

		// only known cause: the session token cookie is missing or corrupted
		slog.WarnContext(ctx, "stored cookie jar could not log in, starting a new session")
		err = s.store.Delete(ctx, secretstore.KeyCookieJar)
		if err != nil {
			return Page{}, err
		}
	}

	if logout {
		s.transition(ctx, StateLoggingOut)
		slog.InfoContext(ctx, "no stored session, nothing to log out of on the server")
		return Page{}, s.clear(ctx)
	}

	s.transition(ctx, StateNoStoredSession)

	jar = NewJar(s.opts.Clock)
	// the index page unconditionally issues the PHPSESSID and biscoitobocabombonera cookies
	_, err = s.get(ctx, s.Url(creds.Ip, LoginPath), jar)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	ok, err := s.handshake(ctx, creds, jar)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if !ok {
		return Page{}, ErrLoginFailed
	}

	err = s.saveJar(ctx, jar)
	if err != nil {
		return Page{}, err
	}
	slog.InfoContext(ctx, "logged in with a new cookie jar", "user", creds.String())
	s.transition(ctx, StateAuthenticated)

	return s.get(ctx, target, jar)
}

// CookieString returns the Cookie header for requests to the BOCA server, logging in
// first when no cookie jar is stored. With verify the session is also checked (and
// refreshed) with a request to an authenticated page.
func (s *Session) CookieString(ctx context.Context, verify bool) (string, error) {
	creds, err := s.activeCredentials(ctx)
	if err != nil {
		return "", err
	}

	jar, err := s.storedJar(ctx)
	if err != nil {
		return "", err
	}
	if jar == nil || verify {
		_, err = s.FetchAuthenticated(ctx, AuthenticatedPath)
		if err != nil {
			return "", err
		}
		jar, err = s.storedJar(ctx)
		if err != nil {
			return "", err
		}
		if jar == nil {
			return "", fmt.Errorf("%w: no cookie jar stored after logging in", ErrLoginFailed)
		}
	}

	origin, err := url.Parse(s.Url(creds.Ip, ""))
	if err != nil {
		return "", err
	}
	return jar.CookieString(origin), nil
}
