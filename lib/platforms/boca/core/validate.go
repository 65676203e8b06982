package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bocateam/lib/htmlutil"

	"go.opentelemetry.io/otel/codes"
)

// ValidateAndStore is the login entry point: it checks the credentials point at a
// reachable BOCA server and authenticate there, then keeps them. Credentials that
// cannot authenticate are never left stored.
func (s *Session) ValidateAndStore(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "ValidateAndStore")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	slog.InfoContext(ctx, "checking if credentials are valid", "user", creds.String())

	// stale credentials or jars must not interfere with the new ones
	err := s.LogOut(ctx)
	if err != nil {
		return fail(err)
	}

	if !creds.Complete() {
		return fail(ErrInvalidFormat)
	}
	creds.Ip = strings.TrimSpace(creds.Ip)
	if creds.ExpiresAt.IsZero() && s.opts.CredentialLifetime > 0 {
		creds.ExpiresAt = s.Now().Add(s.opts.CredentialLifetime)
	}

	err = s.probe(ctx, creds.Ip)
	if err != nil {
		return fail(err)
	}

	err = s.storeCredentials(ctx, creds)
	if err != nil {
		return fail(err)
	}

	_, err = s.FetchAuthenticated(ctx, AuthenticatedPath)
	if err != nil {
		rollbackErr := s.clear(ctx)
		return fail(errors.Join(
			fmt.Errorf("%w: %w", ErrInvalidCredentials, err),
			rollbackErr,
		))
	}

	slog.InfoContext(ctx, "credentials saved", "user", creds.String(), "expires_at", creds.ExpiresAt)
	return nil
}

// probe checks, with a bounded timeout, that ip answers with BOCA's login page.
func (s *Session) probe(ctx context.Context, ip string) error {
	target := s.Url(ip, LoginPath)

	res, err := s.HttpClient(nil).
		SetTimeout(s.opts.ProbeTimeout).
		R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHostUnreachable, err)
	}

	page, err := ParsePage(target, res.Body())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotTargetServer, err)
	}
	title := htmlutil.Title(page.Doc)
	if !s.opts.Detector.IsLoginPage(title) {
		slog.InfoContext(ctx, "host did not answer with a BOCA login page", "ip", ip, "title", title)
		return ErrNotTargetServer
	}
	return nil
}
