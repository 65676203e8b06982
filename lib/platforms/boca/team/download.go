package team

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"strings"

	"bocateam/lib/platforms/boca/core"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("bocateam/platforms/boca/team")

var downloadedBytes, _ = meter.Int64Counter(
	"boca.download.bytes",
	metric.WithDescription("bytes of files downloaded from the server"),
	metric.WithUnit("By"),
)

const forceDownload = "application/force-download"

// errHtmlResponse means the server answered a download with a page, which it only does
// when the session is not logged in.
var errHtmlResponse = errors.New("download answered with an html page")

// ErrForeignHost is returned for downloads from a host other than the logged in server,
// which must never receive the session cookies.
var ErrForeignHost = errors.New("url does not point at the logged in server")

// checkHost makes sure target is an http url on the server the credentials name.
func (c *Client) checkHost(ctx context.Context, target string) error {
	creds, err := c.session.Credentials(ctx)
	if err != nil {
		return err
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("download %s: %w", target, err)
	}
	if parsed.Scheme != "http" || !strings.EqualFold(parsed.Host, creds.Ip) {
		return fmt.Errorf("%w: %s (server is %s)", ErrForeignHost, target, creds.Ip)
	}
	return nil
}

// Download saves the file at target (as scraped, e.g. a description file or a run's source)
// to dest. When the server answers with a page instead of the file the session expired
// in between, it is logged in again and the download retried up to the configured
// number of times.
func (c *Client) Download(ctx context.Context, target, dest string) error {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(attribute.String("boca.download.dest", dest))

	err := c.checkHost(ctx, target)
	if err != nil {
		failed(span, err)
		return err
	}

	retries := c.session.Options().DownloadRetries
	for attempt := 0; ; attempt++ {
		err := c.downloadOnce(ctx, target, dest)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errHtmlResponse) {
			failed(span, err)
			return err
		}
		if attempt >= retries {
			err = fmt.Errorf("%w: %s", core.ErrDownloadAuthRetryExhausted, target)
			failed(span, err)
			return err
		}

		slog.InfoContext(ctx, "download was not authenticated, logging in again", "attempt", attempt+1)
		_, err = c.session.FetchAuthenticated(ctx, core.AuthenticatedPath)
		if err != nil {
			failed(span, err)
			return err
		}
	}
}

func (c *Client) downloadOnce(ctx context.Context, target, dest string) error {
	cookies, err := c.session.CookieString(ctx, false)
	if err != nil {
		return err
	}

	res, err := c.session.HttpClient(nil).R().
		SetContext(ctx).
		SetHeader("Cookie", cookies).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return err
	}
	body := res.RawBody()
	defer body.Close()

	contentType := res.Header().Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("download %s: invalid content type %q: %w", target, contentType, err)
	}
	if mediaType == "text/html" {
		// drain so the connection can be reused
		_, err = io.Copy(io.Discard, body)
		if err != nil {
			slog.DebugContext(ctx, "failed to drain html response", "err", err)
		}
		return errHtmlResponse
	}
	if mediaType != forceDownload {
		slog.WarnContext(ctx, "download has an unexpected content type, saving anyway", "content_type", contentType)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		removeErr := os.Remove(dest)
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			slog.WarnContext(ctx, "partial download left on disk", "dest", dest, "err", removeErr)
		}
		return fmt.Errorf("download %s: %w", target, err)
	}

	downloadedBytes.Add(ctx, written)
	slog.InfoContext(ctx, "file downloaded", "dest", dest, "size", humanize.Bytes(uint64(written)))
	return nil
}
