package team

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
)

// Field is a form field, File is the path of a file to upload instead of a value.
type Field struct {
	Name  string
	Value string
	File  string
}

// ContentType guesses the content type of an uploaded file from its extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "application/octet-stream"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func multipartFields(fields []Field) ([]*resty.MultipartField, error) {
	// the confirmation field skips the form's "are you sure" prompt
	out := []*resty.MultipartField{{Param: "confirmation", Reader: strings.NewReader("confirm")}}
	for _, f := range fields {
		if f.File == "" {
			out = append(out, &resty.MultipartField{Param: f.Name, Reader: strings.NewReader(f.Value)})
			continue
		}
		contents, err := os.ReadFile(f.File)
		if err != nil {
			return nil, err
		}
		out = append(out, &resty.MultipartField{
			Param:       f.Name,
			FileName:    filepath.Base(f.File),
			ContentType: ContentType(f.File),
			Reader:      bytes.NewReader(contents),
		})
	}
	return append(out, &resty.MultipartField{Param: "Submit", Reader: strings.NewReader("Send")}), nil
}

// Submit posts a multipart form to formPath (relative to the application) and returns
// the response body. The session is verified, logging in again if needed, before the
// request is built. Transport errors are returned as they are, submissions are never
// retried.
func (c *Client) Submit(ctx context.Context, formPath string, fields []Field) (string, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(attribute.String("boca.path", formPath))

	cookies, err := c.session.CookieString(ctx, true)
	if err != nil {
		failed(span, err)
		return "", err
	}
	creds, err := c.session.Credentials(ctx)
	if err != nil {
		failed(span, err)
		return "", err
	}

	parts, err := multipartFields(fields)
	if err != nil {
		failed(span, err)
		return "", err
	}

	res, err := c.session.HttpClient(nil).R().
		SetContext(ctx).
		SetHeader("Cookie", cookies).
		SetMultipartFields(parts...).
		Post(c.session.Url(creds.Ip, formPath))
	if err != nil {
		failed(span, err)
		return "", err
	}
	return res.String(), nil
}

// SubmitRun uploads the source file at filePath as a run for problemId in languageId,
// both ids come from the options of the run form.
func (c *Client) SubmitRun(ctx context.Context, problemId, languageId, filePath string) error {
	_, err := c.Submit(ctx, RunsPath, []Field{
		{Name: "problem", Value: problemId},
		{Name: "language", Value: languageId},
		{Name: "sourcefile", File: filePath},
	})
	if err != nil {
		return fmt.Errorf("submit run: %w", err)
	}
	slog.InfoContext(ctx, "run submitted", "problem", problemId, "language", languageId, "file", filepath.Base(filePath))
	return nil
}

func (c *Client) SubmitClarification(ctx context.Context, problemId, question string) error {
	_, err := c.Submit(ctx, ClarificationsPath, []Field{
		{Name: "problem", Value: problemId},
		{Name: "message", Value: question},
	})
	if err != nil {
		return fmt.Errorf("submit clarification: %w", err)
	}
	slog.InfoContext(ctx, "clarification submitted", "problem", problemId)
	return nil
}
