package team

import (
	"context"

	"bocateam/internal/assert"
	"bocateam/lib/platforms/boca/core"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bocateam/platforms/boca/team")

const (
	ProblemsPath       = "team/problem.php"
	RunsPath           = "team/run.php"
	ClarificationsPath = "team/clar.php"
	ScorePath          = "team/score.php"
)

// Client is what a user interface talks to, every call goes through the session so it
// is always made with an authenticated cookie jar.
type Client struct {
	session *core.Session
}

func NewClient(session *core.Session) *Client {
	assert.NotNil(session, "session")
	return &Client{session: session}
}

func (c *Client) Session() *core.Session {
	return c.session
}

func (c *Client) ValidateAndStore(ctx context.Context, creds core.Credentials) error {
	return c.session.ValidateAndStore(ctx, creds)
}

func (c *Client) LogOut(ctx context.Context) error {
	return c.session.LogOut(ctx)
}

// fetch returns the page at path together with the link resolver of the server it came
// from.
func (c *Client) fetch(ctx context.Context, path string) (*goquery.Document, Links, error) {
	page, err := c.session.FetchAuthenticated(ctx, path)
	if err != nil {
		return nil, Links{}, err
	}
	links, err := c.links(ctx)
	if err != nil {
		return nil, Links{}, err
	}
	return page.Doc, links, nil
}

func (c *Client) links(ctx context.Context) (Links, error) {
	creds, err := c.session.Credentials(ctx)
	if err != nil {
		return Links{}, err
	}
	return Links{Ip: creds.Ip, App: c.session.Options().App}, nil
}

func failed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (c *Client) GetProblems(ctx context.Context) ([]Problem, error) {
	ctx, span := tracer.Start(ctx, "GetProblems")
	defer span.End()

	doc, links, err := c.fetch(ctx, ProblemsPath)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	problems, err := ScrapeProblems(doc, links)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("boca.problems", len(problems)))
	return problems, nil
}

// GetRunsPage fetches the runs page once and returns everything on it.
func (c *Client) GetRunsPage(ctx context.Context) (RunsPage, error) {
	ctx, span := tracer.Start(ctx, "GetRunsPage")
	defer span.End()

	doc, links, err := c.fetch(ctx, RunsPath)
	if err != nil {
		failed(span, err)
		return RunsPage{}, err
	}
	page, err := ScrapeRunsPage(doc, links)
	if err != nil {
		failed(span, err)
		return RunsPage{}, err
	}
	span.SetAttributes(attribute.Int("boca.runs", len(page.Runs)))
	return page, nil
}

func (c *Client) GetRuns(ctx context.Context) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "GetRuns")
	defer span.End()

	doc, links, err := c.fetch(ctx, RunsPath)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	runs, err := ScrapeRuns(doc, links)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	return runs, nil
}

func (c *Client) GetClarifications(ctx context.Context) ([]Clarification, error) {
	ctx, span := tracer.Start(ctx, "GetClarifications")
	defer span.End()

	doc, _, err := c.fetch(ctx, ClarificationsPath)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	clarifications, err := ScrapeClarifications(doc)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	return clarifications, nil
}

func (c *Client) GetScore(ctx context.Context) ([]ScoreRow, error) {
	ctx, span := tracer.Start(ctx, "GetScore")
	defer span.End()

	doc, links, err := c.fetch(ctx, ScorePath)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	score, err := ScrapeScore(doc, links)
	if err != nil {
		failed(span, err)
		return nil, err
	}
	return score, nil
}

func (c *Client) GetAllowedProgrammingLanguages(ctx context.Context) ([]Option, error) {
	doc, _, err := c.fetch(ctx, RunsPath)
	if err != nil {
		return nil, err
	}
	return ScrapeLanguageOptions(doc), nil
}

func (c *Client) GetProblemIds(ctx context.Context) ([]Option, error) {
	doc, _, err := c.fetch(ctx, RunsPath)
	if err != nil {
		return nil, err
	}
	return ScrapeProblemOptions(doc), nil
}

func (c *Client) GetContestRemainingTime(ctx context.Context) (string, error) {
	doc, _, err := c.fetch(ctx, RunsPath)
	if err != nil {
		return "", err
	}
	return ScrapeRemainingTime(doc)
}
