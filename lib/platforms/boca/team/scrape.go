package team

import (
	"fmt"
	"regexp"
	"strings"

	"bocateam/lib/htmlutil"
	"bocateam/lib/platforms/boca/core"

	"github.com/PuerkitoBio/goquery"
)

// every listing page keeps its data in the third table, the first row being the header
const listingTable = 3

const noDescriptionFile = "no description file available"

var leadingTraversal = regexp.MustCompile(`^\.{2,}`)

// Links turns the relative urls BOCA emits into absolute ones.
type Links struct {
	Ip  string
	App string
}

// Asset resolves an absolute path like a balloon image source.
func (l Links) Asset(src string) string {
	return fmt.Sprintf("http://%s%s", l.Ip, src)
}

// Resource resolves a link relative to a team page like "../filedownload.php?...".
func (l Links) Resource(href string) string {
	path := leadingTraversal.ReplaceAllString(href, "")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://%s/%s%s", l.Ip, l.App, path)
}

func unexpected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrUnexpectedPageStructure, fmt.Sprintf(format, args...))
}

// listingRows returns the cells of every data row of the listing table.
func listingRows(doc *goquery.Document, page string, minCells int) ([]*goquery.Selection, error) {
	table := htmlutil.NthTable(doc, listingTable)
	if table.Length() == 0 {
		return nil, unexpected("%s has no listing table", page)
	}

	var rows []*goquery.Selection
	var err error
	htmlutil.TableRows(table).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		cells := htmlutil.Cells(tr)
		if cells.Length() < minCells {
			err = unexpected("%s row %d has %d cells, expected %d", page, i, cells.Length(), minCells)
			return false
		}
		rows = append(rows, cells)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func balloonImage(img *goquery.Selection, links Links) (Balloon, error) {
	if img.Length() == 0 {
		return Balloon{}, unexpected("missing balloon image")
	}
	src, ok := img.Attr("src")
	if !ok {
		return Balloon{}, unexpected("balloon image has no src")
	}
	alt, ok := img.Attr("alt")
	if !ok {
		return Balloon{}, unexpected("balloon image has no alt")
	}
	return Balloon{Url: links.Asset(src), ColorName: alt}, nil
}

// linkedFile reads the first anchor of td.
func linkedFile(td *goquery.Selection, links Links) (htmlutil.Anchor, File, error) {
	a := td.Find("a").First()
	if a.Length() == 0 {
		return htmlutil.Anchor{}, File{}, unexpected("missing file link")
	}
	anchors := htmlutil.GetAnchors(a)
	if len(anchors) == 0 {
		return htmlutil.Anchor{}, File{}, unexpected("file link has no href")
	}
	return anchors[0], File{Url: links.Resource(anchors[0].Href)}, nil
}

// ScrapeProblems reads team/problem.php.
func ScrapeProblems(doc *goquery.Document, links Links) ([]Problem, error) {
	rows, err := listingRows(doc, "problems page", 4)
	if err != nil {
		return nil, err
	}

	problems := make([]Problem, 0, len(rows))
	for _, tds := range rows {
		balloon, err := balloonImage(tds.Eq(0).Find("img").First(), links)
		if err != nil {
			return nil, err
		}

		problem := Problem{
			Name:     strings.TrimSpace(tds.Eq(0).Text()),
			Basename: strings.TrimSpace(tds.Eq(1).Text()),
			Fullname: strings.TrimSpace(tds.Eq(2).Text()),
			Balloon:  balloon,
		}
		if tds.Eq(3).Text() != noDescriptionFile {
			anchor, file, err := linkedFile(tds.Eq(3), links)
			if err != nil {
				return nil, err
			}
			file.Name = anchor.Text
			problem.DescriptionFile = &file
		}
		problems = append(problems, problem)
	}
	return problems, nil
}

// ScrapeRuns reads the runs table of team/run.php.
func ScrapeRuns(doc *goquery.Document, links Links) ([]Run, error) {
	rows, err := listingRows(doc, "runs page", 6)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(rows))
	for _, tds := range rows {
		// accepted answers carry a trailing space
		answer := Answer{Text: strings.TrimSpace(tds.Eq(4).Text())}
		if answer.Text == "YES" {
			balloon, err := balloonImage(tds.Eq(4).Find("img").First(), links)
			if err != nil {
				return nil, err
			}
			answer.Balloon = &balloon
		}

		anchor, source, err := linkedFile(tds.Eq(5), links)
		if err != nil {
			return nil, err
		}
		source.Name = anchor.Name

		runs = append(runs, Run{
			Id:         tds.Eq(0).Text(),
			Time:       tds.Eq(1).Text(),
			Problem:    tds.Eq(2).Text(),
			Language:   tds.Eq(3).Text(),
			Answer:     answer,
			SourceFile: source,
		})
	}
	return runs, nil
}

// ScrapeClarifications reads team/clar.php.
func ScrapeClarifications(doc *goquery.Document) ([]Clarification, error) {
	rows, err := listingRows(doc, "clarifications page", 4)
	if err != nil {
		return nil, err
	}

	clarifications := make([]Clarification, 0, len(rows))
	for i, tds := range rows {
		question := tds.Eq(2).Find("textarea").First()
		answer := tds.Eq(3).Find("textarea").First()
		if question.Length() == 0 || answer.Length() == 0 {
			return nil, unexpected("clarification %d is missing a textarea", i+1)
		}
		clarifications = append(clarifications, Clarification{
			Time:     tds.Eq(0).Text(),
			Problem:  tds.Eq(1).Text(),
			Question: question.Text(),
			Answer:   answer.Text(),
		})
	}
	return clarifications, nil
}

// scoreCell tells the cell shapes apart by their number of child elements: none for no
// judged run, a font for an unsolved problem, a balloon image and a font for a solved one.
func scoreCell(td *goquery.Selection, links Links) (*ScoreCell, error) {
	children := td.Children().Length()
	if children == 0 {
		return nil, nil
	}

	font := td.Find("font").First()
	if font.Length() == 0 {
		return nil, unexpected("score cell without a font element")
	}
	cell := &ScoreCell{Text: font.Text()}
	if children == 1 {
		return cell, nil
	}

	balloon, err := balloonImage(td.Find("img").First(), links)
	if err != nil {
		return nil, err
	}
	balloon.ColorName = strings.TrimSuffix(balloon.ColorName, ":")
	cell.Balloon = &balloon
	return cell, nil
}

// ScrapeScore reads team/score.php.
func ScrapeScore(doc *goquery.Document, links Links) ([]ScoreRow, error) {
	rows, err := listingRows(doc, "score page", 4)
	if err != nil {
		return nil, err
	}

	score := make([]ScoreRow, 0, len(rows))
	for _, tds := range rows {
		last := tds.Length() - 1

		problems := make([]*ScoreCell, 0, last-3)
		var cellErr error
		tds.Slice(3, last).EachWithBreak(func(_ int, td *goquery.Selection) bool {
			var cell *ScoreCell
			cell, cellErr = scoreCell(td, links)
			if cellErr != nil {
				return false
			}
			problems = append(problems, cell)
			return true
		})
		if cellErr != nil {
			return nil, cellErr
		}

		score = append(score, ScoreRow{
			Position: tds.Eq(0).Text(),
			UserSite: tds.Eq(1).Text(),
			Name:     tds.Eq(2).Text(),
			Problems: problems,
			Total:    tds.Eq(last).Text(),
		})
	}
	return score, nil
}

// the first option of the submission selects is a placeholder without a valid value
func scrapeOptions(doc *goquery.Document, name string) []Option {
	options := []Option{}
	doc.Find(fmt.Sprintf(`form select[name="%s"] option:not(:first-child)`, name)).
		Each(func(_ int, option *goquery.Selection) {
			id, _ := option.Attr("value")
			options = append(options, Option{Id: id, Name: option.Text()})
		})
	return options
}

// ScrapeLanguageOptions reads the languages a run can be submitted in from the run form.
func ScrapeLanguageOptions(doc *goquery.Document) []Option {
	return scrapeOptions(doc, "language")
}

// ScrapeProblemOptions reads the problem ids from a run or clarification form, problem
// numbers are not shown anywhere else.
func ScrapeProblemOptions(doc *goquery.Document) []Option {
	return scrapeOptions(doc, "problem")
}

// ScrapeRemainingTime reads the contest time left from the header of any team page.
func ScrapeRemainingTime(doc *goquery.Document) (string, error) {
	cell := doc.Find("table:first-of-type tr td:nth-of-type(3)").First()
	if cell.Length() == 0 {
		return "", unexpected("page header has no remaining time")
	}
	return htmlutil.CleanText(cell.Text()), nil
}

// ScrapeRunsPage reads everything the runs page shows.
func ScrapeRunsPage(doc *goquery.Document, links Links) (RunsPage, error) {
	remaining, err := ScrapeRemainingTime(doc)
	if err != nil {
		return RunsPage{}, err
	}
	runs, err := ScrapeRuns(doc, links)
	if err != nil {
		return RunsPage{}, err
	}
	return RunsPage{
		RemainingTime: remaining,
		Runs:          runs,
		Languages:     ScrapeLanguageOptions(doc),
		Problems:      ScrapeProblemOptions(doc),
	}, nil
}
