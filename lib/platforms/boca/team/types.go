package team

import (
	"bytes"
	"encoding/json"
)

// Balloon is the coloured icon BOCA shows for a problem. ColorName is empty when the
// contest admin configured no colour, the image is then transparent.
type Balloon struct {
	Url       string `json:"url"`
	ColorName string `json:"colorName"`
}

type File struct {
	Name string `json:"name"`
	Url  string `json:"url"`
}

type Problem struct {
	Name     string  `json:"name"`
	Basename string  `json:"basename"`
	Fullname string  `json:"fullname"`
	Balloon  Balloon `json:"balloon"`
	// DescriptionFile is nil when the problem has no statement attached.
	DescriptionFile *File `json:"descriptionFile"`
}

type Answer struct {
	Text string `json:"text"`
	// Balloon is only set for accepted runs.
	Balloon *Balloon `json:"balloon"`
}

type Run struct {
	Id         string `json:"id"`
	Time       string `json:"time"`
	Problem    string `json:"problem"`
	Language   string `json:"language"`
	Answer     Answer `json:"answer"`
	SourceFile File   `json:"sourceFile"`
}

type Clarification struct {
	Time     string `json:"time"`
	Problem  string `json:"problem"`
	Question string `json:"question"`
	// Answer holds the server's placeholder text until the clarification is answered.
	Answer string `json:"answer"`
}

// ScoreCell is a team's result on one problem. A nil cell means no judged run, a cell
// without a balloon means judged but unsolved.
type ScoreCell struct {
	Text    string
	Balloon *Balloon
}

func (c ScoreCell) Solved() bool {
	return c.Balloon != nil
}

type solvedCell struct {
	Text    string   `json:"text"`
	Balloon *Balloon `json:"balloon"`
}

// MarshalJSON encodes an unsolved cell as a bare string and a solved one as
// {text, balloon}.
func (c ScoreCell) MarshalJSON() ([]byte, error) {
	if c.Balloon == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(solvedCell(c))
}

func (c *ScoreCell) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		*c = ScoreCell{}
		return json.Unmarshal(data, &c.Text)
	}
	var solved solvedCell
	err := json.Unmarshal(data, &solved)
	if err != nil {
		return err
	}
	*c = ScoreCell(solved)
	return nil
}

type ScoreRow struct {
	Position string `json:"position"`
	// UserSite is "<username>/<site>".
	UserSite string       `json:"userSite"`
	Name     string       `json:"name"`
	Problems []*ScoreCell `json:"problems"`
	Total    string       `json:"total"`
}

// Option is an entry of a submission form's select element.
type Option struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// RunsPage is everything scraped from a single fetch of the runs page.
type RunsPage struct {
	RemainingTime string   `json:"remainingTime"`
	Runs          []Run    `json:"runs"`
	Languages     []Option `json:"languages"`
	Problems      []Option `json:"problems"`
}
