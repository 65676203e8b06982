package core

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched html page, Html is kept alongside the parsed document because
// authentication is detected on the raw markup.
type Page struct {
	Url  string
	Html string
	Doc  *goquery.Document
}

func ParsePage(url string, body []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse %s: %w", url, err)
	}
	return Page{Url: url, Html: string(body), Doc: doc}, nil
}
