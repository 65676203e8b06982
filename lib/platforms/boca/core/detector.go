package core

import (
	"regexp"
	"strings"
)

const (
	SessionExpiredMarker = "alert('Session expired. You must log in again.');"
	LoginSuccessMarker   = "document.location='team/index.php'"
)

var loginPageTitle = regexp.MustCompile(`^BOCA Online Contest Administrator boca-[.0-9]+ - Login$`)

// Detector decides authentication state from page content, BOCA answers 200 whether
// or not the session is valid.
type Detector interface {
	// IsAuthenticated reports whether a page was served to a logged in session.
	IsAuthenticated(html string) bool
	// IsLoginSuccessful reports whether the response to the login request accepted
	// the credentials.
	IsLoginSuccessful(html string) bool
	// IsLoginPage reports whether a page title belongs to BOCA's login page.
	IsLoginPage(title string) bool
}

// MarkerDetector matches fixed substrings of the served html.
type MarkerDetector struct {
	ExpiredMarker      string
	LoginSuccessMarker string
	LoginTitle         *regexp.Regexp
}

var DefaultDetector = MarkerDetector{
	ExpiredMarker:      SessionExpiredMarker,
	LoginSuccessMarker: LoginSuccessMarker,
	LoginTitle:         loginPageTitle,
}

func (d MarkerDetector) IsAuthenticated(html string) bool {
	return !strings.Contains(html, d.ExpiredMarker)
}

func (d MarkerDetector) IsLoginSuccessful(html string) bool {
	return strings.Contains(html, d.LoginSuccessMarker)
}

func (d MarkerDetector) IsLoginPage(title string) bool {
	return d.LoginTitle.MatchString(title)
}
