package core

import "errors"

var (
	// ErrNotLoggedIn is returned by authenticated operations when no credentials are stored.
	ErrNotLoggedIn = errors.New("boca: not logged in")
	// ErrLoginFailed means a brand-new session could not be authenticated, callers must
	// not retry automatically.
	ErrLoginFailed = errors.New("boca: login with newly created cookie jar failed")
	// ErrCredentialsExpired is returned once the stored credentials passed their
	// expiry, the session has already been logged out when it is returned.
	ErrCredentialsExpired = errors.New("boca: credentials expired")

	ErrInvalidFormat      = errors.New("boca: all credential fields are required")
	ErrHostUnreachable    = errors.New("boca: host is unreachable")
	ErrNotTargetServer    = errors.New("boca: host does not serve a BOCA login page")
	ErrInvalidCredentials = errors.New("boca: invalid credentials")

	// ErrMalformedCookieData is returned by DeserializeJar, callers treat it as "no
	// stored jar".
	ErrMalformedCookieData = errors.New("boca: malformed cookie data")
	// ErrUnexpectedPageStructure means the markup did not contain an element the
	// scrapers rely on, it points to an incompatible server version and is not retried.
	ErrUnexpectedPageStructure    = errors.New("boca: unexpected page structure")
	ErrDownloadAuthRetryExhausted = errors.New("boca: download kept returning an html page after logging in again")
	// ErrReservedPath is returned when FetchAuthenticated is given the login/index path,
	// visiting it logs the user out so it is only reachable through LogOut.
	ErrReservedPath = errors.New("boca: the index path logs out, use LogOut")
)

var userMessages = []struct {
	err     error
	message string
}{
	{ErrInvalidFormat, "All fields are required."},
	{ErrHostUnreachable, "IP is unreachable."},
	{ErrNotTargetServer, "IP doesn't point to a BOCA server."},
	{ErrInvalidCredentials, "Invalid credentials."},
	{ErrCredentialsExpired, "Credentials expired. Please, log in again."},
	{ErrNotLoggedIn, "You are not logged in."},
}

// UserFacing returns the message a user interface should show for err when err is one
// the user can act on.
func UserFacing(err error) (string, bool) {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.message, true
		}
	}
	return "", false
}

// UserMessage is UserFacing, errors that are not the user's to fix get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	message, ok := UserFacing(err)
	if !ok {
		return "Something went wrong while talking to the BOCA server."
	}
	return message
}
