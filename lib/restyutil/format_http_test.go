package restyutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactUrl(t *testing.T) {
	require.Equal(
		t,
		"http://10.0.0.1/boca/index.php?name=team1&password=%3CREDACTED%3E",
		RedactUrl("http://10.0.0.1/boca/index.php?name=team1&password=abcdef"),
	)
	require.Equal(t, "http://10.0.0.1/boca/team/run.php", RedactUrl("http://10.0.0.1/boca/team/run.php"))
}

func TestFormatHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Add("Cookie", "PHPSESSID=secret")
	headers.Add("Accept", "text/html")
	require.Equal(t, "Accept: text/html\nCookie: <REDACTED>", formatHeaders(headers))
	require.Equal(t, "", formatHeaders(http.Header{}))
}
