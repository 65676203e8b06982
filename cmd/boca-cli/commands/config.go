package commands

import (
	"os"
	"path/filepath"
	"time"

	"bocateam/lib/platforms/boca/core"
	"bocateam/lib/restyutil"
)

type Config struct {
	// Store is the sqlite database credentials and cookies are kept in.
	Store string `json:"store"`
	App   string `json:"app"`
	// ProbeTimeout is in seconds.
	ProbeTimeout float64 `json:"probe_timeout"`
	// DownloadRetries of -1 disables retrying downloads.
	DownloadRetries   int     `json:"download_retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// DumpHttp is a directory every http exchange is written to, empty disables dumps.
	DumpHttp string `json:"dump_http"`
	// CredentialLifetime is in hours.
	CredentialLifetime float64 `json:"credential_lifetime"`
}

func defaultConfig() Config {
	store := "boca.db"
	dir, err := os.UserConfigDir()
	if err == nil {
		store = filepath.Join(dir, "boca-cli", "secrets.db")
	}
	return Config{
		Store:              store,
		App:                "boca",
		ProbeTimeout:       5,
		DownloadRetries:    1,
		CredentialLifetime: 24,
	}
}

func (c Config) sessionOptions() (core.Options, error) {
	opts := core.Options{
		App:                c.App,
		ProbeTimeout:       time.Duration(c.ProbeTimeout * float64(time.Second)),
		DownloadRetries:    c.DownloadRetries,
		CredentialLifetime: time.Duration(c.CredentialLifetime * float64(time.Hour)),
		RequestsPerSecond:  c.RequestsPerSecond,
	}
	if c.DumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(c.DumpHttp)
		if err != nil {
			return core.Options{}, err
		}
		opts.DumpOutput = output
	}
	return opts, nil
}
