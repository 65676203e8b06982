package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"bocateam/internal/chrono"
)

const jarFormatVersion = 1

type jarState struct {
	Version int       `json:"version"`
	Cookies *[]Cookie `json:"cookies"`
}

// SerializeJar converts a jar into the JSON kept in the secret store.
func SerializeJar(jar *Jar) (string, error) {
	cookies := jar.All()
	out, err := json.Marshal(jarState{
		Version: jarFormatVersion,
		Cookies: &cookies,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCookieData, fmt.Sprintf(format, args...))
}

// DeserializeJar restores a jar produced by SerializeJar, anything of a different shape
// fails with ErrMalformedCookieData.
func DeserializeJar(raw string, clock chrono.API) (*Jar, error) {
	decoder := json.NewDecoder(bytes.NewBufferString(raw))
	decoder.DisallowUnknownFields()

	var state jarState
	err := decoder.Decode(&state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCookieData, err)
	}
	if state.Version != jarFormatVersion {
		return nil, malformed("unsupported version %d", state.Version)
	}
	if state.Cookies == nil {
		return nil, malformed("missing cookies")
	}
	for i, c := range *state.Cookies {
		if c.Key == "" {
			return nil, malformed("cookie %d has no key", i)
		}
		if c.Domain == "" {
			return nil, malformed("cookie %q has no domain", c.Key)
		}
		if !strings.HasPrefix(c.Path, "/") {
			return nil, malformed("cookie %q has an invalid path %q", c.Key, c.Path)
		}
	}

	jar := NewJar(clock)
	jar.cookies = *state.Cookies
	return jar, nil
}
