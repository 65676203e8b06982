package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Credentials identify a team on a BOCA server. They are owned by the secret store,
// the rest of the package only reads them.
type Credentials struct {
	Ip       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
	// ExpiresAt is when the client should forget the credentials, zero means never.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Complete reports whether every text field is filled in.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Ip) != "" &&
		c.Username != "" &&
		c.Password != ""
}

func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.Ip)
}

func marshalCredentials(c Credentials) (string, error) {
	out, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func unmarshalCredentials(raw string) (Credentials, error) {
	var c Credentials
	err := json.Unmarshal([]byte(raw), &c)
	if err != nil {
		return Credentials{}, err
	}
	return c, nil
}
