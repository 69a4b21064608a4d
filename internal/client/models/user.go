// Package models defines the client-side data exchanged with the
// FireStation auth API and kept in the local session.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// FlexibleID is a user identifier that the server may encode either as a
// JSON string or as a JSON number. It is always handled as a string.
type FlexibleID string

var errInvalidID = errors.New("user id must be a string or a number")

// UnmarshalJSON accepts "42", 42 and null.
func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: %s", errInvalidID, b)
	}
	*id = FlexibleID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and anything else as a string,
// so a profile round-trips through local storage unchanged.
func (id FlexibleID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UserProfile is the signed-in user as reported by /auth/me/ or derived
// from the access token claims.
type UserProfile struct {
	ID    FlexibleID `json:"id"`
	Login string     `json:"login"`
	Role  string     `json:"role"`
}

// Clone returns a copy of p, or nil for nil.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Valid reports whether the profile carries an id. The server's /auth/me/
// answer is only trusted when it does.
func (p *UserProfile) Valid() bool {
	return p != nil && p.ID != ""
}
