// Package token reads the claims of an access token locally, without the
// signing key and without a network round trip.
//
// The result is advisory: it builds an optimistic profile and spots
// obviously expired tokens. Only the server decides whether a token is
// valid.
package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the client cares about.
type Claims struct {
	Subject   string
	Login     string
	Role      string
	ExpiresAt *time.Time
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode returns the claims of credential, or false when it is not a
// three-segment token whose middle segment is a base64url JSON object.
// The header and signature segments are not inspected.
func Decode(credential string) (*Claims, bool) {
	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return nil, false
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	var mc jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&mc); err != nil || mc == nil {
		return nil, false
	}

	c := &Claims{
		Subject: subject(mc["sub"]),
		Login:   str(mc["login"]),
		Role:    str(mc["role"]),
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, false
	}
	if exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	return c, true
}

// Expired reports whether the token carries an exp claim that is before now.
// A token without exp never expires locally.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Profile builds the optimistic profile carried by the claims.
func (c *Claims) Profile() *models.UserProfile {
	return &models.UserProfile{
		ID:    models.FlexibleID(c.Subject),
		Login: c.Login,
		Role:  c.Role,
	}
}

func subject(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
