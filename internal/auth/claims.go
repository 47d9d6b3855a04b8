package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MicrosoftRoleClaim is the role claim URI issued by WS-Federation style identity providers
const MicrosoftRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Claims is the decoded payload segment of a session token
type Claims map[string]any

// segmentParser only decodes; it is never used to verify a signature
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// stdToURL maps the standard base64 alphabet onto the URL-safe one so either
// encoding of a segment decodes
var stdToURL = strings.NewReplacer("+", "-", "/", "_")

// DecodeClaims extracts the claims embedded in a three-segment token without
// verifying it. The second return value is false when the token does not carry
// a decodable JSON object; callers treat that as "no claims", not as an error.
func DecodeClaims(token string) (Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, false
	}

	payload, err := segmentParser.DecodeSegment(stdToURL.Replace(parts[1]))
	if err != nil {
		return nil, false
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

// String returns the claim as text. Strings are returned as-is, other
// non-zero scalars are formatted, and lists yield their first usable element.
func (c Claims) String(key string) string {
	return claimText(c[key])
}

// Role returns the first non-empty of the role, role_name and Microsoft
// role claims
func (c Claims) Role() string {
	for _, key := range []string{"role", "role_name", MicrosoftRoleClaim} {
		if v := c.String(key); v != "" {
			return v
		}
	}
	return ""
}

func claimText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if !x {
			return ""
		}
		return "true"
	case float64:
		if x == 0 {
			return ""
		}
		return fmt.Sprint(x)
	case []any:
		for _, item := range x {
			if s := claimText(item); s != "" {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
