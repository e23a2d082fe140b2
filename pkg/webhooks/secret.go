package webhooks

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/platinummonkey/tenancy/pkg/secrets"
)

// RedactedToken replaces secret tokens in every hook returned to a caller
const RedactedToken = "REDACTED"

// DefaultHeaderName is used when an AuthorizationHeader secret names no header
const DefaultHeaderName = "Authorization"

// AuthorizationHeader sends the token in a request header, optionally prefixed
type AuthorizationHeader struct {
	Name   string `json:"name,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Token  string `json:"token"`
}

// HeaderName returns the configured header or DefaultHeaderName
func (h AuthorizationHeader) HeaderName() string {
	if h.Name == "" {
		return DefaultHeaderName
	}
	return h.Name
}

// HeaderValue returns "prefix token", or the bare token without a prefix
func (h AuthorizationHeader) HeaderValue() string {
	if h.Prefix == "" {
		return h.Token
	}
	return h.Prefix + " " + h.Token
}

// QueryParameter sends the token as ?name=token
type QueryParameter struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Secret is the credential attached to outgoing requests.
// Exactly one of the variants is set. Only Token is ever encrypted.
type Secret struct {
	AuthorizationHeader *AuthorizationHeader `json:"authorizationHeader,omitempty"`
	QueryParameter      *QueryParameter      `json:"queryParameter,omitempty"`
}

// HeaderSecret builds an AuthorizationHeader secret
func HeaderSecret(name, prefix, token string) *Secret {
	return &Secret{AuthorizationHeader: &AuthorizationHeader{Name: name, Prefix: prefix, Token: token}}
}

// QuerySecret builds a QueryParameter secret
func QuerySecret(name, token string) *Secret {
	return &Secret{QueryParameter: &QueryParameter{Name: name, Token: token}}
}

// Validate checks that exactly one variant is set and carries a token
func (s *Secret) Validate() error {
	switch {
	case s.AuthorizationHeader != nil && s.QueryParameter != nil:
		return errors.New("secret must be either an authorization header or a query parameter, not both")
	case s.AuthorizationHeader != nil:
		if s.AuthorizationHeader.Token == "" {
			return errors.New("secret token is required")
		}
	case s.QueryParameter != nil:
		if s.QueryParameter.Name == "" {
			return errors.New("query parameter name is required")
		}
		if s.QueryParameter.Token == "" {
			return errors.New("secret token is required")
		}
	default:
		return errors.New("secret has no variant")
	}
	return nil
}

// Token returns the token of whichever variant is set
func (s *Secret) Token() string {
	switch {
	case s.AuthorizationHeader != nil:
		return s.AuthorizationHeader.Token
	case s.QueryParameter != nil:
		return s.QueryParameter.Token
	default:
		return ""
	}
}

// WithToken returns a copy of s holding token; s is left untouched
func (s *Secret) WithToken(token string) *Secret {
	out := &Secret{}
	if s.AuthorizationHeader != nil {
		h := *s.AuthorizationHeader
		h.Token = token
		out.AuthorizationHeader = &h
	}
	if s.QueryParameter != nil {
		q := *s.QueryParameter
		q.Token = token
		out.QueryParameter = &q
	}
	return out
}

// Redacted returns a copy with the token replaced by RedactedToken
func (s *Secret) Redacted() *Secret {
	return s.WithToken(RedactedToken)
}

// Encrypt returns a copy whose token is sealed with codec
func (s *Secret) Encrypt(codec *secrets.Codec) (*Secret, error) {
	sealed, err := codec.Encrypt(s.Token())
	if err != nil {
		return nil, err
	}
	return s.WithToken(sealed), nil
}

// Decrypt returns a copy whose token is opened with codec
func (s *Secret) Decrypt(codec *secrets.Codec) (*Secret, error) {
	plain, err := codec.Decrypt(s.Token())
	if err != nil {
		return nil, err
	}
	return s.WithToken(plain), nil
}

// Apply attaches a decrypted secret to req
func (s *Secret) Apply(req *http.Request) {
	switch {
	case s.AuthorizationHeader != nil:
		req.Header.Set(s.AuthorizationHeader.HeaderName(), s.AuthorizationHeader.HeaderValue())
	case s.QueryParameter != nil:
		q := req.URL.Query()
		q.Set(s.QueryParameter.Name, s.QueryParameter.Token)
		req.URL.RawQuery = q.Encode()
	}
}

// Value stores the secret as JSONB
func (s *Secret) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for the JSONB column
func (s *Secret) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into Secret", src)
	}
}
