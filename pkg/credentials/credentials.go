package credentials

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Radio stack limits, in bytes.
const (
	MaxNameLen   = 32
	MaxSecretLen = 64

	// MinPassphraseLen is the shortest WPA passphrase PSK accepts.
	MinPassphraseLen = 8
)

// Form field names shared by the portal page and ParseForm.
const (
	FieldName   = "name"
	FieldSecret = "secret"
)

// Credential errors.
var (
	ErrMalformed = errors.New("malformed credentials form")
	ErrInvalid   = errors.New("invalid credentials")
)

// Credentials is a network name and secret pair.
type Credentials struct {
	name   string
	secret string
}

// form is the validated shape of a submission.
type form struct {
	Name   string `validate:"required,maxbytes=32"`
	Secret string `validate:"maxbytes=64"`
}

// New validates name and secret and returns the pair.
func New(name, secret string) (Credentials, error) {
	f := form{Name: name, Secret: secret}
	if err := validate.Struct(f); err != nil {
		return Credentials{}, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return Credentials{name: name, secret: secret}, nil
}

// ParseForm decodes a URL-encoded form body into Credentials.
func ParseForm(body []byte) (Credentials, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !values.Has(FieldName) {
		return Credentials{}, fmt.Errorf("%w: missing %q field", ErrMalformed, FieldName)
	}
	if len(values[FieldName]) > 1 || len(values[FieldSecret]) > 1 {
		return Credentials{}, fmt.Errorf("%w: repeated field", ErrMalformed)
	}
	return New(values.Get(FieldName), values.Get(FieldSecret))
}

// Encode returns the URL-encoded form body for c.
func (c Credentials) Encode() string {
	// url.Values.Encode sorts keys; keep name first to match the page order.
	var sb strings.Builder
	sb.WriteString(FieldName)
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(c.name))
	sb.WriteByte('&')
	sb.WriteString(FieldSecret)
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(c.secret))
	return sb.String()
}

// Name returns the network name.
func (c Credentials) Name() string { return c.name }

// Secret returns the network secret.
func (c Credentials) Secret() string { return c.secret }

// IsZero reports whether c is the zero value.
func (c Credentials) IsZero() bool { return c.name == "" && c.secret == "" }

// Open reports whether the network has no secret.
func (c Credentials) Open() bool { return c.secret == "" }

// String returns the name with the secret redacted.
func (c Credentials) String() string {
	if c.Open() {
		return fmt.Sprintf("%q (open)", c.name)
	}
	return fmt.Sprintf("%q (secret redacted)", c.name)
}

// PSK derives the 256-bit WPA2 pre-shared key from the passphrase, salted
// with the network name. Returns nil for open networks and for secrets that
// are not valid passphrases (shorter than 8 bytes).
func (c Credentials) PSK() []byte {
	if len(c.secret) < MinPassphraseLen {
		return nil
	}
	return pbkdf2.Key([]byte(c.secret), []byte(c.name), 4096, 32, sha1.New)
}
