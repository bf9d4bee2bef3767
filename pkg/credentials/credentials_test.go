package credentials

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		ssid   string
		secret string
	}{
		{"SpaceAndBang", "Home WiFi", "s3cr3t!"},
		{"Reserved", "a&b=c", "p%20ss+word&x=y"},
		{"Unicode", "Café ☕", "пароль123"},
		{"OpenNetwork", "Guest", ""},
		{"MaxLengths", strings.Repeat("n", MaxNameLen), strings.Repeat("s", MaxSecretLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.ssid, tt.secret)
			require.NoError(t, err)

			got, err := ParseForm([]byte(c.Encode()))
			require.NoError(t, err)
			assert.Equal(t, tt.ssid, got.Name())
			assert.Equal(t, tt.secret, got.Secret())
			assert.Equal(t, c, got)
		})
	}
}

func TestEncodeFieldOrder(t *testing.T) {
	c, err := New("Home WiFi", "s3cr3t!")
	require.NoError(t, err)
	assert.Equal(t, "name=Home+WiFi&secret=s3cr3t%21", c.Encode())
}

func TestParseForm(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantName   string
		wantSecret string
		wantErr    error
	}{
		{"Plain", "name=Home&secret=abc123", "Home", "abc123", nil},
		{"Reordered", "secret=abc123&name=Home", "Home", "abc123", nil},
		{"MissingSecret", "name=Home", "Home", "", nil},
		{"BadEscape", "name=Ho%zzme&secret=x", "", "", ErrMalformed},
		{"MissingName", "secret=abc", "", "", ErrMalformed},
		{"EmptyName", "name=&secret=abc", "", "", ErrInvalid},
		{"RepeatedName", "name=a&name=b&secret=x", "", "", ErrMalformed},
		{"NameTooLong", "name=" + strings.Repeat("x", MaxNameLen+1), "", "", ErrInvalid},
		{"SecretTooLong", "name=a&secret=" + strings.Repeat("x", MaxSecretLen+1), "", "", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseForm([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, c.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantSecret, c.Secret())
		})
	}
}

func TestLimitsCountBytes(t *testing.T) {
	// 11 runes, 33 bytes.
	name := strings.Repeat("€", 11)
	_, err := New(name, "")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "name exceeds 32 bytes")

	_, err = New(strings.Repeat("€", 10), "")
	assert.NoError(t, err)
}

func TestStringRedactsSecret(t *testing.T) {
	c, err := New("Home", "hunter22")
	require.NoError(t, err)
	assert.NotContains(t, c.String(), "hunter22")
	assert.Contains(t, c.String(), "Home")

	open, err := New("Guest", "")
	require.NoError(t, err)
	assert.True(t, open.Open())
	assert.Contains(t, open.String(), "open")
}

func TestPSK(t *testing.T) {
	// IEEE 802.11i-2004 Annex H.4 test vector.
	c, err := New("IEEE", "password")
	require.NoError(t, err)
	assert.Equal(t,
		"f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e",
		hex.EncodeToString(c.PSK()))

	short, err := New("IEEE", "pass")
	require.NoError(t, err)
	assert.Nil(t, short.PSK())
}
