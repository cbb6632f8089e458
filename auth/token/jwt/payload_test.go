package jwt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenant-auth/auth/auth"
)

func TestPayload_MarshalJSON(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		p := payload{
			{Type: "role", Value: "User"},
			{Type: "sub", Value: "alice"},
			{Type: "role", Value: "Administrator"},
			{Type: "exp", Value: "1257894900"},
			{Type: "note", Value: `say "hi"`},
		}

		data, err := p.MarshalJSON()
		require.NoError(t, err)

		assert.Equal(
			t,
			`{"role":["User","Administrator"],"sub":"alice","exp":1257894900,"note":"say \"hi\""}`,
			string(data),
		)
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := payload{}.MarshalJSON()
		require.NoError(t, err)

		assert.Equal(t, `{}`, string(data))
	})

	t.Run("Error", func(t *testing.T) {
		_, err := payload{{Type: "exp", Value: "tomorrow"}}.MarshalJSON()
		require.Error(t, err)
	})
}

func TestPayload_UnmarshalJSON(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		var p payload

		err := json.Unmarshal(
			[]byte(`{"role":["User","Administrator"],"sub":"alice","exp":1257894900.5,"admin":true,"extra":null}`),
			&p,
		)
		require.NoError(t, err)

		expected := payload{
			{Type: "role", Value: "User"},
			{Type: "role", Value: "Administrator"},
			{Type: "sub", Value: "alice"},
			{Type: "exp", Value: "1257894900.5"},
			{Type: "admin", Value: "true"},
			{Type: "extra", Value: "null"},
		}

		assert.Equal(t, expected, p)

		exp, err := p.GetExpirationTime()
		require.NoError(t, err)

		// fractions are truncated to the precision of the jwt package
		assert.Equal(t, time.Unix(1257894900, 0), exp.Time)
	})

	t.Run("Error", func(t *testing.T) {
		testCases := map[string]string{
			"array":      `["sub"]`,
			"string":     `"sub"`,
			"truncated":  `{"sub":"alice"`,
			"bad member": `{"sub":}`,
		}

		for name, data := range testCases {
			data := data

			t.Run(name, func(t *testing.T) {
				var p payload

				err := json.Unmarshal([]byte(data), &p)
				require.Error(t, err)
			})
		}
	})
}

func TestPayload_Claims(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		p := payload{
			{Type: auth.ClaimSubject, Value: "alice"},
			{Type: auth.ClaimIssuer, Value: issuer},
			{Type: auth.ClaimAudience, Value: audience},
			{Type: auth.ClaimAudience, Value: "other.example.com"},
			{Type: auth.ClaimIssuedAt, Value: "1257894000"},
		}

		subject, err := p.GetSubject()
		require.NoError(t, err)
		assert.Equal(t, "alice", subject)

		iss, err := p.GetIssuer()
		require.NoError(t, err)
		assert.Equal(t, issuer, iss)

		aud, err := p.GetAudience()
		require.NoError(t, err)
		assert.Equal(t, jwt.ClaimStrings{audience, "other.example.com"}, aud)

		iat, err := p.GetIssuedAt()
		require.NoError(t, err)
		assert.Equal(t, now, iat.Time)

		nbf, err := p.GetNotBefore()
		require.NoError(t, err)
		assert.Nil(t, nbf)
	})

	t.Run("Error", func(t *testing.T) {
		p := payload{
			{Type: auth.ClaimSubject, Value: "alice"},
			{Type: auth.ClaimSubject, Value: "bob"},
			{Type: auth.ClaimExpiresAt, Value: "soon"},
		}

		_, err := p.GetSubject()
		assert.ErrorIs(t, err, jwt.ErrInvalidType)

		_, err = p.GetExpirationTime()
		assert.ErrorIs(t, err, jwt.ErrInvalidType)
	})
}
