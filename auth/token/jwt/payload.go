package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tenant-auth/auth/auth"
)

// numericClaims are written as JSON integers.
var numericClaims = map[string]bool{
	auth.ClaimIssuedAt:  true,
	auth.ClaimNotBefore: true,
	auth.ClaimExpiresAt: true,
}

// payload is the JSON body of a token.
//
// Members appear in claim order. A claim type occurring more than once is written once,
// at the position of its first occurrence, as an array of its values.
type payload auth.ClaimSet

func (p payload) MarshalJSON() ([]byte, error) {
	var order []string
	values := make(map[string][]string)

	for _, claim := range p {
		if _, ok := values[claim.Type]; !ok {
			order = append(order, claim.Type)
		}

		values[claim.Type] = append(values[claim.Type], claim.Value)
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, typ := range order {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(typ)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		vs := values[typ]

		if len(vs) > 1 {
			buf.WriteByte('[')
		}

		for j, v := range vs {
			if j > 0 {
				buf.WriteByte(',')
			}

			value, err := marshalClaimValue(typ, v)
			if err != nil {
				return nil, err
			}

			buf.Write(value)
		}

		if len(vs) > 1 {
			buf.WriteByte(']')
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func marshalClaimValue(typ string, value string) ([]byte, error) {
	if numericClaims[typ] {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("claim %q must be an integer, got %q", typ, value)
		}

		return []byte(value), nil
	}

	return json.Marshal(value)
}

func (p *payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("token payload must be a JSON object")
	}

	claims := auth.ClaimSet{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		typ, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in payload", tok)
		}

		var raw json.RawMessage

		err = dec.Decode(&raw)
		if err != nil {
			return err
		}

		values, err := unmarshalClaimValues(raw)
		if err != nil {
			return fmt.Errorf("claim %q: %w", typ, err)
		}

		for _, v := range values {
			claims = append(claims, auth.NewClaim(typ, v))
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = payload(claims)

	return nil
}

func unmarshalClaimValues(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 || raw[0] != '[' {
		v, err := unmarshalScalar(raw)
		if err != nil {
			return nil, err
		}

		return []string{v}, nil
	}

	var items []json.RawMessage

	err := json.Unmarshal(raw, &items)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(items))

	for _, item := range items {
		v, err := unmarshalScalar(item)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

// unmarshalScalar returns strings unquoted; any other JSON value keeps its literal text.
func unmarshalScalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '"' {
		var s string

		err := json.Unmarshal(raw, &s)
		if err != nil {
			return "", err
		}

		return s, nil
	}

	return string(raw), nil
}

func (p payload) single(typ string) (string, bool, error) {
	values := auth.ClaimSet(p).Values(typ)

	switch len(values) {
	case 0:
		return "", false, nil
	case 1:
		return values[0], true, nil
	}

	return "", false, fmt.Errorf("%w: %s must have a single value", jwt.ErrInvalidType, typ)
}

func (p payload) numericDate(typ string) (*jwt.NumericDate, error) {
	v, ok, err := p.single(typ)
	if err != nil || !ok {
		return nil, err
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", jwt.ErrInvalidType, typ, err)
	}

	round, frac := math.Modf(f)

	return jwt.NewNumericDate(time.Unix(int64(round), int64(frac*1e9))), nil
}

func (p payload) GetExpirationTime() (*jwt.NumericDate, error) {
	return p.numericDate(auth.ClaimExpiresAt)
}

func (p payload) GetIssuedAt() (*jwt.NumericDate, error) {
	return p.numericDate(auth.ClaimIssuedAt)
}

func (p payload) GetNotBefore() (*jwt.NumericDate, error) {
	return p.numericDate(auth.ClaimNotBefore)
}

func (p payload) GetIssuer() (string, error) {
	v, _, err := p.single(auth.ClaimIssuer)

	return v, err
}

func (p payload) GetSubject() (string, error) {
	v, _, err := p.single(auth.ClaimSubject)

	return v, err
}

func (p payload) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings(auth.ClaimSet(p).Values(auth.ClaimAudience)), nil
}
