package tokenizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const (
	separator = "_"
	nftMarker = separator + "nft" + separator
)

// OpaqueCodec mints unsigned tokens of the form <secret>_nft_<address>_<unix ms>
// (or <secret>_<user id>_<unix ms> for regular sessions). The secret prefix is the
// only check: anyone holding the secret can mint a token for any address.
type OpaqueCodec struct {
	secret string
	now    func() time.Time
}

// NewOpaqueCodec creates an opaque codec bound to the session secret
func NewOpaqueCodec(secret string) (ports.SessionCodec, error) {
	if secret == "" {
		return nil, core.ErrNotConfigured
	}
	return &OpaqueCodec{secret: secret, now: time.Now}, nil
}

// Mint composes the token; no hashing or signing is involved
func (c *OpaqueCodec) Mint(session core.Session) (string, error) {
	issuedAt := session.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}
	ts := strconv.FormatInt(issuedAt.UnixMilli(), 10)

	switch session.Class {
	case core.SessionClassNFT:
		if !core.IsAddress(string(session.Principal)) {
			return "", core.ErrInvalidAddress
		}
		return c.secret + nftMarker + string(session.Principal) + separator + ts, nil
	case core.SessionClassRegular:
		if session.UserID == "" {
			return "", core.ErrTokenMalformed
		}
		return c.secret + separator + session.UserID + separator + ts, nil
	default:
		return "", core.ErrTokenInvalid
	}
}

// Parse accepts any token starting with the secret. NFT tokens must carry a
// well-formed address after the marker. No expiry is enforced.
func (c *OpaqueCodec) Parse(token string) (*core.Session, error) {
	if !strings.HasPrefix(token, c.secret) {
		return nil, core.ErrTokenInvalid
	}
	rest := token[len(c.secret):]

	if strings.HasPrefix(rest, nftMarker) {
		return parseNFTSegment(rest[len(nftMarker):])
	}

	rest = strings.TrimPrefix(rest, separator)
	session := &core.Session{Class: core.SessionClassRegular, UserID: rest}
	if i := strings.LastIndex(rest, separator); i >= 0 {
		if issuedAt, ok := parseMillis(rest[i+1:]); ok {
			session.UserID = rest[:i]
			session.IssuedAt = issuedAt
		}
	}
	return session, nil
}

func parseNFTSegment(body string) (*core.Session, error) {
	const addressLen = 42
	if len(body) < addressLen {
		return nil, core.ErrTokenMalformed
	}
	principal, err := core.ParsePrincipal(body[:addressLen])
	if err != nil {
		return nil, core.ErrTokenMalformed
	}

	session := &core.Session{Class: core.SessionClassNFT, Principal: principal}
	tail := body[addressLen:]
	if tail == "" {
		return session, nil
	}
	if !strings.HasPrefix(tail, separator) {
		return nil, core.ErrTokenMalformed
	}
	issuedAt, ok := parseMillis(tail[len(separator):])
	if !ok {
		return nil, core.ErrTokenMalformed
	}
	session.IssuedAt = issuedAt
	return session, nil
}

func parseMillis(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
