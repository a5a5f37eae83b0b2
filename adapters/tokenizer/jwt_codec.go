package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const AudienceAccess = "session:access"

// JWTCodec implements ports.SessionCodec with HS256 tokens signed by the session
// secret. It binds the principal to the token, unlike OpaqueCodec.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

// NewJWTCodec creates a JWT codec bound to the session secret
func NewJWTCodec(secret string) (ports.SessionCodec, error) {
	if secret == "" {
		return nil, core.ErrNotConfigured
	}
	return &JWTCodec{secret: []byte(secret), now: time.Now}, nil
}

// Mint signs the session into a JWT
func (j *JWTCodec) Mint(session core.Session) (string, error) {
	issuedAt := session.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = j.now()
	}

	subject := session.Subject()
	switch session.Class {
	case core.SessionClassNFT:
		if !core.IsAddress(subject) {
			return "", core.ErrInvalidAddress
		}
	case core.SessionClassRegular:
		if subject == "" {
			return "", core.ErrTokenMalformed
		}
	default:
		return "", core.ErrTokenInvalid
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			ID:       uuid.New().String(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Audience: jwt.ClaimStrings{AudienceAccess},
		},
		Class: string(session.Class),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// Parse verifies the signature and audience and returns the session
func (j *JWTCodec) Parse(tokenStr string) (*core.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceAccess), jwt.WithTimeFunc(j.now))
	if err != nil || !token.Valid {
		return nil, core.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, core.ErrTokenInvalid
	}

	session := &core.Session{Class: core.SessionClass(claims.Class)}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}

	switch session.Class {
	case core.SessionClassNFT:
		principal, err := core.ParsePrincipal(claims.Subject)
		if err != nil {
			return nil, core.ErrTokenMalformed
		}
		session.Principal = principal
	case core.SessionClassRegular:
		session.UserID = claims.Subject
	default:
		return nil, core.ErrTokenMalformed
	}

	return session, nil
}
