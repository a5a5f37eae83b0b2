package ports

import "github.com/layer-3/nftgate/core"

// SessionCodec converts between sessions and bearer tokens
type SessionCodec interface {
	// Mint encodes a session into a bearer token
	Mint(session core.Session) (string, error)

	// Parse decodes a bearer token. Tokens that fail the secret check return core.ErrTokenInvalid.
	Parse(token string) (*core.Session, error)
}
