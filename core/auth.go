package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LoginMessagePrefix is the literal every wallet login message must contain
const LoginMessagePrefix = "Login to OSINT HUB with wallet:"

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Principal is a wallet address normalized to lowercase 0x-prefixed hex
type Principal string

// ParsePrincipal validates the wallet address shape and normalizes it
func ParsePrincipal(address string) (Principal, error) {
	address = strings.TrimSpace(address)
	if !addressPattern.MatchString(address) {
		return "", ErrInvalidAddress
	}
	return Principal(strings.ToLower(address)), nil
}

// IsAddress reports whether s has the wallet address shape
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Address returns the principal as a go-ethereum address
func (p Principal) Address() common.Address {
	return common.HexToAddress(string(p))
}

func (p Principal) String() string {
	return string(p)
}

// Short renders the principal as 0xabcd...wxyz
func (p Principal) Short() string {
	s := string(p)
	if len(s) < 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// SessionClass distinguishes NFT-holder sessions from regular ones
type SessionClass string

const (
	// SessionClassNFT is minted after a successful ownership check
	SessionClassNFT SessionClass = "nft"

	// SessionClassRegular carries a plain user id
	SessionClassRegular SessionClass = "user"
)

// Session is the decoded content of a bearer token
type Session struct {
	Class     SessionClass // Token class
	Principal Principal    // Wallet address, set for NFT sessions
	UserID    string       // Opaque user id, set for regular sessions
	IssuedAt  time.Time    // Embedded issue time, zero if it could not be read
}

// Subject returns the identifier the session is rate limited under
func (s Session) Subject() string {
	if s.Class == SessionClassNFT {
		return string(s.Principal)
	}
	return s.UserID
}

// ValidateLoginMessage checks that the message carries the login prefix and
// mentions the wallet address. This is a substring check, not a signature check.
func ValidateLoginMessage(message string, principal Principal) error {
	if !strings.Contains(message, LoginMessagePrefix) {
		return ErrInvalidMessage
	}
	if !strings.Contains(strings.ToLower(message), string(principal)) {
		return ErrInvalidMessage
	}
	return nil
}
