package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// LoginResult is a granted NFT session
type LoginResult struct {
	Token     string
	Session   core.Session
	Ownership core.NFTOwnership
}

// AuthService handles wallet login and session validation
type AuthService struct {
	resolver *BalanceResolver
	codec    ports.SessionCodec
	eventPub ports.EventPublisher
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAuthService creates a new authentication service. A nil codec means the
// session secret is not configured and every login fails closed.
func NewAuthService(
	resolver *BalanceResolver,
	codec ports.SessionCodec,
	eventPub ports.EventPublisher,
	log logrus.FieldLogger,
) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		resolver: resolver,
		codec:    codec,
		eventPub: eventPub,
		log:      log,
		now:      time.Now,
	}
}

// Login checks the login message, resolves NFT ownership and mints a session token.
// The signature must be present but is not verified against the message.
func (s *AuthService) Login(ctx context.Context, address, signature, message string) (*LoginResult, error) {
	if strings.TrimSpace(address) == "" || signature == "" || message == "" {
		return nil, core.ErrMissingCredentials
	}

	principal, err := core.ParsePrincipal(address)
	if err != nil {
		return nil, err
	}

	if err := core.ValidateLoginMessage(message, principal); err != nil {
		s.log.WithFields(logrus.Fields{
			"principal":   principal.Short(),
			"has_prefix":  strings.Contains(message, core.LoginMessagePrefix),
			"has_address": strings.Contains(strings.ToLower(message), principal.String()),
		}).Info("login message validation failed")
		return nil, err
	}

	if s.codec == nil {
		return nil, core.ErrNotConfigured
	}

	ownership := s.resolver.ResolveOwnership(ctx, principal)
	if !ownership.OwnsAny {
		return nil, &core.AccessDeniedError{Ownership: ownership}
	}

	session := core.Session{
		Class:     core.SessionClassNFT,
		Principal: principal,
		IssuedAt:  s.now(),
	}
	token, err := s.codec.Mint(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	// The session is already granted, a lost audit event must not undo it
	if s.eventPub != nil {
		if err := s.eventPub.PublishLoginGranted(ctx, principal.String(), ownership.TotalBalance.String()); err != nil {
			s.log.WithError(err).Warn("failed to publish login event")
		}
	}

	s.log.WithFields(logrus.Fields{
		"principal": principal.Short(),
		"balance":   ownership.TotalBalance.String(),
	}).Info("NFT login granted")

	return &LoginResult{Token: token, Session: session, Ownership: ownership}, nil
}

// CheckOwnership resolves NFT ownership for an address without granting a session
func (s *AuthService) CheckOwnership(ctx context.Context, address string) (core.NFTOwnership, error) {
	principal, err := core.ParsePrincipal(address)
	if err != nil {
		return core.NFTOwnership{}, err
	}
	return s.resolver.ResolveOwnership(ctx, principal), nil
}

// ValidateAccessToken decodes a bearer token into its session
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*core.Session, error) {
	if s.codec == nil {
		return nil, core.ErrNotConfigured
	}
	if token == "" {
		return nil, core.ErrTokenInvalid
	}
	return s.codec.Parse(token)
}
