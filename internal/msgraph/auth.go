package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/douglascorrea/todo-api/internal/config"
	"github.com/douglascorrea/todo-api/internal/logging"
)

// cacheKey names the single token cache row for this provider.
const cacheKey = "microsoft"

// TokenCache persists the provider's token cache as an opaque blob. It is the
// only persistence hook this package needs; the blob format belongs to this
// package and nothing else interprets it.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Authenticator owns the Microsoft identity platform OAuth configuration, the
// ID-token verifier, and token persistence. It hands out per-account Graph
// clients.
type Authenticator struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	cache    TokenCache
	log      zerolog.Logger
}

// NewAuthenticator discovers the identity platform endpoints for the
// configured authority and prepares ID-token verification. The "common"
// multi-tenant authority issues per-tenant issuer URLs, so issuer checking is
// relaxed for it.
func NewAuthenticator(ctx context.Context, cfg *config.Config, cache TokenCache) (*Authenticator, error) {
	authority := strings.TrimRight(cfg.Microsoft.Authority, "/")
	multiTenant := strings.Contains(authority, "/common") ||
		strings.Contains(authority, "/organizations") ||
		strings.Contains(authority, "/consumers")
	if multiTenant {
		ctx = oidc.InsecureIssuerURLContext(ctx, authority)
	}

	provider, err := oidc.NewProvider(ctx, authority)
	if err != nil {
		return nil, fmt.Errorf("discovering identity provider %s: %w", authority, err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:        cfg.Microsoft.ClientID,
		SkipIssuerCheck: multiTenant,
	})

	return &Authenticator{
		oauth: oauth2.Config{
			ClientID:     cfg.Microsoft.ClientID,
			ClientSecret: cfg.Microsoft.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.Microsoft.RedirectURI,
			Scopes:       cfg.Microsoft.Scopes,
		},
		verifier: verifier,
		cache:    cache,
		log:      logging.WithComponent("msgraph"),
	}, nil
}

// AuthCodeURL builds the consent URL carrying the caller-supplied state.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange redeems the authorization code, verifies the ID token, persists
// the obtained token under the account id, and returns that account id.
func (a *Authenticator) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return "", fmt.Errorf("token response missing id_token")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Oid string `json:"oid"`
		Tid string `json:"tid"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("decoding id token claims: %w", err)
	}

	// Home account id, the provider's stable per-account handle.
	accountID := idToken.Subject
	if claims.Oid != "" && claims.Tid != "" {
		accountID = claims.Oid + "." + claims.Tid
	}

	if err := a.storeToken(ctx, accountID, tok); err != nil {
		return "", fmt.Errorf("persisting token cache: %w", err)
	}
	return accountID, nil
}

// ClientFor returns a Graph client for one linked account. Construction never
// touches the network: token resolution happens lazily on the first call.
func (a *Authenticator) ClientFor(ctx context.Context, accountID string) *Client {
	return NewClient(&cachedTokenSource{auth: a, accountID: accountID, ctx: ctx})
}

// cachedTokenSource resolves tokens through the persisted cache blob,
// refreshing and re-persisting as needed. A failed silent resolution is an
// AuthError and is not retried here.
type cachedTokenSource struct {
	auth      *Authenticator
	accountID string
	ctx       context.Context
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	cached, err := s.auth.loadToken(s.ctx, s.accountID)
	if err != nil {
		return nil, &AuthError{AccountID: s.accountID, Err: err}
	}
	if cached == nil {
		return nil, &AuthError{AccountID: s.accountID, Err: fmt.Errorf("no cached token")}
	}

	fresh, err := s.auth.oauth.TokenSource(s.ctx, cached).Token()
	if err != nil {
		return nil, &AuthError{AccountID: s.accountID, Err: err}
	}

	if fresh.AccessToken != cached.AccessToken {
		// Best-effort persist of the refreshed token; a concurrent refresh may
		// overwrite this, which the provider tolerates.
		if err := s.auth.storeToken(s.ctx, s.accountID, fresh); err != nil {
			s.auth.log.Warn().Err(err).Str("account_id", s.accountID).
				Msg("failed to persist refreshed token")
		}
	}
	return fresh, nil
}

func (a *Authenticator) loadToken(ctx context.Context, accountID string) (*oauth2.Token, error) {
	blob, err := a.cache.Get(ctx, cacheKey)
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, nil
	}
	var tokens map[string]*oauth2.Token
	if err := json.Unmarshal([]byte(blob), &tokens); err != nil {
		return nil, fmt.Errorf("decoding token cache: %w", err)
	}
	return tokens[accountID], nil
}

func (a *Authenticator) storeToken(ctx context.Context, accountID string, tok *oauth2.Token) error {
	blob, err := a.cache.Get(ctx, cacheKey)
	if err != nil {
		return err
	}
	tokens := map[string]*oauth2.Token{}
	if blob != "" {
		if err := json.Unmarshal([]byte(blob), &tokens); err != nil {
			// A corrupt blob is rebuilt rather than treated as fatal.
			a.log.Warn().Err(err).Msg("resetting unreadable token cache blob")
			tokens = map[string]*oauth2.Token{}
		}
	}
	tokens[accountID] = tok

	out, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encoding token cache: %w", err)
	}
	return a.cache.Put(ctx, cacheKey, string(out))
}
