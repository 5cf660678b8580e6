package session

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/gophauth/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource exposes the stored access token to code that talks to the API
// through oauth2.NewClient instead of the transport. When a refresher is
// configured an expired token is refreshed first.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	t := ts.m.store.GetTokens(ts.ctx)
	if t.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	if ts.m.refresher != nil && tokenstore.IsTokenExpired(t.AccessToken) {
		if err := ts.m.refresher.Refresh(ts.ctx); err != nil {
			return nil, err
		}
		t = ts.m.store.GetTokens(ts.ctx)
		if t.AccessToken == "" {
			return nil, ErrNotAuthenticated
		}
	}

	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    common.BearerScheme,
		RefreshToken: t.RefreshToken,
	}
	if exp, err := tokenstore.ExpirationTime(t.AccessToken); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}
