package store

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx   context.Context
	store Store
}

// Token returns the currently stored credentials as an oauth2 token.
func (t *tokenSource) Token() (*oauth2.Token, error) {
	pair, err := t.store.LookupPair(t.ctx)
	if err != nil {
		return nil, err
	}
	return pair.Token(), nil
}

// TokenSource adapts a Store into an oauth2.TokenSource. It never refreshes;
// refreshing is the job of the refresh coordinator.
func TokenSource(ctx context.Context, s Store) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s}
}
