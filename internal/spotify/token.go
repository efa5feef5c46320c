package spotify

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/filmatlas/filmatlas/internal/cache"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/logger"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// DefaultTokenURL is the public client-credentials token endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// tokenCacheTTL is 55 minutes: a deliberate 5-minute safety margin under the
// upstream 3600s token lifetime.
const tokenCacheTTL = 3300 * time.Second

// TokenProvider yields a usable bearer token, preferring the database cache
// and falling back to a fresh client-credentials exchange. No single-flight:
// concurrent misses may each exchange and insert, which is harmless since
// readers take the most-future-expiring row.
type TokenProvider struct {
	store    *cache.TokenStore
	exchange *clientcredentials.Config
	log      *zap.Logger
	now      func() time.Time
}

// TokenConfig holds provider construction options.
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewTokenProvider constructs a token provider.
func NewTokenProvider(store *cache.TokenStore, cfg TokenConfig) (*TokenProvider, error) {
	if store == nil {
		return nil, errors.New("spotify: token store is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("spotify: client credentials are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &TokenProvider{
		store: store,
		exchange: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		},
		log: logger.WithModule("spotify"),
		now: time.Now,
	}, nil
}

// Token returns a valid access token. Store read failures degrade to a miss;
// a failed exchange aborts with ErrTokenFetch since the dependent soundtrack
// lookup cannot proceed without a credential.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if p == nil {
		return "", errors.New("spotify: token provider not initialised")
	}

	row, ok, err := p.store.Current(ctx)
	if err != nil {
		p.log.Warn("token cache read failed, refetching", zap.Error(err))
	}
	if ok {
		return row.AccessToken, nil
	}

	start := p.now()
	tok, err := p.exchange.Token(ctx)
	metrics.UpstreamLatency.WithLabelValues("spotify", "token").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", appErrors.ErrTokenFetch.WithInternal(err)
	}
	if tok.AccessToken == "" {
		return "", appErrors.ErrTokenFetch
	}

	if err := p.store.Insert(ctx, tok.AccessToken, tok.TokenType, p.now().Add(tokenCacheTTL)); err != nil {
		// The token is still good; caching it was only an optimisation.
		metrics.CacheWriteFailures.WithLabelValues("token").Inc()
		p.log.Warn("failed to cache token", zap.Error(err))
	}

	return tok.AccessToken, nil
}
