package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const (
	DefaultSearchLimit = 100
	DefaultSearchLang  = "ru"
)

// SearchService forwards session-gated queries to the downstream intelligence API
type SearchService struct {
	client ports.SearchClient
}

// NewSearchService creates a search service. A nil client means the downstream
// token is not configured.
func NewSearchService(client ports.SearchClient) *SearchService {
	return &SearchService{client: client}
}

// Available reports whether the downstream API is configured
func (s *SearchService) Available() bool {
	return s.client != nil
}

// Search applies the default limit and language and relays the downstream JSON
func (s *SearchService) Search(ctx context.Context, query core.SearchQuery) (json.RawMessage, error) {
	if s.client == nil {
		return nil, core.ErrSearchUnavailable
	}
	if strings.TrimSpace(query.Request) == "" {
		return nil, core.ErrQueryRequired
	}
	if query.Limit <= 0 {
		query.Limit = DefaultSearchLimit
	}
	if query.Lang == "" {
		query.Lang = DefaultSearchLang
	}
	return s.client.Search(ctx, query)
}
