package ports

import (
	"context"
	"encoding/json"

	"github.com/layer-3/nftgate/core"
)

// SearchClient forwards a query to the downstream intelligence API and returns its JSON body
type SearchClient interface {
	Search(ctx context.Context, query core.SearchQuery) (json.RawMessage, error)
}
