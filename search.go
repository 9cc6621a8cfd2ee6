package searchbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// Search runs one query. Defaults are applied to params before validation;
// an empty result is not an error.
func (c *Client) Search(ctx context.Context, index string, params SearchParams) (*SearchResult[Document], error) {
	raw, err := c.searchRaw(ctx, index, params)
	if err != nil {
		return nil, err
	}
	return result.Map(raw, decodeDocument)
}

// SearchAs runs one query and decodes every hit into T.
func SearchAs[T any](ctx context.Context, c *Client, index string, params SearchParams) (*SearchResult[T], error) {
	raw, err := c.searchRaw(ctx, index, params)
	if err != nil {
		return nil, err
	}
	return result.Map(raw, func(h json.RawMessage) (T, error) {
		var v T
		if err := json.Unmarshal(h, &v); err != nil {
			return v, fmt.Errorf("decode hit: %w", err)
		}
		return v, nil
	})
}

func (c *Client) searchRaw(
	ctx context.Context, index string, params SearchParams,
) (*SearchResult[json.RawMessage], error) {
	if err := c.gate(); err != nil {
		return nil, err
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.p.Search(ctx, index, params)
}

// MultiSearch runs queries concurrently. Results keep the input order; the
// first failure cancels the remaining queries and is returned.
func (c *Client) MultiSearch(ctx context.Context, queries []IndexQuery) ([]*SearchResult[Document], error) {
	if err := c.gate(); err != nil {
		return nil, err
	}
	out := make([]*SearchResult[Document], len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := c.Search(gctx, q.Index, q.Params)
			if err != nil {
				return fmt.Errorf("query %d (%s): %w", i, q.Index, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
