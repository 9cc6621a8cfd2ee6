package typesense

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v3/typesense/api"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// maxPerPage is the server-side cap on per_page.
const maxPerPage = 250

// searchResponse is the subset of the search result read back.
type searchResponse struct {
	Found        int   `json:"found"`
	SearchTimeMS int64 `json:"search_time_ms"`
	Hits         []struct {
		Document json.RawMessage `json:"document"`
	} `json:"hits"`
	FacetCounts []struct {
		FieldName string `json:"field_name"`
		Counts    []struct {
			Value string `json:"value"`
			Count int    `json:"count"`
		} `json:"counts"`
	} `json:"facet_counts"`
}

// Search maps the zero-based canonical page to Typesense's one-based page.
// "found" is an exact count. Pages larger than maxPerPage are unsupported.
func (p *Provider) Search(
	ctx context.Context, idx string, params request.Params,
) (*result.Result[json.RawMessage], error) {
	c, err := p.get()
	if err != nil {
		return nil, err
	}
	if params.HitsPerPage > maxPerPage {
		return nil, provider.Unsupported(provider.Typesense, provider.OpSearch,
			fmt.Sprintf("hitsPerPage %d exceeds the per_page limit of %d", params.HitsPerPage, maxPerPage))
	}
	sorts, err := params.SortDirectives()
	if err != nil {
		return nil, err
	}
	filterBy, err := provider.CompileFilter(params, filter.Typesense)
	if err != nil {
		return nil, err
	}
	info, err := p.info(ctx, idx)
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}

	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}
	wire := map[string]any{
		"q":        q,
		"page":     params.Page + 1,
		"per_page": params.HitsPerPage,
	}
	if len(info.queryBy) > 0 {
		wire["query_by"] = strings.Join(info.queryBy, ",")
	}
	if filterBy != "" {
		wire["filter_by"] = filterBy
	}
	if len(sorts) > 0 {
		order := make([]string, len(sorts))
		for i, s := range sorts {
			order[i] = s.String()
		}
		wire["sort_by"] = strings.Join(order, ",")
	}
	if len(params.Facets) > 0 {
		wire["facet_by"] = strings.Join(params.Facets, ",")
		wire["max_facet_values"] = params.MaxValuesPerFacet
	}
	if len(params.AttributesToRetrieve) > 0 {
		wire["include_fields"] = strings.Join(params.AttributesToRetrieve, ",")
	}
	if len(params.AttributesToHighlight) > 0 {
		wire["highlight_fields"] = strings.Join(params.AttributesToHighlight, ",")
	}
	if t := info.typo; t != nil {
		if !t.Enabled {
			wire["num_typos"] = "0"
		} else {
			if t.MinWordSizeForOneTypo > 0 {
				wire["min_len_1typo"] = t.MinWordSizeForOneTypo
			}
			if t.MinWordSizeForTwoTypos > 0 {
				wire["min_len_2typo"] = t.MinWordSizeForTwoTypos
			}
		}
	}

	var sp api.SearchCollectionParams
	if err := convert(wire, &sp); err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}
	raw, err := c.Collection(idx).Documents().Search(ctx, &sp)
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}
	var res searchResponse
	if err := convert(raw, &res); err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}

	hits := make([]json.RawMessage, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, h.Document)
	}

	facets := result.NewFacets(params.Facets)
	for _, fc := range res.FacetCounts {
		for _, cnt := range fc.Counts {
			facets.Add(fc.FieldName, cnt.Value, cnt.Count)
		}
	}

	return result.New(hits, res.Found, true, params.Page, params.HitsPerPage, res.SearchTimeMS, facets), nil
}

// info returns the cached search defaults of idx, reading the collection
// schema on first use when ConfigureIndex did not run in this process.
func (p *Provider) info(ctx context.Context, idx string) (*indexInfo, error) {
	p.mu.RLock()
	info, ok := p.indexes[idx]
	p.mu.RUnlock()
	if ok {
		return info, nil
	}

	c, err := p.get()
	if err != nil {
		return nil, err
	}
	schema, err := retrieveSchema(ctx, c, idx)
	if err != nil {
		return nil, err
	}
	info = &indexInfo{}
	if schema == nil {
		// Unknown collection: let Typesense report it on the search itself.
		return info, nil
	}
	for _, f := range schema.Fields {
		if f.isText() {
			info.queryBy = append(info.queryBy, f.Name)
		}
	}

	p.mu.Lock()
	p.indexes[idx] = info
	p.mu.Unlock()
	return info, nil
}
