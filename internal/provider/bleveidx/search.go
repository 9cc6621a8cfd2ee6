package bleveidx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// buildMapping maps searchable attributes as analyzed text, filterable and
// sortable ones as keywords and numeric ones as numbers. Everything else is
// indexed dynamically but not stored; hits are read from sourceField.
func buildMapping(cfg index.Config) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.StoreDynamic = false

	src := bleve.NewTextFieldMapping()
	src.Index = false
	src.Store = true
	src.IncludeInAll = false
	src.IncludeTermVectors = false
	im.DefaultMapping.AddFieldMappingsAt(sourceField, src)

	mapped := make(map[string]bool)
	add := func(attr string, fm *mapping.FieldMapping) {
		if mapped[attr] {
			return
		}
		mapped[attr] = true
		fm.Store = false
		im.DefaultMapping.AddFieldMappingsAt(attr, fm)
	}
	for _, attr := range cfg.NumericAttributes {
		add(attr, bleve.NewNumericFieldMapping())
	}
	for _, attr := range cfg.SearchableAttributes {
		add(attr, bleve.NewTextFieldMapping())
	}
	for _, attr := range cfg.FilterableAttributes {
		add(attr, bleve.NewKeywordFieldMapping())
	}
	for _, attr := range cfg.SortableAttributes {
		add(attr, bleve.NewKeywordFieldMapping())
	}
	return im
}

// Search runs one bleve request; facets come back in the same response.
func (p *Provider) Search(
	ctx context.Context, name string, params request.Params,
) (*result.Result[json.RawMessage], error) {
	oi, err := p.lookup(name, false)
	if err != nil {
		return nil, p.wrap(provider.OpSearch, err)
	}
	sorts, err := params.SortDirectives()
	if err != nil {
		return nil, err
	}
	q, err := buildQuery(oi.cfg, params)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(q, params.HitsPerPage, params.Offset(), false)
	req.Fields = []string{sourceField}
	if len(sorts) > 0 {
		order := make([]string, 0, len(sorts)+1)
		for _, s := range sorts {
			if s.Descending {
				order = append(order, "-"+s.Attribute)
			} else {
				order = append(order, s.Attribute)
			}
		}
		req.SortBy(append(order, "-_score"))
	}
	for _, attr := range params.Facets {
		if oi.cfg.IsNumeric(attr) {
			return nil, provider.Unsupported(provider.Bleve, provider.OpSearch,
				fmt.Sprintf("facet on numeric attribute %q", attr))
		}
		req.AddFacet(attr, bleve.NewFacetRequest(attr, params.MaxValuesPerFacet))
	}

	res, err := oi.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}

	hits := make([]json.RawMessage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		h, err := toHit(hit.Fields[sourceField], params.AttributesToRetrieve)
		if err != nil {
			return nil, p.fail(provider.OpSearch, fmt.Errorf("hit %s: %w", hit.ID, err))
		}
		hits = append(hits, h)
	}

	facets := result.NewFacets(params.Facets)
	for attr, fr := range res.Facets {
		terms, err := facetTerms(fr)
		if err != nil {
			return nil, p.fail(provider.OpSearch, fmt.Errorf("facet %s: %w", attr, err))
		}
		for _, t := range terms {
			facets.Add(attr, t.Term, t.Count)
		}
	}

	return result.New(hits, int(res.Total), true, params.Page, params.HitsPerPage,
		res.Took.Milliseconds(), facets), nil
}

// buildQuery conjoins the free text, the translated filter tree and the
// native filter. Native filters use the canonical grammar as well.
func buildQuery(cfg index.Config, params request.Params) (query.Query, error) {
	expr, err := filter.Parse(params.Filters)
	if err != nil {
		return nil, err
	}
	native, err := filter.Parse(params.NativeFilter)
	if err != nil {
		return nil, err
	}
	expr = filter.Conjoin(expr, filter.SelectionFromMap(params.FacetFilters).Expr(), native)

	var parts []query.Query
	if text := strings.TrimSpace(params.Query); text != "" {
		parts = append(parts, textQuery(cfg, text))
	}
	if expr != nil {
		parts = append(parts, exprQuery(cfg, expr))
	}
	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery(), nil
	case 1:
		return parts[0], nil
	default:
		return bleve.NewConjunctionQuery(parts...), nil
	}
}

// textQuery requires every word, over the searchable attributes when any
// are configured and over the composite field otherwise.
func textQuery(cfg index.Config, text string) query.Query {
	if len(cfg.SearchableAttributes) == 0 {
		mq := bleve.NewMatchQuery(text)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		return mq
	}
	qs := make([]query.Query, 0, len(cfg.SearchableAttributes))
	for _, attr := range cfg.SearchableAttributes {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(attr)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		qs = append(qs, mq)
	}
	if len(qs) == 1 {
		return qs[0]
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func exprQuery(cfg index.Config, e filter.Expr) query.Query {
	switch e := e.(type) {
	case filter.Term:
		return termQuery(cfg, e)
	case filter.And:
		qs := make([]query.Query, len(e))
		for i, c := range e {
			qs[i] = exprQuery(cfg, c)
		}
		return bleve.NewConjunctionQuery(qs...)
	case filter.Or:
		qs := make([]query.Query, len(e))
		for i, c := range e {
			qs[i] = exprQuery(cfg, c)
		}
		return bleve.NewDisjunctionQuery(qs...)
	default:
		return bleve.NewMatchNoneQuery()
	}
}

// termQuery matches numeric attributes as a point range. Other values are
// analyzed with the field's analyzer, which keeps keyword fields exact.
func termQuery(cfg index.Config, t filter.Term) query.Query {
	if cfg.IsNumeric(t.Attribute) {
		if v, err := strconv.ParseFloat(t.Value, 64); err == nil {
			inclusive := true
			rq := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
			rq.SetField(t.Attribute)
			return rq
		}
	}
	mq := bleve.NewMatchQuery(t.Value)
	mq.SetField(t.Attribute)
	mq.SetOperator(query.MatchQueryOperatorAnd)
	return mq
}

func toHit(src any, attrs []string) (json.RawMessage, error) {
	s, ok := src.(string)
	if !ok {
		return nil, fmt.Errorf("missing %s field", sourceField)
	}
	if len(attrs) == 0 {
		return json.RawMessage(s), nil
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	return json.Marshal(document.Project(doc, attrs))
}

type termCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// facetTerms reads term counts through the facet result's JSON form, which
// is stable across bleve's internal term containers.
func facetTerms(fr any) ([]termCount, error) {
	data, err := json.Marshal(fr)
	if err != nil {
		return nil, err
	}
	var out struct {
		Terms []termCount `json:"terms"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out.Terms, nil
}
