package searchbridge

import (
	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/provider"
	"github.com/kailas-cloud/searchbridge/internal/provider/bleveidx"
	"github.com/kailas-cloud/searchbridge/internal/provider/meili"
	"github.com/kailas-cloud/searchbridge/internal/provider/redis"
	"github.com/kailas-cloud/searchbridge/internal/provider/typesense"
)

// Provider tags accepted in ProviderConfig.Type.
const (
	ProviderMeilisearch = provider.Meilisearch
	ProviderTypesense   = provider.Typesense
	ProviderRedis       = provider.Redis
	ProviderBleve       = provider.Bleve
)

// Backend connection settings.
type (
	MeilisearchConfig = meili.Config
	TypesenseConfig   = typesense.Config
	RedisConfig       = redis.Config
	BleveConfig       = bleveidx.Config
)

// Canonical data model.
type (
	// Provider is the contract every backend adapter implements.
	Provider = provider.Provider
	// SearchParams is a backend-neutral search request.
	SearchParams = request.Params
	// SearchResult is a canonical search response.
	SearchResult[T any] = result.Result[T]
	// Facets maps attribute -> value -> count.
	Facets = result.Facets
	// Document is a schemaless record.
	Document = document.Document
	// IndexConfig is a backend-neutral index configuration.
	IndexConfig = index.Config
	// TypoTolerance is the typo policy of an index.
	TypoTolerance = index.TypoTolerance
	// Synonym is a rich synonym record.
	Synonym = synonym.Synonym
	// SynonymType names the kind of a Synonym.
	SynonymType = synonym.Type
	// Ack is a backend acknowledgment of a mutation.
	Ack = provider.Ack
	// DocumentOptions qualifies document writes.
	DocumentOptions = provider.DocumentOptions
	// SaveSynonymsOptions qualifies synonym writes.
	SaveSynonymsOptions = provider.SaveSynonymsOptions
	// FilterGrammar is the lexical rule set of one backend filter language.
	FilterGrammar = filter.Grammar
	// FacetGroup is one attribute with its selected values.
	FacetGroup = filter.Group
	// FacetSelection is an ordered list of facet groups.
	FacetSelection = filter.Selection
)

// Synonym types.
const (
	SynonymSymmetric      = synonym.Symmetric
	SynonymOneWay         = synonym.OneWay
	SynonymAltCorrection1 = synonym.AltCorrection1
	SynonymAltCorrection2 = synonym.AltCorrection2
	SynonymPlaceholder    = synonym.Placeholder
)

// AllSynonyms is the object id DeleteSynonym accepts to clear every synonym of an index.
const AllSynonyms = synonym.AllSentinel

// IndexQuery is one entry of a MultiSearch.
type IndexQuery struct {
	Index  string       `json:"indexName"`
	Params SearchParams `json:"params"`
}
