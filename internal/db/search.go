package db

// Query is the input for a paginated FT.SEARCH.
type Query struct {
	IndexName string
	// Query is the RediSearch query string; "*" matches everything.
	Query    string
	Offset   int
	Limit    int
	SortBy   string
	SortDesc bool
	// ReturnFields limits returned fields; empty returns the whole document.
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// ValueCount is one GROUPBY bucket.
type ValueCount struct {
	Value string
	Count int
}

// JSONRootField is the field name FT.SEARCH uses for a whole JSON document.
const JSONRootField = "$"
