package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// DefaultPrimaryKey is the attribute used when an index config names none.
const DefaultPrimaryKey = "id"

// Document is a schemaless record as stored in and returned from an index.
type Document = map[string]any

// ID extracts the primary key value of doc as a string.
// Strings, integers and json.Number are accepted; floats only when integral.
func ID(doc Document, primaryKey string) (string, error) {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	v, ok := doc[primaryKey]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrMissingPrimaryKey, primaryKey)
	}
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("%w: %q is empty", domain.ErrMissingPrimaryKey, primaryKey)
		}
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int32:
		return strconv.FormatInt(int64(id), 10), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case json.Number:
		return id.String(), nil
	case float64:
		if id != float64(int64(id)) {
			return "", fmt.Errorf("%w: %q is not integral", domain.ErrMissingPrimaryKey, primaryKey)
		}
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", fmt.Errorf("%w: %q has unsupported type %T", domain.ErrMissingPrimaryKey, primaryKey, v)
	}
}

// IDs extracts primary keys for a batch, failing on the first bad document.
func IDs(docs []Document, primaryKey string) ([]string, error) {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		id, err := ID(doc, primaryKey)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Project returns a copy of doc reduced to attrs. Empty attrs or "*" keep everything.
func Project(doc Document, attrs []string) Document {
	if len(attrs) == 0 {
		return doc
	}
	for _, a := range attrs {
		if a == "*" {
			return doc
		}
	}
	out := make(Document, len(attrs))
	for _, a := range attrs {
		if v, ok := doc[a]; ok {
			out[a] = v
		}
	}
	return out
}
