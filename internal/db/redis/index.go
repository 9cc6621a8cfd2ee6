package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchbridge/internal/db"
)

// CreateIndex runs FT.CREATE for schema.
func (s *Store) CreateIndex(ctx context.Context, schema *db.Schema) error {
	if err := schema.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	cmd := s.b().Arbitrary(db.OpCreateIndex).Args(schema.Args()...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index; deleteDocs also deletes the indexed keys (DD).
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}
	cmd := s.b().Arbitrary(db.OpDropIndex).Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// NumericFields reads the "attributes" section of FT.INFO and returns the
// aliases of NUMERIC fields in schema order.
func (s *Store) NumericFields(ctx context.Context, name string) ([]string, error) {
	cmd := s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()
	info, err := s.do(ctx, cmd).AsMap()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	attrs, ok := info["attributes"]
	if !ok {
		return nil, nil
	}
	list, err := attrs.ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpIndexInfo, Err: fmt.Errorf("parse attributes: %w", err)}
	}
	var out []string
	for _, a := range list {
		alias, typ := parseAttribute(a)
		if alias != "" && typ == "NUMERIC" {
			out = append(out, alias)
		}
	}
	return out, nil
}

// parseAttribute reads one FT.INFO attribute: a map under RESP3, a flat
// key/value list with trailing flags (SORTABLE, NOSTEM) under RESP2.
func parseAttribute(m rueidis.RedisMessage) (alias, typ string) {
	if m.IsMap() {
		kv, err := m.AsStrMap()
		if err != nil {
			return "", ""
		}
		return kv["attribute"], kv["type"]
	}
	vals, err := m.ToArray()
	if err != nil {
		return "", ""
	}
	for i := 0; i+1 < len(vals); i++ {
		k, err := vals[i].ToString()
		if err != nil {
			continue
		}
		switch k {
		case "attribute":
			alias, _ = vals[i+1].ToString()
			i++
		case "type":
			typ, _ = vals[i+1].ToString()
			i++
		}
	}
	return alias, typ
}

// Redis says "Unknown index name", Valkey and older modules "no such index".
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}
