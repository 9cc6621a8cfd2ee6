package redis

import (
	"context"
	"errors"

	"github.com/kailas-cloud/searchbridge/internal/db"
)

// SynUpdate adds terms to a synonym group, creating it when absent.
func (s *Store) SynUpdate(ctx context.Context, index, groupID string, terms []string) error {
	if groupID == "" {
		return errors.New("synonym group id is required")
	}
	if len(terms) == 0 {
		return errors.New("at least one term is required")
	}
	args := make([]string, 0, len(terms)+2)
	args = append(args, index, groupID)
	args = append(args, terms...)

	cmd := s.b().Arbitrary(db.OpSynUpdate).Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpSynUpdate, Err: err}
	}
	return nil
}

// SynDump returns term -> group ids.
func (s *Store) SynDump(ctx context.Context, index string) (map[string][]string, error) {
	cmd := s.b().Arbitrary(db.OpSynDump).Args(index).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSynDump, Err: err}
	}

	out := make(map[string][]string, len(raw)/2)
	// 2-stride: [term1, [group ids], term2, [group ids], ...]
	for i := 0; i+1 < len(raw); i += 2 {
		term, err := raw[i].ToString()
		if err != nil {
			continue
		}
		ids, err := raw[i+1].AsStrSlice()
		if err != nil {
			continue
		}
		out[term] = ids
	}
	return out, nil
}
