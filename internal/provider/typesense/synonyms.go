package typesense

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	ts "github.com/typesense/typesense-go/v3/typesense"
	"github.com/typesense/typesense-go/v3/typesense/api"

	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// nativeSynonym is the Typesense synonym record: multi-way without a root,
// one-way from root otherwise.
type nativeSynonym struct {
	ID       string   `json:"id,omitempty"`
	Root     string   `json:"root,omitempty"`
	Synonyms []string `json:"synonyms"`
}

func toNative(s synonym.Synonym) (nativeSynonym, error) {
	switch s.Type {
	case synonym.Symmetric:
		return nativeSynonym{ID: s.ObjectID, Synonyms: synonym.Dedupe(s.Synonyms)}, nil
	case synonym.OneWay:
		return nativeSynonym{ID: s.ObjectID, Root: s.Input, Synonyms: synonym.Dedupe(s.Synonyms)}, nil
	default:
		return nativeSynonym{}, provider.Unsupported(provider.Typesense, provider.OpSaveSynonyms,
			fmt.Sprintf("synonym type %s has no Typesense equivalent", s.Type))
	}
}

func (n nativeSynonym) rich() synonym.Synonym {
	if n.Root != "" {
		return synonym.Synonym{ObjectID: n.ID, Type: synonym.OneWay, Input: n.Root, Synonyms: n.Synonyms}
	}
	return synonym.Synonym{ObjectID: n.ID, Type: synonym.Symmetric, Synonyms: n.Synonyms}
}

// SaveSynonyms upserts every record under its id, generating one when empty.
// All records are validated and translated before the first write.
func (p *Provider) SaveSynonyms(
	ctx context.Context, idx string, synonyms []synonym.Synonym, opts provider.SaveSynonymsOptions,
) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	records := make([]nativeSynonym, 0, len(synonyms))
	for i, s := range synonyms {
		s = s.Normalize()
		if err := s.Validate(); err != nil {
			return provider.Ack{}, fmt.Errorf("record %d: %w", i, err)
		}
		if s.ObjectID == "" {
			s.ObjectID = uuid.NewString()
		}
		n, err := toNative(s)
		if err != nil {
			return provider.Ack{}, err
		}
		records = append(records, n)
	}

	if opts.ReplaceExisting {
		if _, err := deleteAll(ctx, c, idx); err != nil {
			return provider.Ack{}, p.fail(provider.OpSaveSynonyms, err)
		}
	}

	ids := make([]string, 0, len(records))
	for _, n := range records {
		var schema api.SearchSynonymSchema
		if err := convert(n, &schema); err != nil {
			return provider.Ack{}, p.fail(provider.OpSaveSynonyms, err)
		}
		if _, err := c.Collection(idx).Synonyms().Upsert(ctx, n.ID, &schema); err != nil {
			return provider.Ack{}, p.fail(provider.OpSaveSynonyms, fmt.Errorf("synonym %s: %w", n.ID, err))
		}
		ids = append(ids, n.ID)
	}
	return provider.Ack{Provider: provider.Typesense, Payload: map[string]any{"objectIDs": ids}}, nil
}

func listSynonyms(ctx context.Context, c *ts.Client, idx string) ([]nativeSynonym, error) {
	resp, err := c.Collection(idx).Synonyms().Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	var out []nativeSynonym
	if err := convert(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deleteAll(ctx context.Context, c *ts.Client, idx string) (int, error) {
	existing, err := listSynonyms(ctx, c, idx)
	if err != nil {
		return 0, err
	}
	for _, n := range existing {
		if _, err := c.Collection(idx).Synonym(n.ID).Delete(ctx); err != nil {
			return 0, fmt.Errorf("synonym %s: %w", n.ID, err)
		}
	}
	return len(existing), nil
}

// SearchSynonyms lists the collection's synonyms with their native ids.
func (p *Provider) SearchSynonyms(ctx context.Context, idx, query string) ([]synonym.Synonym, error) {
	c, err := p.get()
	if err != nil {
		return nil, err
	}
	natives, err := listSynonyms(ctx, c, idx)
	if err != nil {
		return nil, p.fail(provider.OpSearchSynonyms, err)
	}
	out := make([]synonym.Synonym, len(natives))
	for i, n := range natives {
		out[i] = n.rich()
	}
	return synonym.Filter(out, query), nil
}

// DeleteSynonym deletes one record, or all of them for the sentinel id.
func (p *Provider) DeleteSynonym(ctx context.Context, idx, objectID string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if objectID == synonym.AllSentinel {
		n, err := deleteAll(ctx, c, idx)
		if err != nil {
			return provider.Ack{}, p.fail(provider.OpDeleteSynonym, err)
		}
		return provider.Ack{Provider: provider.Typesense, Payload: map[string]any{"deleted": n}}, nil
	}
	resp, err := c.Collection(idx).Synonym(objectID).Delete(ctx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteSynonym, err)
	}
	return provider.Ack{Provider: provider.Typesense, Payload: resp}, nil
}
