package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge"
	"github.com/kailas-cloud/searchbridge/internal/config"
	logpkg "github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/version"
)

// VersionCmd prints build metadata.
type VersionCmd struct{}

// Run prints the version.
func (v *VersionCmd) Run() error {
	fmt.Println(version.String())
	return nil
}

// SearchCmd runs a single query and prints the result as JSON.
type SearchCmd struct {
	Index       string        `arg:"" help:"Index to search."`
	Query       string        `arg:"" optional:"" help:"Full-text query; empty matches everything."`
	Where       []string      `help:"Facet selection as attr=value; repeat for OR within an attribute." short:"w"`
	Filter      string        `help:"Canonical filter expression, e.g. 'author:\"Frank Herbert\"'."`
	Facet       []string      `help:"Facet attributes to count."`
	Sort        []string      `help:"Sort directives as attr:asc or attr:desc."`
	Page        int           `help:"Zero-based page." default:"0"`
	HitsPerPage int           `help:"Hits per page." default:"20"`
	Timeout     time.Duration `help:"Overall timeout." default:"30s"`
}

// Run executes the search.
func (s *SearchCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger(cli.Env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := searchbridge.New(cfg.Provider, searchbridge.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	if err := client.Init(ctx); err != nil {
		return err
	}

	selection, err := parseSelection(s.Where)
	if err != nil {
		return err
	}
	res, err := client.Search(ctx, s.Index, searchbridge.SearchParams{
		Query:        s.Query,
		Page:         s.Page,
		HitsPerPage:  s.HitsPerPage,
		Filters:      s.Filter,
		FacetFilters: selection,
		Facets:       s.Facet,
		Sort:         s.Sort,
	})
	if err != nil {
		return err
	}

	logger.Debug("search done",
		zap.String("index", s.Index),
		zap.Int("nb_hits", res.NbHits),
		zap.Int64("processing_time_ms", res.ProcessingTimeMS),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// parseSelection turns attr=value pairs into a facet selection.
func parseSelection(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	sel := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		attr, value, ok := strings.Cut(p, "=")
		if !ok || attr == "" {
			return nil, fmt.Errorf("invalid --where %q: want attr=value", p)
		}
		sel[attr] = append(sel[attr], value)
	}
	return sel, nil
}

func loadConfig(cli *CLI) (config.Config, error) {
	if cli.Config != "" {
		return config.LoadFile(cli.Config)
	}
	return config.Load(cli.Env)
}
