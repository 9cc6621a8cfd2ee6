// Package searchbridge provides one full-text search API over interchangeable
// engines: Meilisearch, Typesense, Redis (RediSearch) and an embedded bleve
// index. The engine is chosen once, at construction.
//
// # Low-level API
//
//	client, _ := searchbridge.New(searchbridge.ProviderConfig{
//	    Type:        searchbridge.ProviderMeilisearch,
//	    Meilisearch: &searchbridge.MeilisearchConfig{Host: "http://localhost:7700"},
//	})
//	_ = client.Init(ctx)
//	res, _ := client.Search(ctx, "books", searchbridge.SearchParams{
//	    Query:        "dune",
//	    FacetFilters: map[string][]string{"author": {"Frank Herbert"}},
//	    Facets:       []string{"category"},
//	})
//
// # High-level API with Go generics
//
//	type Book struct {
//	    ISBN   string `search:"isbn,id"`
//	    Title  string `search:"title,searchable"`
//	    Author string `search:"author,filterable"`
//	    Year   int    `search:"year,sortable"`
//	}
//
//	idx, _ := searchbridge.NewIndex[Book](client, "books")
//	_, _ = idx.Ensure(ctx)
//	_, _ = idx.Add(ctx, books...)
//	res, _ := idx.Search().Query("dune").Where("author", "Frank Herbert").SortBy("year", true).Do(ctx)
//
// Behavior that differs per engine (pagination totals, synonym models,
// supported operations) is reported through the result fields and through
// ErrUnsupportedOperation.
package searchbridge
