// Package registry fetches catalogs, starters and custom add-ons from a
// remote registry.
//
// # Registry Layout
//
// A registry is a static HTTP tree:
//
//	registry/
//	├── catalog.json              # catalog.Document
//	└── starters/
//	    └── {name}.json           # catalog.Starter
//
// Custom add-ons live anywhere and are fetched by absolute URL.
//
// # Usage
//
//	client := registry.NewClient("https://registry.example.dev")
//	cat, err := client.FetchCatalog(ctx)
//	cat, err = client.Import(ctx, cat, "https://gist.example.dev/my-addon.json")
//	if errors.Is(err, registry.ErrInvalidAddOn) {
//	    // show the validation problems next to the import field
//	}
//
// Every failure is a *LoadError carrying the URL and HTTP status. Concurrent
// fetches of one URL share a single request, and successful responses are
// kept in a Cache (an LRU by default).
package registry
