// Package searcher implements symbol search over a reflected PHP project.
//
// The searcher provides three search modes:
//   - Combined: text + name search merged with Reciprocal Rank Fusion (default)
//   - Text: BM25 full-text search over stored names, FQSENs, summaries and signatures
//   - Name: case-insensitive match on element names in the in-memory index
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:     "getName",
//	    ProjectID: res.Project.ID,
//	    Index:     res.Index,
//	    Limit:     10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n", r.Rank, r.FQSEN, r.RelevanceScore)
//	}
//
// # Reciprocal Rank Fusion
//
// Combined mode asks each side for twice the limit and scores every element
// as the sum of 1/(k + rank) over the lists it appears in, with k = 60 by
// default. Elements are merged on their normalized FQSEN, so a method found
// as getName by one side and getname by the other counts once.
//
// # Filters
//
// storage.SearchFilters apply to both sides with the same meaning:
//
//   - Kinds: element kinds such as "class" or "method"
//   - Namespace: the namespace itself or any namespace below it
//   - FilePattern: a doublestar glob over project-relative paths
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache of 1000 entries for
// CacheTTL (default one hour). Cached responses are copied on the way in and
// out. Call InvalidateCache after a project is reflected again.
package searcher
