package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/phpdoc-mcp/internal/index"
	"github.com/dshills/phpdoc-mcp/internal/storage"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeCombined SearchMode = "combined" // Text + name with RRF
	SearchModeText     SearchMode = "text"     // BM25 over stored elements only
	SearchModeName     SearchMode = "name"     // Name match over the in-memory index only
)

// ErrNoIndex is returned when a name search is requested without an index
var ErrNoIndex = errors.New("name search requires a symbol index")

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query       string
	Limit       int
	Mode        SearchMode
	Filters     *storage.SearchFilters
	ProjectID   int64
	Index       *index.Index // Required for name and combined modes
	UseCache    bool         // Whether to use query cache
	CacheTTL    time.Duration
	RRFConstant float64 // k value for Reciprocal Rank Fusion (default 60)
}

// Result is one matching element
type Result struct {
	FQSEN          string  `json:"fqsen"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	File           string  `json:"file"`
	Line           int     `json:"line"`
	Summary        string  `json:"summary,omitempty"`
	Signature      string  `json:"signature,omitempty"`
	Deprecated     bool    `json:"deprecated,omitempty"`
	Rank           int     `json:"rank"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []Result
	TotalResults int
	SearchMode   SearchMode
	Duration     time.Duration
	CacheHit     bool
	TextResults  int
	NameResults  int
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher coordinates symbol search across stored text and the symbol index
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance. storage may be nil when only
// name search is used.
func NewSearcher(storage storage.Storage) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: storage,
		cache:   cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *SearchResponse
	var err error

	switch req.Mode {
	case SearchModeCombined:
		response, err = s.combinedSearch(ctx, req)
	case SearchModeText:
		response, err = s.textSearch(ctx, req)
	case SearchModeName:
		response, err = s.nameSearch(req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.SearchMode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// textSearch performs BM25 search over the stored elements
func (s *Searcher) textSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	results, err := s.textResults(ctx, req, req.Limit)
	if err != nil {
		return nil, err
	}
	rankResults(results)
	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		TextResults:  len(results),
	}, nil
}

func (s *Searcher) textResults(ctx context.Context, req SearchRequest, limit int) ([]Result, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("text search requires storage")
	}
	textResults, err := s.storage.SearchElements(ctx, req.ProjectID, req.Query, limit, req.Filters)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(textResults))
	for i, tr := range textResults {
		out[i] = Result{
			FQSEN:          tr.Element.FQSEN,
			Name:           tr.Element.Name,
			Kind:           tr.Element.Kind,
			File:           tr.FilePath,
			Line:           tr.Element.Line,
			Summary:        tr.Element.Summary,
			Signature:      tr.Element.Signature,
			Deprecated:     tr.Element.Deprecated,
			RelevanceScore: tr.BM25Score,
		}
	}
	return out, nil
}

// nameSearch matches the query against element names in the index
func (s *Searcher) nameSearch(req SearchRequest) (*SearchResponse, error) {
	results, err := nameResults(req, req.Limit)
	if err != nil {
		return nil, err
	}
	rankResults(results)
	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		NameResults:  len(results),
	}, nil
}

// nameResults scores every indexed element whose short name or FQSEN
// contains the query: 1.0 exact name, 0.8 name prefix, 0.5 substring
func nameResults(req SearchRequest, limit int) ([]Result, error) {
	if req.Index == nil {
		return nil, ErrNoIndex
	}
	query := strings.ToLower(strings.TrimSpace(req.Query))

	var out []Result
	for _, el := range req.Index.Elements() {
		kind := el.ElementKind()
		if kind == types.KindParameter || kind == types.KindInclude {
			continue
		}
		common := el.Common()
		score := nameScore(query, common.Name, el.FQSEN())
		if score == 0 {
			continue
		}
		path, _ := req.Index.FileOf(el.FQSEN())
		if !matchesFilters(req.Filters, el, path) {
			continue
		}
		out = append(out, Result{
			FQSEN:          el.FQSEN(),
			Name:           common.Name,
			Kind:           string(kind),
			File:           path,
			Line:           common.Line,
			Summary:        common.Summary(),
			Signature:      storage.Signature(el),
			Deprecated:     common.DocBlock.IsDeprecated(),
			RelevanceScore: score,
		})
	}

	// stable keeps FQSEN order among equal scores
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func nameScore(query, name, fqsen string) float64 {
	name = strings.ToLower(strings.TrimPrefix(name, "$"))
	switch {
	case name == query:
		return 1.0
	case strings.HasPrefix(name, query):
		return 0.8
	case strings.Contains(strings.ToLower(fqsen), query):
		return 0.5
	}
	return 0
}

// matchesFilters applies the storage filter semantics to an indexed element
func matchesFilters(filters *storage.SearchFilters, el types.StructuralElement, path string) bool {
	if filters == nil {
		return true
	}
	if len(filters.Kinds) > 0 {
		found := false
		for _, k := range filters.Kinds {
			if strings.EqualFold(k, string(el.ElementKind())) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if ns := strings.ToLower(strings.Trim(filters.Namespace, `\`)); ns != "" {
		elNS := strings.ToLower(el.Common().Namespace)
		if elNS != ns && !strings.HasPrefix(elNS, ns+`\`) {
			return false
		}
	}
	if filters.FilePattern != "" {
		if ok, _ := doublestar.Match(filters.FilePattern, path); !ok {
			return false
		}
	}
	return true
}

// combinedSearch runs text and name search and merges them with Reciprocal
// Rank Fusion. Either side may fail as long as the other succeeds.
func (s *Searcher) combinedSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	type searchResult struct {
		results []Result
		err     error
	}
	textChan := make(chan searchResult, 1)

	go func() {
		var res searchResult
		res.results, res.err = s.textResults(ctx, req, req.Limit*2)
		textChan <- res
	}()

	var nameRes searchResult
	nameRes.results, nameRes.err = nameResults(req, req.Limit*2)

	var textRes searchResult
	select {
	case textRes = <-textChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if textRes.err != nil && nameRes.err != nil {
		return nil, fmt.Errorf("both searches failed: text=%w, name=%v", textRes.err, nameRes.err)
	}

	fused := applyRRF(textRes.results, nameRes.results, req.RRFConstant)
	if len(fused) > req.Limit {
		fused = fused[:req.Limit]
	}
	return &SearchResponse{
		Results:      fused,
		TotalResults: len(fused),
		TextResults:  len(textRes.results),
		NameResults:  len(nameRes.results),
	}, nil
}

// applyRRF combines ranked lists by FQSEN
// RRF formula: RRF(d) = sum of 1/(k + rank(d))
func applyRRF(textResults, nameResults []Result, k float64) []Result {
	if k == 0 {
		k = 60
	}

	scores := make(map[string]float64)
	merged := make(map[string]Result)
	var order []string

	for _, list := range [][]Result{textResults, nameResults} {
		for rank, r := range list {
			key := index.Key(r.FQSEN)
			if _, ok := merged[key]; !ok {
				merged[key] = r
				order = append(order, key)
			}
			scores[key] += 1.0 / (k + float64(rank+1))
		}
	}

	results := make([]Result, len(order))
	for i, key := range order {
		r := merged[key]
		r.RelevanceScore = scores[key]
		results[i] = r
	}
	sortResults(results)
	rankResults(results)
	return results
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = 10 // Default limit
	}

	if req.Limit > 100 {
		req.Limit = 100 // Max limit
	}

	if req.Mode == "" {
		req.Mode = SearchModeCombined
	}

	if req.RRFConstant == 0 {
		req.RRFConstant = 60
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req SearchRequest) (*SearchResponse, bool) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, false
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response, true
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a copy of a SearchResponse. Result holds only
// values, so copying the slice is enough.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = append([]Result(nil), src.Results...)
	return &dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d|%d", req.ProjectID, req.Limit))

	if req.Filters != nil {
		data.WriteString("|filters:")
		data.WriteString(strings.Join(req.Filters.Kinds, ","))
		data.WriteString("|")
		data.WriteString(req.Filters.Namespace)
		data.WriteString("|")
		data.WriteString(req.Filters.FilePattern)
	}

	return sha256.Sum256([]byte(data.String()))
}

// sortResults sorts results by score in descending order, FQSEN breaking ties
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].FQSEN < results[j].FQSEN
	})
}

func rankResults(results []Result) {
	for i := range results {
		results[i].Rank = i + 1
	}
}

// InvalidateCache drops cached queries. The LRU cannot filter by project, so
// the whole cache is purged; it is called after a project is re-reflected.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of cached queries
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
