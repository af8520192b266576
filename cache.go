package xpath2

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// exprCache memoizes parsed expressions by their literal text, avoiding
// repeat tokenize/parse work for expressions evaluated in a loop (e.g.
// once per matched node). Grounded on the teacher's exprCache/
// getCachedExpression/setCachedExpression trio (xpath.go), generalized
// to key on the registry identity as well as the expression text since
// two Parsers with different namespace bindings must not share entries.
type exprCacheKey struct {
	registry *Registry
	expr     string
}

// exprCacheMu is a plain mutex: lru.Cache.Get moves the entry to the
// front of the recency list, so even reads mutate the cache.
var (
	exprCache   = lru.New(1000)
	exprCacheMu sync.Mutex
)

// SetCacheCapacity replaces the expression cache with one of the given
// capacity, discarding all entries. A capacity of 0 means unlimited,
// per groupcache/lru.Cache's MaxEntries convention.
func SetCacheCapacity(n int) {
	exprCacheMu.Lock()
	defer exprCacheMu.Unlock()
	exprCache = lru.New(n)
}

func getCachedExpression(r *Registry, expr string) (*ExprNode, bool) {
	exprCacheMu.Lock()
	defer exprCacheMu.Unlock()

	v, ok := exprCache.Get(exprCacheKey{r, expr})
	if !ok {
		return nil, false
	}
	node, ok := v.(*ExprNode)
	return node, ok
}

func setCachedExpression(r *Registry, expr string, node *ExprNode) {
	exprCacheMu.Lock()
	defer exprCacheMu.Unlock()
	exprCache.Add(exprCacheKey{r, expr}, node)
}
