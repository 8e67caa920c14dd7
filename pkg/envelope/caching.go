package envelope

import "github.com/marmos91/maidnode/pkg/ids"

// CachingHint advises the routing layer whether a reply to this envelope
// may be served from an intermediate cache. The core never reads the hint
// back; it is attached purely for the router's benefit.
type CachingHint uint8

const (
	// CacheNone marks traffic the router must not cache.
	CacheNone CachingHint = iota
	// CacheGetCacheable marks a Get-shaped request against immutable data:
	// its reply is safe to serve from a cache.
	CacheGetCacheable
	// CachePutCacheable marks a Put against immutable data: the router may
	// prime a cache entry from the content being stored.
	CachePutCacheable
)

func (h CachingHint) String() string {
	switch h {
	case CacheNone:
		return "None"
	case CacheGetCacheable:
		return "GetCacheable"
	case CachePutCacheable:
		return "PutCacheable"
	default:
		return "None"
	}
}

// HintFor derives the caching hint for an envelope from its action and the
// data family of the name it addresses: immutable blobs are Get-cacheable
// (or Put-cacheable on the write path); every other
// family gets no hint. dataTag is ignored for actions that carry no
// DataName (CreateAccount, RegisterPmid and similar account-level ops),
// which always get CacheNone.
func HintFor(action Action, dataTag ids.DataTagValue) CachingHint {
	if dataTag != ids.DataTagImmutable {
		return CacheNone
	}
	switch action {
	case ActionGet, ActionFetchIdentity:
		return CacheGetCacheable
	case ActionPut:
		return CachePutCacheable
	default:
		return CacheNone
	}
}
