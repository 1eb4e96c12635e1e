package cache

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key builds "<namespace>:<hash>" where hash is the xxhash64 of parts.
// Equal parts always give the same key; the namespace stays readable so
// DeletePrefix(namespace+":") drops the whole family.
//
// Example:
//
//	cache.Key("companies:list", clause.Fragment, clause.Values)
func Key(namespace string, parts ...any) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%T=%v\x00", p, p)
	}
	return namespace + ":" + strconv.FormatUint(h.Sum64(), 16)
}
