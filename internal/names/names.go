// Package names maps arbitrary source names to collision-free identifiers
// legal in the output scene graph. One Cache exists per conversion run and
// is passed explicitly through the call chain.
package names

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// escapePrefix marks identifiers rewritten from an illegal source spelling.
const escapePrefix = "tn__"

// Cache issues unique identifiers per parent scope. Names issued under
// different scopes are independent and may repeat.
type Cache struct {
	scopes map[string]map[string]bool
}

func NewCache() *Cache {
	return &Cache{scopes: map[string]map[string]bool{}}
}

// MakeUnique returns an identifier for candidate that is legal and unique
// among the names already issued under scope. A legal, unused candidate is
// returned unchanged; otherwise a deterministic escaped spelling is used
// and, when still colliding, a numeric suffix breaks the tie. Callers must
// surface the original spelling as a display label when the result differs.
func (c *Cache) MakeUnique(scope, candidate string) string {
	issued := c.scopes[scope]
	if issued == nil {
		issued = map[string]bool{}
		c.scopes[scope] = issued
	}

	name := candidate
	if !IsLegal(name) {
		name = escape(candidate)
	}
	if issued[name] {
		base := name
		for i := 1; ; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
			if !issued[name] {
				break
			}
		}
	}
	issued[name] = true
	return name
}

// IsLegal reports whether name is a legal scene-graph identifier:
// [A-Za-z_][A-Za-z0-9_]*.
func IsLegal(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// escape produces a stable alternate spelling for an illegal name: illegal
// runes collapse to underscores and a short digest of the original keeps
// distinct sources distinct.
func escape(name string) string {
	var b strings.Builder
	b.WriteString(escapePrefix)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_',
			r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	fmt.Fprintf(&b, "_%06x", h.Sum32()&0xffffff)
	return b.String()
}
