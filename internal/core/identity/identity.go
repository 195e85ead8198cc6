// Package identity provides the natural key for a character across all
// upstream sources. Keys are case-insensitive and accent-insensitive so the
// same character addressed as "Ágnes"/"Kazzak" and "agnes"/"KAZZAK" maps to
// one stored record
// Pipeline order
// 1 Unicode NFKC normalization
// 2 Case folding
// 3 Strip combining marks
// 4 Width fold fullwidth to ASCII
// 5 Trim and collapse inner whitespace to single dashes (realm slugs)
package identity

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Character addresses one character on one realm
type Character struct {
	Name  string `json:"name"`
	Realm string `json:"realm"`
}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// fold runs the transform chain over s
func fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	return ns
}

// Slug returns the canonical form of one identity component
func Slug(s string) string {
	s = fold(strings.TrimSpace(s))
	fields := strings.Fields(s)
	return strings.Join(fields, "-")
}

// Key returns the canonical storage key "realm/name" for c
func (c Character) Key() string {
	return Slug(c.Realm) + "/" + Slug(c.Name)
}

// Equal reports whether two identities address the same character
func (c Character) Equal(o Character) bool { return c.Key() == o.Key() }

// Valid reports whether both components are non-empty after canonicalization
func (c Character) Valid() bool {
	return Slug(c.Name) != "" && Slug(c.Realm) != ""
}
