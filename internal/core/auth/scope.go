package auth

// Capability names a token can grant.
const (
	ScopeTransfer        = "transfer"
	ScopeReadOwnAccounts = "read-own-accounts"

	// scopeWildcard is the on-the-wire marker for "all scopes".
	scopeWildcard = "*"
)

// ScopeGrant is either the wildcard ("everything") or an explicit set of
// scope names. Use AllScopes or Scopes to build one; the zero value
// permits nothing.
type ScopeGrant struct {
	all   bool
	names map[string]struct{}
}

// AllScopes grants every capability. Session tokens from a direct login
// carry this.
func AllScopes() ScopeGrant {
	return ScopeGrant{all: true}
}

// Scopes grants exactly the named capabilities.
func Scopes(names ...string) ScopeGrant {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return ScopeGrant{names: set}
}

// Permits reports whether the grant covers the required scope.
func (g ScopeGrant) Permits(required string) bool {
	if g.all {
		return true
	}
	_, ok := g.names[required]
	return ok
}

// Encode renders the grant as the token's scope list.
func (g ScopeGrant) Encode() []string {
	if g.all {
		return []string{scopeWildcard}
	}
	out := make([]string, 0, len(g.names))
	for n := range g.names {
		out = append(out, n)
	}
	return out
}

// DecodeScopes parses a token's scope list back into a grant.
func DecodeScopes(names []string) ScopeGrant {
	for _, n := range names {
		if n == scopeWildcard {
			return AllScopes()
		}
	}
	return Scopes(names...)
}
