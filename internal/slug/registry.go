package slug

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// Registry records the tokens already handed out in one build. A build owns
// exactly one Registry; it is never shared between builds.
type Registry struct {
	used map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]struct{})}
}

// Reserve registers token, or the first free "token-N" (N = 1, 2, ...) when token
// is taken, and returns the reserved value.
func (r *Registry) Reserve(token string) string {
	candidate := token
	for n := 1; r.Contains(candidate); n++ {
		candidate = token + "-" + strconv.Itoa(n)
	}
	r.add(candidate)
	return candidate
}

// ReserveExplicit registers an authored token. Authored tokens are never
// suffixed: a token already in use is a structural error.
func (r *Registry) ReserveExplicit(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.StructuralError("empty token").Build()
	}
	if r.Contains(token) {
		return errors.StructuralError("duplicate token " + strconv.Quote(token)).
			WithContext("token", token).
			Build()
	}
	r.add(token)
	return nil
}

// Contains reports whether token is already reserved.
func (r *Registry) Contains(token string) bool {
	_, ok := r.used[token]
	return ok
}

// Len returns the number of reserved tokens.
func (r *Registry) Len() int { return len(r.used) }

func (r *Registry) add(token string) {
	r.used[token] = struct{}{}
}
