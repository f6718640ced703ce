package slug

import (
	"strings"

	"github.com/google/uuid"
)

// DeriveID returns the version 5 (SHA-1, name-based) UUID of token within namespace.
// The same pair always yields the same identifier.
func DeriveID(namespace uuid.UUID, token string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(token))
}

// Namespace resolves the identifier namespace of a module. A configured id that
// parses as a UUID is used directly; any other non-empty id is hashed into the URL
// namespace; without an id the module token is hashed instead.
func Namespace(moduleID, moduleToken string) uuid.UUID {
	moduleID = strings.TrimSpace(moduleID)
	if moduleID != "" {
		if parsed, err := uuid.Parse(moduleID); err == nil {
			return parsed
		}
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte("modbuilder:id:"+moduleID))
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("modbuilder:module:"+moduleToken))
}

// PreviewNamespace returns a random namespace for renders that have no module
// context, such as a single-file preview. Identifiers derived from it are not stable.
func PreviewNamespace() uuid.UUID {
	return uuid.New()
}
