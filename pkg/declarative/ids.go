package declarative

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// namespaceSeed is expanded once into the UUID v5 namespace every hash_id
// strategy hashes into, via blake2b rather than a hand-picked constant, so
// repeated ingestion of the same rendered fields always produces the same
// node id (upsert, not duplicate).
const namespaceSeed = "plexusgraph.declarative.hash_id.v1"

var (
	namespaceOnce sync.Once
	namespace     uuid.UUID
)

func declarativeNamespace() uuid.UUID {
	namespaceOnce.Do(func() {
		sum := blake2b.Sum256([]byte(namespaceSeed))
		copy(namespace[:], sum[:16])
	})
	return namespace
}

// resolveID renders strategy against ctx: a template strategy renders
// directly, a hash strategy renders every field and hashes the colon-joined
// result into a deterministic UUID v5.
func resolveID(strategy IDStrategy, ctx templateContext) (string, error) {
	if !strategy.isHash() {
		return renderTemplate(strategy.Template, ctx)
	}

	parts := make([]string, len(strategy.Hash))
	for i, tmpl := range strategy.Hash {
		rendered, err := renderTemplate(tmpl, ctx)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return hashID(parts), nil
}

func hashID(parts []string) string {
	return uuid.NewSHA1(declarativeNamespace(), []byte(strings.Join(parts, ":"))).String()
}
