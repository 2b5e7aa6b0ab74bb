package memory

import _ "embed"

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultSeed returns the bundled demo catalog.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultCatalog)
}
