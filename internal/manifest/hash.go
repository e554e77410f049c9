package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DomainManifest is the domain prefix for manifest fingerprints.
// Version suffix enables future algorithm migration.
const DomainManifest = "tern/manifest/v1"

// HashManifest computes the canonical fingerprint of a manifest.
//
// The fingerprint identifies the session's input: the same crate
// graph always hashes the same (crates are in id order, defs in
// declaration order, paths already NFC-normalized), and any declared
// difference changes it. Stored next to the persisted dep graph so a
// graph can be matched back to the inputs that produced it.
func HashManifest(m *Manifest) (string, error) {
	var b strings.Builder

	for _, crate := range m.Crates {
		fmt.Fprintf(&b, "crate\x1f%d\x1f%s\n", crate.ID, crate.Name)
		for _, def := range crate.Defs {
			fmt.Fprintf(&b, "def\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\n",
				def.ID,
				def.Path,
				def.Kind,
				def.Type,
				strings.Join(def.Generics, ","),
				strings.Join(def.Members, ","),
			)
		}
	}

	return hashWithDomain(DomainManifest, []byte(b.String())), nil
}

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
