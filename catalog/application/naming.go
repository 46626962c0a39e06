package application

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Asset filenames follow the grammar
//
//	cat_{ownerId}_{unixMillis}_{random}.{ext}
//
// The owner id is recoverable by parsing, which is what makes bulk
// operations (cleanup on delete, orphan detection) safe: a file is only ever
// touched on behalf of an owner when its name proves the association.
const assetNamePrefix = "cat"

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// NameGenerator derives collision-resistant asset filenames. The clock and
// rng are injectable so tests can pin them; production uses wall-clock time
// plus a random component to survive same-millisecond collisions.
type NameGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

func NewNameGenerator() *NameGenerator {
	return &NameGenerator{now: time.Now, intn: rand.Intn}
}

// Generate builds a new asset name for ownerID from the original filename.
// The extension is preserved verbatim, including its case; a filename with
// no extension produces a name with no extension.
func (g *NameGenerator) Generate(ownerID, originalFilename string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("owner id is empty")
	}
	if !ownerIDPattern.MatchString(ownerID) {
		return "", fmt.Errorf("owner id %q contains unsafe characters", ownerID)
	}

	ext := filepath.Ext(filepath.Base(originalFilename))
	name := fmt.Sprintf("%s_%s_%d_%d", assetNamePrefix, ownerID, g.now().UnixMilli(), g.intn(1000))
	return name + ext, nil
}

// assetNameRegex matches the generated-name grammar with the owner id as a
// capture: cat_{id}_<digits>[_<digits>].{ext}. The random component is
// optional so names generated by the older timestamp-only variant still
// parse.
var assetNameRegex = regexp.MustCompile(`^cat_([A-Za-z0-9-]+)_\d+(?:_\d+)?\.[A-Za-z0-9]+$`)

// IsOwnedBy reports whether the basename of pathOrFilename parses as an
// asset name generated for ownerID. It never returns an error: any argument
// that does not fit the grammar, including empty strings, yields false.
func IsOwnedBy(ownerID, pathOrFilename string) bool {
	if ownerID == "" || pathOrFilename == "" {
		return false
	}
	base := filepath.Base(filepath.FromSlash(pathOrFilename))
	m := assetNameRegex.FindStringSubmatch(base)
	if m == nil {
		return false
	}
	return m[1] == ownerID
}

// OwnerOf extracts the owner id encoded in an asset filename, or "" when the
// name does not fit the grammar. Used by orphan detection to map files back
// to owners without a per-owner scan.
func OwnerOf(pathOrFilename string) string {
	if pathOrFilename == "" {
		return ""
	}
	base := filepath.Base(filepath.FromSlash(pathOrFilename))
	m := assetNameRegex.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}
