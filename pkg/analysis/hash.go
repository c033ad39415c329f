package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// ComputeDataHash returns a hex SHA-256 over the issues' content, independent
// of their order in the file. Two loads with the same hash would reconcile to
// the same tree.
func ComputeDataHash(issues []model.Issue) string {
	sorted := slices.Clone(issues)
	slices.SortStableFunc(sorted, func(a, b model.Issue) int {
		return strings.Compare(a.Key(), b.Key())
	})

	h := sha256.New()
	enc := json.NewEncoder(h)
	for i := range sorted {
		if err := enc.Encode(&sorted[i]); err != nil {
			h.Write([]byte(sorted[i].Key()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
