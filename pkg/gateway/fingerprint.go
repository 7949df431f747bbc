package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"tastebud/pkg/model"
)

// Fingerprint returns the lowercase hex SHA-256 of q's canonical form:
// a JSON object with lexicographically sorted keys. q must already be
// defaulted.
func Fingerprint(q model.Query) string {
	// encoding/json sorts map keys
	canonical := map[string]any{
		"categories": q.Categories,
		"latitude":   q.Latitude,
		"limit":      q.Limit,
		"longitude":  q.Longitude,
		"radius":     q.Radius,
		"sort":       q.Sort,
	}
	b, err := json.Marshal(canonical)
	if err != nil {
		// Only NaN or Inf can fail here, and normalize rejects both.
		panic("gateway: unencodable query: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
