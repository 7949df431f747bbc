package gateway_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"tastebud/pkg/gateway"
	"tastebud/pkg/model"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func baseQuery() model.Query {
	return model.Query{
		Latitude:   40.7128,
		Longitude:  -74.006,
		Radius:     model.DefaultRadius,
		Categories: model.DefaultCategories,
		Sort:       model.DefaultSort,
		Limit:      model.DefaultLimit,
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	q := baseQuery()
	a := gateway.Fingerprint(q)
	b := gateway.Fingerprint(q)

	assert.Equal(t, a, b)
	assert.Regexp(t, hexDigest, a)
}

func TestFingerprint_Discriminates(t *testing.T) {
	base := gateway.Fingerprint(baseQuery())

	tests := []struct {
		name   string
		mutate func(q *model.Query)
	}{
		{"latitude", func(q *model.Query) { q.Latitude = 40.7129 }},
		{"longitude", func(q *model.Query) { q.Longitude = -74.007 }},
		{"radius", func(q *model.Query) { q.Radius = 1000 }},
		{"categories", func(q *model.Query) { q.Categories = "13065" }},
		{"sort", func(q *model.Query) { q.Sort = "rating" }},
		{"limit", func(q *model.Query) { q.Limit = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := baseQuery()
			tt.mutate(&q)
			assert.NotEqual(t, base, gateway.Fingerprint(q))
		})
	}
}

// Two requests that differ only in JSON key order normalize to the same query.
func TestFingerprint_KeyOrderIndependent(t *testing.T) {
	g := gateway.New(nil, nil, nil, nil, gateway.Options{RejectZeroCoordinates: true})

	var r1, r2 model.SearchRequest
	assert.NoError(t, json.Unmarshal([]byte(`{"latitude":40.7128,"longitude":-74.006,"radius":500,"sort":"rating"}`), &r1))
	assert.NoError(t, json.Unmarshal([]byte(`{"sort":"rating","radius":500,"longitude":-74.006,"latitude":40.7128}`), &r2))

	q1, err := g.Normalize(r1)
	assert.NoError(t, err)
	q2, err := g.Normalize(r2)
	assert.NoError(t, err)

	assert.Equal(t, gateway.Fingerprint(q1), gateway.Fingerprint(q2))
}

// Omitted optional fields fingerprint the same as their explicit defaults.
func TestFingerprint_DefaultsApplied(t *testing.T) {
	g := gateway.New(nil, nil, nil, nil, gateway.Options{})
	lat, lon := 40.7128, -74.006
	radius, limit := model.DefaultRadius, model.DefaultLimit
	cats, sort := model.DefaultCategories, model.DefaultSort

	implicit, err := g.Normalize(model.SearchRequest{Latitude: &lat, Longitude: &lon})
	assert.NoError(t, err)
	explicit, err := g.Normalize(model.SearchRequest{
		Latitude: &lat, Longitude: &lon, Radius: &radius, Limit: &limit, Categories: &cats, Sort: &sort,
	})
	assert.NoError(t, err)

	assert.Equal(t, gateway.Fingerprint(implicit), gateway.Fingerprint(explicit))
}
