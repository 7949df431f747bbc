package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"tastebud/pkg/model"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
	maxPage      = 1_000_000
)

// pagination is the list envelope shared by the user list routes.
type pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newPagination(total int64, p model.Page) pagination {
	return pagination{
		Total:      total,
		Page:       p.Number,
		Limit:      p.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// pageFrom reads page and limit query parameters. Missing or non-positive
// values fall back to defaults; page and limit are capped at maxPage and
// maxLimit.
func pageFrom(r *http.Request) model.Page {
	q := r.URL.Query()
	p := model.Page{
		Number: positiveInt(q.Get("page"), defaultPage),
		Limit:  positiveInt(q.Get("limit"), defaultLimit),
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Number > maxPage {
		p.Number = maxPage
	}
	return p
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// isUUID accepts only the canonical 8-4-4-4-12 form.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// targetUser returns the {id} path value when it is a UUID, else the caller.
func targetUser(r *http.Request) string {
	if id := r.PathValue("id"); isUUID(id) {
		return id
	}
	return caller(r).ID
}
