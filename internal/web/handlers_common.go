// Package web provides HTTP handlers for the buyer leads application.
// This file contains shared utilities and helper functions used across handlers.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxJSONBody bounds create and update payloads.
const maxJSONBody = 64 * 1024

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseListQuery reads filters, search, sort and paging from the URL.
//
//	?city=Mohali&status=New&search=jane&sort=fullName&dir=asc&page=2&pageSize=20
//
// Sorting by updatedAt defaults to descending, by fullName to ascending.
// Unknown sort fields are passed through so the service can reject them.
func parseListQuery(r *http.Request) core.ListQuery {
	q := r.URL.Query()
	lq := core.ListQuery{
		City:         q.Get("city"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Timeline:     q.Get("timeline"),
		Search:       q.Get("search"),
		Page:         parseIntParam(r, "page", 1),
		PageSize:     parseIntParam(r, "pageSize", 0),
	}
	if lq.Search == "" {
		lq.Search = q.Get("q")
	}

	if field := strings.TrimSpace(q.Get("sort")); field != "" {
		dir := strings.ToLower(strings.TrimSpace(q.Get("dir")))
		lq.Sort = &core.SortSpec{
			Field: field,
			Desc:  dir == "desc" || (dir == "" && field == core.SortUpdatedAt),
		}
	}
	return lq
}

// buyerID parses the {id} route parameter. A malformed id is a validation
// failure, not a 404.
func buyerID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.ValidationErrors{{Field: "id", Value: raw, Message: "must be a valid id"}}
	}
	return id, nil
}

// actor returns the session user. Routes behind RequireActor always have one.
func actor(r *http.Request) (uuid.UUID, error) {
	id, ok := core.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, core.ErrUnauthenticated
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored so
// clients can send back a buyer as they received it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.ValidationErrors{{Field: "body", Message: "is required"}}
		}
		return invalidBody(err)
	}
	return nil
}

// invalidBody reports a body that is not the expected JSON shape.
func invalidBody(err error) error {
	return core.ValidationErrors{{Field: "body", Message: "must be valid JSON: " + err.Error()}}
}
