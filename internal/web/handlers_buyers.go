package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
)

func (s *Server) handleListBuyers(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListBuyers(r.Context(), parseListQuery(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (s *Server) handleGetBuyer(w http.ResponseWriter, r *http.Request) {
	id, err := buyerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.service.GetBuyer(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleBuyerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := buyerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries, err := s.service.BuyerHistory(r.Context(), id, parseIntParam(r, "limit", 0))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleCreateBuyer(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var in core.BuyerFields
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	b, err := s.service.CreateBuyer(WithRequestMetadata(r.Context(), r), user, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/buyers/"+b.ID.String())
	writeJSONStatus(w, http.StatusCreated, b)
}

// updateToken carries the concurrency token from the caller's last read.
type updateToken struct {
	UpdatedAt *time.Time `json:"updatedAt"`
}

// handleUpdateBuyer applies a partial JSON body over the stored buyer.
// Omitted fields keep their value and explicit nulls clear optional ones.
// The merge runs inside the service so the rate gate precedes the read.
func (s *Server) handleUpdateBuyer(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := buyerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		s.fail(w, r, err)
		return
	}
	var token updateToken
	if err := json.Unmarshal(raw, &token); err != nil {
		s.fail(w, r, invalidBody(err))
		return
	}
	if token.UpdatedAt == nil {
		s.fail(w, r, core.ValidationErrors{{Field: "updatedAt", Message: "is required"}})
		return
	}

	res, err := s.service.PatchBuyer(WithRequestMetadata(r.Context(), r), id, user, *token.UpdatedAt,
		func(current core.BuyerFields) (core.BuyerFields, error) {
			if err := json.Unmarshal(raw, &current); err != nil {
				return core.BuyerFields{}, invalidBody(err)
			}
			return current, nil
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleDeleteBuyer(w http.ResponseWriter, r *http.Request) {
	user, err := actor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := buyerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.DeleteBuyer(WithRequestMetadata(r.Context(), r), id, user); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// optionsResponse lists allowed values so clients need not hardcode them.
type optionsResponse struct {
	Enums           map[string][]string `json:"enums"`
	CSVColumns      []string            `json:"csvColumns"`
	RequiredColumns []string            `json:"requiredColumns"`
	MaxImportRows   int                 `json:"maxImportRows"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	enums := make(map[string][]string)
	for _, field := range []string{"city", "propertyType", "bhk", "purpose", "timeline", "source", "status"} {
		enums[field] = core.EnumValues(field)
	}
	writeJSON(w, optionsResponse{
		Enums:           enums,
		CSVColumns:      core.CSVColumns,
		RequiredColumns: core.RequiredCSVColumns,
		MaxImportRows:   s.service.Config().MaxImportRows,
	})
}
