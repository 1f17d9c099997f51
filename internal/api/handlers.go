package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/casting"
)

type apiError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, merry.HTTPCode(err), apiError{Detail: err.Error()})
}

// GET /lookup/{casting}
func (h *handler) lookup(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.GetCasting(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /castings?page=1&limit=50
func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", casting.DefaultPage)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", casting.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.store.ListCastings(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /search?q=
func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, ok := q["q"]; !ok {
		writeError(w, casting.ErrInvalidParameter.Here().WithMessage("query parameter q is required"))
		return
	}
	res, err := h.store.SearchCastings(r.Context(), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, casting.ErrInvalidParameter.Here().WithMessagef("%s must be an integer, got %q", name, s)
	}
	return v, nil
}
