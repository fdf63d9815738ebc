package httpapi

import (
	"net/http"

	"github.com/tinoosan/billing/internal/dictionary"
)

// GET /v1/dictionary/categories
func (s *Server) getCategoriesDictionary(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, struct {
		Items []dictionary.CategoryDef `json:"items"`
	}{Items: dictionary.Categories()})
}
