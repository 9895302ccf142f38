package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docledger/docledger/internal/http/httperr"
	"github.com/docledger/docledger/internal/http/middleware"
	"github.com/docledger/docledger/internal/importer"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc *importer.Service
}

func NewHandler(svc *importer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.importPayments)
}

type importResponse struct {
	Applied   int              `json:"applied"`
	Replayed  int              `json:"replayed"`
	Unmatched int              `json:"unmatched"`
	Failed    int              `json:"failed"`
	Rows      *importer.Report `json:"rows"`
}

func (h *Handler) importPayments(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	report, err := h.svc.Import(r.Context(), actor, file)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := importResponse{
		Applied:   len(report.Applied),
		Replayed:  len(report.Replayed),
		Unmatched: len(report.Unmatched),
		Failed:    len(report.Failed),
		Rows:      report,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
