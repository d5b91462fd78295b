package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	"github.com/MrJamesThe3rd/benefits/internal/http/render"
	txHandler "github.com/MrJamesThe3rd/benefits/internal/http/transaction"
	"github.com/MrJamesThe3rd/benefits/internal/importer"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type rowErrorResponse struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type importResponse struct {
	Submitted int                          `json:"submitted"`
	Created   int                          `json:"created"`
	Results   []txHandler.BatchRowResponse `json:"results"`
	Skipped   []rowErrorResponse           `json:"skipped"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		render.Fail(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatClaims
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.Fail(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	claims, skipped, err := h.importSvc.Import(r.Context(), format, file)
	if err != nil {
		render.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	params := make([]transaction.CreateParams, len(claims))
	for i, c := range claims {
		params[i] = c.Params
	}

	actor, _ := auth.ActorFrom(r.Context())
	results := h.txSvc.CreateBatch(r.Context(), actor, params)

	resp := importResponse{
		Submitted: len(claims),
		Results:   txHandler.ToBatchResponse(results),
		Skipped:   make([]rowErrorResponse, 0, len(skipped)),
	}

	// Report the file line rather than the batch position.
	for i := range resp.Results {
		resp.Results[i].Row = claims[i].Line
		if results[i].Err == nil {
			resp.Created++
		}
	}

	for _, s := range skipped {
		resp.Skipped = append(resp.Skipped, rowErrorResponse{Line: s.Line, Error: s.Err.Error()})
	}

	render.JSON(w, http.StatusCreated, resp)
}
