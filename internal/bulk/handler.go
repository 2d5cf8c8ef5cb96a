package bulk

import (
	"net/http"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/poool"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/config"
	"crmbulk_backend/platform/httpkit"
	"crmbulk_backend/platform/logger"
	"crmbulk_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the bulk operations over HTTP. CRM credentials arrive per
// request via headers and are forwarded to a client built for that request;
// nothing is persisted server-side between requests.
type Handler struct {
	cfg *config.Config
	log *logger.Logger
	val *validator.Validator
}

// NewHandler creates the bulk handler.
func NewHandler(cfg *config.Config, log *logger.Logger, val *validator.Validator) *Handler {
	return &Handler{cfg: cfg, log: log, val: val}
}

// clientFrom builds a CRM client from the credentials the middleware stored
// on the request context, falling back to the configured defaults for the
// environment selection.
func (h *Handler) clientFrom(c *gin.Context) *poool.Client {
	env := c.GetString(httpkit.ContextEnvKey)
	if env == "" {
		env = string(h.cfg.PooolEnv)
	}
	customURL := c.GetString(httpkit.ContextCustomURLKey)
	if customURL == "" {
		customURL = h.cfg.PooolCustomURL
	}

	return poool.NewClient(poool.Options{
		APIKey:         c.GetString(httpkit.ContextAPIKeyKey),
		Environment:    env,
		CustomURL:      customURL,
		Timeout:        h.cfg.PooolTimeout,
		ConnectTimeout: h.cfg.PooolConnectTimeout,
		RateLimit:      h.cfg.PooolRateLimit,
	}, h.requestLog(c))
}

func (h *Handler) engineFrom(c *gin.Context) *Engine {
	return NewEngine(h.clientFrom(c), h.requestLog(c))
}

func (h *Handler) requestLog(c *gin.Context) *logger.Logger {
	if requestID := c.GetString(string(logger.RequestIDKey)); requestID != "" {
		return h.log.WithRequestID(requestID)
	}
	return h.log
}

type importRequest struct {
	Rows         []map[string]string `json:"rows" validate:"required,min=1"`
	FieldMapping map[string]string   `json:"field_mapping" validate:"required"`
	TagMappings  map[string]string   `json:"tag_mappings"`
	DryRun       bool                `json:"dry_run"`
}

type updateRequest struct {
	Rows            []map[string]string `json:"rows" validate:"required,min=1"`
	FieldMapping    map[string]string   `json:"field_mapping" validate:"required"`
	TagMappings     map[string]string   `json:"tag_mappings"`
	IdentifierField string              `json:"identifier_field" validate:"required"`
	DryRun          bool                `json:"dry_run"`
}

type previewRequest struct {
	Rows            []map[string]string `json:"rows" validate:"required,min=1"`
	FieldMapping    map[string]string   `json:"field_mapping" validate:"required"`
	IdentifierField string              `json:"identifier_field" validate:"required"`
	Limit           int                 `json:"limit"`
}

type failuresCSVRequest struct {
	Failed  []RowFailure `json:"failed" validate:"required,min=1"`
	Columns []string     `json:"columns"`
}

// HandleTestConnection validates the forwarded credentials with a
// lightweight CRM call.
func (h *Handler) HandleTestConnection(c *gin.Context) {
	if err := h.clientFrom(c).TestConnection(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

// HandleImportCompanies runs a company import over the posted rows.
func (h *Handler) HandleImportCompanies(c *gin.Context) {
	req, ok := h.bindImport(c)
	if !ok {
		return
	}
	report, err := h.engineFrom(c).ImportCompanies(c.Request.Context(), toRows(req.Rows), req.FieldMapping, req.TagMappings, req.DryRun)
	h.respondReport(c, report, err)
}

// HandleImportPersons runs a person import over the posted rows.
func (h *Handler) HandleImportPersons(c *gin.Context) {
	req, ok := h.bindImport(c)
	if !ok {
		return
	}
	report, err := h.engineFrom(c).ImportPersons(c.Request.Context(), toRows(req.Rows), req.FieldMapping, req.TagMappings, req.DryRun)
	h.respondReport(c, report, err)
}

// HandleUpdateCompanies runs a company update (or its dry run).
func (h *Handler) HandleUpdateCompanies(c *gin.Context) {
	req, ok := h.bindUpdate(c)
	if !ok {
		return
	}
	report, err := h.engineFrom(c).UpdateCompanies(c.Request.Context(), toRows(req.Rows), req.FieldMapping, req.TagMappings, req.IdentifierField, req.DryRun)
	h.respondReport(c, report, err)
}

// HandleUpdatePersons runs a person update (or its dry run).
func (h *Handler) HandleUpdatePersons(c *gin.Context) {
	req, ok := h.bindUpdate(c)
	if !ok {
		return
	}
	report, err := h.engineFrom(c).UpdatePersons(c.Request.Context(), toRows(req.Rows), req.FieldMapping, req.TagMappings, req.IdentifierField, req.DryRun)
	h.respondReport(c, report, err)
}

// HandlePreviewCompanies previews how update rows would match companies.
func (h *Handler) HandlePreviewCompanies(c *gin.Context) {
	h.handlePreview(c, fields.KindCompany)
}

// HandlePreviewPersons previews how update rows would match persons.
func (h *Handler) HandlePreviewPersons(c *gin.Context) {
	h.handlePreview(c, fields.KindPerson)
}

func (h *Handler) handlePreview(c *gin.Context, kind fields.EntityKind) {
	var req previewRequest
	if !h.bind(c, &req) {
		return
	}
	// Requests without an explicit limit get the configured one.
	limit := req.Limit
	if limit <= 0 {
		limit = h.cfg.PreviewLimit
	}
	previews, err := h.engineFrom(c).PreviewMatches(c.Request.Context(), kind, toRows(req.Rows), req.FieldMapping, req.IdentifierField, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"previews": previews})
}

// HandleFailuresCSV renders failed rows from a finished run as a CSV
// download.
func (h *Handler) HandleFailuresCSV(c *gin.Context) {
	var req failuresCSVRequest
	if !h.bind(c, &req) {
		return
	}
	data, err := FailuresCSV(req.Failed, req.Columns)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="failed_rows.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) bindImport(c *gin.Context) (*importRequest, bool) {
	var req importRequest
	if !h.bind(c, &req) {
		return nil, false
	}
	return &req, true
}

func (h *Handler) bindUpdate(c *gin.Context) (*updateRequest, bool) {
	var req updateRequest
	if !h.bind(c, &req) {
		return nil, false
	}
	return &req, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondReport(c *gin.Context, report *RunReport, err error) {
	if err != nil {
		// Cancellation mid-run: return what was processed so far alongside
		// the error.
		httpkit.Error(c, http.StatusServiceUnavailable, err.Error(), report)
		return
	}
	httpkit.OK(c, report)
}

func toRows(raw []map[string]string) []spreadsheet.Row {
	rows := make([]spreadsheet.Row, len(raw))
	for i, r := range raw {
		rows[i] = spreadsheet.Row(r)
	}
	return rows
}
