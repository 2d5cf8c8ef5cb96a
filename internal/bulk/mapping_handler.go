package bulk

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/mappings"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type exportMappingsRequest struct {
	FieldMapping      map[string]string `json:"field_mapping" validate:"required"`
	FinalTagMappings  map[string]string `json:"final_tag_mappings"`
	ManualTagMappings map[string]string `json:"manual_tag_mappings"`
}

type importMappingsRequest struct {
	Data    json.RawMessage `json:"data" validate:"required"`
	Columns []string        `json:"columns" validate:"required"`
}

type validateMappingsRequest struct {
	Columns      []string            `json:"columns" validate:"required"`
	Rows         []map[string]string `json:"rows"`
	FieldMapping map[string]string   `json:"field_mapping" validate:"required"`
	Kind         string              `json:"kind" validate:"required,oneof=company person"`
}

// HandleExportMappings renders a mapping configuration as a downloadable
// JSON document.
func (h *Handler) HandleExportMappings(c *gin.Context) {
	var req exportMappingsRequest
	if !h.bind(c, &req) {
		return
	}
	data, err := mappings.Export(mappings.Config{
		FieldMapping:      req.FieldMapping,
		FinalTagMappings:  req.FinalTagMappings,
		ManualTagMappings: req.ManualTagMappings,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="field_mapping.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// HandleImportMappings parses an uploaded mapping JSON against the current
// file's columns.
func (h *Handler) HandleImportMappings(c *gin.Context) {
	var req importMappingsRequest
	if !h.bind(c, &req) {
		return
	}
	cfg, messages, err := mappings.Import(req.Data, req.Columns)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"config": cfg, "messages": messages})
}

// HandleValidateMappings checks a field mapping against the uploaded table
// before a run.
func (h *Handler) HandleValidateMappings(c *gin.Context) {
	var req validateMappingsRequest
	if !h.bind(c, &req) {
		return
	}
	table := &spreadsheet.Table{Columns: req.Columns, Rows: toRows(req.Rows)}
	ok, messages := mappings.Validate(table, req.FieldMapping, fields.EntityKind(req.Kind))
	httpkit.OK(c, gin.H{"valid": ok, "messages": messages})
}

// HandleParseFile parses a multipart CSV or XLSX upload into rows and runs
// tag column detection on the result.
func (h *Handler) HandleParseFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file upload", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read upload", err.Error())
		return
	}
	defer func() {
		_ = file.Close()
	}()

	var table *spreadsheet.Table
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		table, err = spreadsheet.ReadCSV(file)
	case ".xlsx", ".xlsm":
		table, err = spreadsheet.ReadXLSX(file)
	default:
		httpkit.Error(c, http.StatusBadRequest, "unsupported file type, expected .csv or .xlsx", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"columns":              table.Columns,
		"rows":                 table.Rows,
		"detected_tag_columns": DetectTagColumns(table),
	})
}

// HandleListFields returns the mappable field catalog for the UI: required
// and optional fields plus their labels.
func (h *Handler) HandleListFields(c *gin.Context) {
	switch c.Param("kind") {
	case "companies":
		httpkit.OK(c, gin.H{
			"required": fields.RequiredCompanyFields(),
			"optional": fields.OptionalCompanyFields(),
			"labels":   fields.CompanyFieldLabels(),
		})
	case "persons":
		httpkit.OK(c, gin.H{
			"required": fields.RequiredPersonFields(),
			"optional": fields.OptionalPersonFields(),
			"labels":   fields.PersonFieldLabels(),
		})
	default:
		httpkit.Error(c, http.StatusNotFound, "unknown field catalog", nil)
	}
}
