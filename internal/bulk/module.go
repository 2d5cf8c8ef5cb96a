package bulk

import (
	apphttp "crmbulk_backend/internal/http"
	"crmbulk_backend/platform/config"
	"crmbulk_backend/platform/logger"
	"crmbulk_backend/platform/validator"
)

// Module is the bulk bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the bulk module.
func NewModule(cfg *config.Config, log *logger.Logger, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(cfg, log, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bulk"
}

// RegisterRoutes mounts the bulk routes. Everything that talks to the CRM
// sits behind the credentials middleware; parsing, mapping and catalog
// routes work without credentials.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	v1 := ctx.V1

	v1.POST("/files/parse", m.handler.HandleParseFile)
	v1.POST("/mappings/export", m.handler.HandleExportMappings)
	v1.POST("/mappings/import", m.handler.HandleImportMappings)
	v1.POST("/mappings/validate", m.handler.HandleValidateMappings)
	v1.GET("/fields/:kind", m.handler.HandleListFields)
	v1.POST("/reports/failures/csv", m.handler.HandleFailuresCSV)

	crm := v1.Group("", ctx.CredentialsRequired)
	crm.POST("/connection/test", m.handler.HandleTestConnection)
	crm.POST("/imports/companies", m.handler.HandleImportCompanies)
	crm.POST("/imports/persons", m.handler.HandleImportPersons)
	crm.POST("/updates/companies", m.handler.HandleUpdateCompanies)
	crm.POST("/updates/persons", m.handler.HandleUpdatePersons)
	crm.POST("/preview/companies", m.handler.HandlePreviewCompanies)
	crm.POST("/preview/persons", m.handler.HandlePreviewPersons)
}

var _ apphttp.Module = (*Module)(nil)
