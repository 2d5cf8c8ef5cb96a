// Package bulk implements the reconciliation engine: matching spreadsheet
// rows against existing CRM records, preparing endpoint payloads and running
// imports and updates row by row. A run is request-scoped; all remote state
// caches live in a RunContext that is built per run and passed explicitly.
package bulk

import (
	"context"

	"crmbulk_backend/internal/poool"
)

// CRM is the remote client surface the engine depends on. *poool.Client
// implements it; tests substitute a fake.
type CRM interface {
	TestConnection(ctx context.Context) error

	CreateCompany(ctx context.Context, fields map[string]interface{}) (poool.Entity, error)
	GetCompanyByID(ctx context.Context, id int) (poool.Entity, error)
	SearchCompaniesByField(ctx context.Context, field, value string) ([]poool.Entity, error)
	UpdateCompany(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error)
	LookupCompanyByName(ctx context.Context, name string) (int, string, error)

	CreatePerson(ctx context.Context, fields map[string]interface{}) (poool.Entity, error)
	GetPersonByID(ctx context.Context, id int) (poool.Entity, error)
	SearchPersonsByField(ctx context.Context, field, value string) ([]poool.Entity, error)
	UpdatePerson(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error)

	UpdateClient(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error)
	UpdateSupplier(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error)
	CreateClient(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (poool.Entity, error)
	CreateSupplier(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (poool.Entity, error)
	GetNumberRanges(ctx context.Context) ([]poool.NumberRange, error)

	GetAllTags(ctx context.Context) (map[string]int, error)
	CreateTagIfMissing(ctx context.Context, name, color, colorBackground string) (int, error)

	GetAllCountries(ctx context.Context) (map[string]int, error)
	CreateCountry(ctx context.Context, name string) (*poool.Country, error)
}

var _ CRM = (*poool.Client)(nil)
