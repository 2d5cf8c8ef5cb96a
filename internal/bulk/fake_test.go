package bulk

import (
	"context"

	"crmbulk_backend/internal/poool"
	"crmbulk_backend/platform/apperr"
	"crmbulk_backend/platform/logger"
)

// fakeCRM implements CRM in memory and counts every write so tests can
// assert that dry runs never touch the remote side.
type fakeCRM struct {
	companies map[int]poool.Entity
	persons   map[int]poool.Entity

	companySearchResults []poool.Entity
	personSearchResults  []poool.Entity

	tags      map[string]int
	countries map[string]int
	ranges    []poool.NumberRange

	lookupCompanyID      int
	lookupCompanyWarning string

	updateClientErr error

	nextID int

	createdCompanies []map[string]interface{}
	createdPersons   []map[string]interface{}

	companySearchCalls int
	personSearchCalls  int
	getCompanyCalls    int
	getPersonCalls     int
	createCompanyCalls int
	createPersonCalls  int
	updateCompanyCalls int
	updatePersonCalls  int
	updateClientCalls  int
	updateSupplierCall int
	createClientCalls  int
	createSupplierCall int
	createTagCalls     int
	createCountryCalls int

	lastClientRangeID   int
	lastSupplierRangeID int
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		companies: map[int]poool.Entity{},
		persons:   map[int]poool.Entity{},
		tags:      map[string]int{},
		countries: map[string]int{},
		nextID:    1000,
	}
}

func (f *fakeCRM) writes() int {
	return f.createCompanyCalls + f.createPersonCalls +
		f.updateCompanyCalls + f.updatePersonCalls +
		f.updateClientCalls + f.updateSupplierCall +
		f.createClientCalls + f.createSupplierCall +
		f.createTagCalls + f.createCountryCalls
}

func (f *fakeCRM) TestConnection(ctx context.Context) error { return nil }

func (f *fakeCRM) CreateCompany(ctx context.Context, fields map[string]interface{}) (poool.Entity, error) {
	f.createCompanyCalls++
	f.nextID++
	f.createdCompanies = append(f.createdCompanies, fields)
	return poool.Entity{"id": float64(f.nextID)}, nil
}

func (f *fakeCRM) GetCompanyByID(ctx context.Context, id int) (poool.Entity, error) {
	f.getCompanyCalls++
	if entity, ok := f.companies[id]; ok {
		return entity, nil
	}
	return nil, apperr.NotFound("Company not found")
}

func (f *fakeCRM) SearchCompaniesByField(ctx context.Context, field, value string) ([]poool.Entity, error) {
	f.companySearchCalls++
	return f.companySearchResults, nil
}

func (f *fakeCRM) UpdateCompany(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error) {
	f.updateCompanyCalls++
	return poool.Entity{"id": float64(id)}, nil
}

func (f *fakeCRM) LookupCompanyByName(ctx context.Context, name string) (int, string, error) {
	if f.lookupCompanyID == 0 {
		return 0, "", apperr.Newf(apperr.KindNotFound, "No company found with name: %s", name)
	}
	return f.lookupCompanyID, f.lookupCompanyWarning, nil
}

func (f *fakeCRM) CreatePerson(ctx context.Context, fields map[string]interface{}) (poool.Entity, error) {
	f.createPersonCalls++
	f.nextID++
	f.createdPersons = append(f.createdPersons, fields)
	return poool.Entity{"id": float64(f.nextID)}, nil
}

func (f *fakeCRM) GetPersonByID(ctx context.Context, id int) (poool.Entity, error) {
	f.getPersonCalls++
	if entity, ok := f.persons[id]; ok {
		return entity, nil
	}
	return nil, apperr.NotFound("Person not found")
}

func (f *fakeCRM) SearchPersonsByField(ctx context.Context, field, value string) ([]poool.Entity, error) {
	f.personSearchCalls++
	return f.personSearchResults, nil
}

func (f *fakeCRM) UpdatePerson(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error) {
	f.updatePersonCalls++
	return poool.Entity{"id": float64(id)}, nil
}

func (f *fakeCRM) UpdateClient(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error) {
	if f.updateClientErr != nil {
		return nil, f.updateClientErr
	}
	f.updateClientCalls++
	return poool.Entity{"id": float64(id)}, nil
}

func (f *fakeCRM) UpdateSupplier(ctx context.Context, id int, fields map[string]interface{}) (poool.Entity, error) {
	f.updateSupplierCall++
	return poool.Entity{"id": float64(id)}, nil
}

func (f *fakeCRM) CreateClient(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (poool.Entity, error) {
	f.createClientCalls++
	f.lastClientRangeID = numberRangeID
	return poool.Entity{"id": float64(companyID)}, nil
}

func (f *fakeCRM) CreateSupplier(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (poool.Entity, error) {
	f.createSupplierCall++
	f.lastSupplierRangeID = numberRangeID
	return poool.Entity{"id": float64(companyID)}, nil
}

func (f *fakeCRM) GetNumberRanges(ctx context.Context) ([]poool.NumberRange, error) {
	return f.ranges, nil
}

func (f *fakeCRM) GetAllTags(ctx context.Context) (map[string]int, error) {
	tags := make(map[string]int, len(f.tags))
	for name, id := range f.tags {
		tags[name] = id
	}
	return tags, nil
}

func (f *fakeCRM) CreateTagIfMissing(ctx context.Context, name, color, colorBackground string) (int, error) {
	f.createTagCalls++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeCRM) GetAllCountries(ctx context.Context) (map[string]int, error) {
	countries := make(map[string]int, len(f.countries))
	for name, id := range f.countries {
		countries[name] = id
	}
	return countries, nil
}

func (f *fakeCRM) CreateCountry(ctx context.Context, name string) (*poool.Country, error) {
	f.createCountryCalls++
	f.nextID++
	return &poool.Country{ID: f.nextID, Names: []string{name}}, nil
}

var _ CRM = (*fakeCRM)(nil)

func testEngine(crm CRM) *Engine {
	return NewEngine(crm, logger.New("development"))
}
