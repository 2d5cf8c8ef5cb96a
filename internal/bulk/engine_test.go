package bulk

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"crmbulk_backend/internal/poool"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/apperr"
)

func companyUpdateFixture() (map[string]string, []spreadsheet.Row) {
	mapping := map[string]string{
		"id":                     "ID",
		"name":                   "Firma",
		"customer_number_client": "KdNr",
		"supplier_number":        "LfNr",
	}
	rows := []spreadsheet.Row{
		{"ID": "7", "Firma": "Acme GmbH", "KdNr": "K-100", "LfNr": "S-300"},
	}
	return mapping, rows
}

func TestUpdateCompaniesDryRunWritesNothing(t *testing.T) {
	crm := newFakeCRM()
	crm.companies[7] = poool.Entity{"id": float64(7), "name": "Acme GmbH"}
	engine := testEngine(crm)
	mapping, rows := companyUpdateFixture()

	report, err := engine.UpdateCompanies(context.Background(), rows, mapping, nil, "id", true)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}

	if crm.writes() != 0 {
		t.Fatalf("dry run performed %d writes", crm.writes())
	}
	if len(report.Successful) != 1 || len(report.Failed) != 0 {
		t.Fatalf("report = %d ok / %d failed", len(report.Successful), len(report.Failed))
	}
	want := []string{"company", "client", "supplier"}
	if !reflect.DeepEqual(report.Successful[0].EndpointsUpdated, want) {
		t.Fatalf("endpoints = %v, want %v", report.Successful[0].EndpointsUpdated, want)
	}
}

func TestUpdateCompaniesDryRunMatchesRealEndpoints(t *testing.T) {
	mapping, rows := companyUpdateFixture()

	dryCRM := newFakeCRM()
	dryCRM.companies[7] = poool.Entity{"id": float64(7)}
	dryReport, err := testEngine(dryCRM).UpdateCompanies(context.Background(), rows, mapping, nil, "id", true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	realCRM := newFakeCRM()
	realCRM.companies[7] = poool.Entity{"id": float64(7)}
	realReport, err := testEngine(realCRM).UpdateCompanies(context.Background(), rows, mapping, nil, "id", false)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}

	if !reflect.DeepEqual(dryReport.Successful[0].EndpointsUpdated, realReport.Successful[0].EndpointsUpdated) {
		t.Fatalf("dry endpoints %v != real endpoints %v",
			dryReport.Successful[0].EndpointsUpdated, realReport.Successful[0].EndpointsUpdated)
	}
	if !reflect.DeepEqual(dryReport.Successful[0].Fields, realReport.Successful[0].Fields) {
		t.Fatalf("dry fields %v != real fields %v",
			dryReport.Successful[0].Fields, realReport.Successful[0].Fields)
	}
	if realCRM.updateCompanyCalls != 1 || realCRM.updateClientCalls != 1 || realCRM.updateSupplierCall != 1 {
		t.Fatalf("real run writes: company=%d client=%d supplier=%d",
			realCRM.updateCompanyCalls, realCRM.updateClientCalls, realCRM.updateSupplierCall)
	}
}

func TestUpdateCompaniesContinuesAfterFailedRow(t *testing.T) {
	crm := newFakeCRM()
	crm.companies[1] = poool.Entity{"id": float64(1)}
	crm.companies[3] = poool.Entity{"id": float64(3)}
	engine := testEngine(crm)

	mapping := map[string]string{"id": "ID", "name": "Firma"}
	rows := []spreadsheet.Row{
		{"ID": "1", "Firma": "Eins"},
		{"ID": "abc", "Firma": "Kaputt"},
		{"ID": "3", "Firma": "Drei"},
	}

	report, err := engine.UpdateCompanies(context.Background(), rows, mapping, nil, "id", false)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}

	if len(report.Successful) != 2 || len(report.Failed) != 1 {
		t.Fatalf("report = %d ok / %d failed, want 2/1", len(report.Successful), len(report.Failed))
	}
	if report.Failed[0].Row != 2 {
		t.Fatalf("failed row = %d, want 2", report.Failed[0].Row)
	}
	if crm.updateCompanyCalls != 2 {
		t.Fatalf("updateCompanyCalls = %d, rows after a failure must still be processed", crm.updateCompanyCalls)
	}
}

func TestUpdateCompaniesUnknownIDWritesNothing(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)
	mapping, _ := companyUpdateFixture()
	rows := []spreadsheet.Row{{"ID": "42", "Firma": "Ghost"}}

	report, err := engine.UpdateCompanies(context.Background(), rows, mapping, nil, "id", false)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}

	if len(report.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(report.Failed))
	}
	if !strings.Contains(report.Failed[0].Error, "42") {
		t.Fatalf("error = %q, must name the missing ID", report.Failed[0].Error)
	}
	if crm.writes() != 0 {
		t.Fatalf("unmatched row performed %d writes", crm.writes())
	}
}

func TestUpdateCompaniesActivatesMissingClientRelationship(t *testing.T) {
	crm := newFakeCRM()
	crm.companies[7] = poool.Entity{"id": float64(7)}
	crm.updateClientErr = apperr.NotFound("Client not found")
	crm.ranges = []poool.NumberRange{
		{ID: 11, Type: "client", IsDefault: true},
		{ID: 12, Type: "supplier", IsDefault: true},
		{ID: 13, Type: "client", IsDefault: false},
	}
	engine := testEngine(crm)

	mapping := map[string]string{"id": "ID", "customer_number_client": "KdNr"}
	rows := []spreadsheet.Row{{"ID": "7", "KdNr": "K-100"}}

	report, err := engine.UpdateCompanies(context.Background(), rows, mapping, nil, "id", false)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}

	if len(report.Successful) != 1 {
		t.Fatalf("report = %+v, want a successful activation", report)
	}
	if crm.createClientCalls != 1 {
		t.Fatalf("createClientCalls = %d, want 1", crm.createClientCalls)
	}
	if crm.lastClientRangeID != 11 {
		t.Fatalf("number range = %d, want the default client range 11", crm.lastClientRangeID)
	}
}

func TestUpdateCompaniesMissingIdentifierColumn(t *testing.T) {
	engine := testEngine(newFakeCRM())
	rows := []spreadsheet.Row{{"Firma": "Acme"}}

	report, err := engine.UpdateCompanies(context.Background(), rows,
		map[string]string{"name": "Firma"}, nil, "id", false)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}
	if len(report.Failed) != 1 || !strings.Contains(report.Failed[0].Error, `Identifier field "id"`) {
		t.Fatalf("report = %+v", report)
	}
}

func TestImportCompaniesRequiredName(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)

	mapping := map[string]string{"name": "Firma", "is_client": "Kunde"}
	rows := []spreadsheet.Row{
		{"Firma": "Acme GmbH", "Kunde": "ja"},
		{"Firma": "   ", "Kunde": ""},
	}

	report, err := engine.ImportCompanies(context.Background(), rows, mapping, nil, false)
	if err != nil {
		t.Fatalf("ImportCompanies: %v", err)
	}

	if len(report.Successful) != 1 || len(report.Failed) != 1 {
		t.Fatalf("report = %d ok / %d failed, want 1/1", len(report.Successful), len(report.Failed))
	}
	if report.Failed[0].Error != "Missing required field: name" {
		t.Fatalf("error = %q", report.Failed[0].Error)
	}
	if crm.createCompanyCalls != 1 {
		t.Fatalf("createCompanyCalls = %d, want 1", crm.createCompanyCalls)
	}
	if got := crm.createdCompanies[0]["is_client"]; got != true {
		t.Fatalf("is_client = %v, want true", got)
	}
}

func TestImportCompaniesDryRunValidatesWithoutWrites(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)

	mapping := map[string]string{"name": "Firma"}
	rows := []spreadsheet.Row{{"Firma": "Acme GmbH"}, {"Firma": ""}}

	report, err := engine.ImportCompanies(context.Background(), rows, mapping, nil, true)
	if err != nil {
		t.Fatalf("ImportCompanies: %v", err)
	}

	if crm.createCompanyCalls != 0 {
		t.Fatalf("dry run created %d companies", crm.createCompanyCalls)
	}
	if len(report.Successful) != 1 || len(report.Failed) != 1 {
		t.Fatalf("dry-run report = %d ok / %d failed, want same shape as a real run", len(report.Successful), len(report.Failed))
	}
}

func TestImportPersonsRequiredNames(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)

	mapping := map[string]string{"firstname": "Vorname", "lastname": "Nachname"}
	rows := []spreadsheet.Row{
		{"Vorname": "Eva", "Nachname": "Muster"},
		{"Vorname": "Max", "Nachname": ""},
	}

	report, err := engine.ImportPersons(context.Background(), rows, mapping, nil, false)
	if err != nil {
		t.Fatalf("ImportPersons: %v", err)
	}

	if len(report.Successful) != 1 || len(report.Failed) != 1 {
		t.Fatalf("report = %d ok / %d failed, want 1/1", len(report.Successful), len(report.Failed))
	}
	if !strings.Contains(report.Failed[0].Error, "firstname and/or lastname") {
		t.Fatalf("error = %q", report.Failed[0].Error)
	}
}

func TestUpdatePersonsDryRunListsFields(t *testing.T) {
	crm := newFakeCRM()
	crm.persons[5] = poool.Entity{"id": float64(5), "firstname": "Eva", "lastname": "Muster"}
	engine := testEngine(crm)

	mapping := map[string]string{"id": "ID", "position": "Position"}
	rows := []spreadsheet.Row{{"ID": "5", "Position": "CTO"}}

	report, err := engine.UpdatePersons(context.Background(), rows, mapping, nil, "id", true)
	if err != nil {
		t.Fatalf("UpdatePersons: %v", err)
	}

	if crm.updatePersonCalls != 0 {
		t.Fatal("dry run must not update persons")
	}
	fields := report.Successful[0].Fields["person"]
	if !reflect.DeepEqual(fields, []string{"id", "position"}) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestUpdatePersonsDryRunMatchesRealEndpoints(t *testing.T) {
	mapping := map[string]string{"id": "ID", "position": "Position"}
	rows := []spreadsheet.Row{{"ID": "5", "Position": "CTO"}}

	dryCRM := newFakeCRM()
	dryCRM.persons[5] = poool.Entity{"id": float64(5)}
	dryReport, err := testEngine(dryCRM).UpdatePersons(context.Background(), rows, mapping, nil, "id", true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	realCRM := newFakeCRM()
	realCRM.persons[5] = poool.Entity{"id": float64(5)}
	realReport, err := testEngine(realCRM).UpdatePersons(context.Background(), rows, mapping, nil, "id", false)
	if err != nil {
		t.Fatalf("real run: %v", err)
	}

	if !reflect.DeepEqual(dryReport.Successful[0].EndpointsUpdated, realReport.Successful[0].EndpointsUpdated) {
		t.Fatalf("dry endpoints %v != real endpoints %v",
			dryReport.Successful[0].EndpointsUpdated, realReport.Successful[0].EndpointsUpdated)
	}
	if !reflect.DeepEqual(dryReport.Successful[0].EndpointsUpdated, []string{"person"}) {
		t.Fatalf("endpoints = %v, want [person]", dryReport.Successful[0].EndpointsUpdated)
	}
	if dryCRM.writes() != 0 {
		t.Fatalf("dry run performed %d writes", dryCRM.writes())
	}
}

func TestUpdateCompaniesResolvesTagsIntoCompanyPayload(t *testing.T) {
	crm := newFakeCRM()
	crm.companies[7] = poool.Entity{"id": float64(7)}
	crm.tags = map[string]int{"VIP": 5, "vip": 5}
	engine := testEngine(crm)

	mapping := map[string]string{"id": "ID"}
	tagMappings := map[string]string{"Tags": TagFormatCommaSeparated}
	rows := []spreadsheet.Row{{"ID": "7", "Tags": "VIP"}}

	report, err := engine.UpdateCompanies(context.Background(), rows, mapping, tagMappings, "id", false)
	if err != nil {
		t.Fatalf("UpdateCompanies: %v", err)
	}

	if len(report.Successful) != 1 {
		t.Fatalf("report = %+v, want one successful row", report)
	}
	if !reflect.DeepEqual(report.Successful[0].EndpointsUpdated, []string{"company"}) {
		t.Fatalf("endpoints = %v, want [company]", report.Successful[0].EndpointsUpdated)
	}
	if !reflect.DeepEqual(report.Successful[0].Fields["company"], []string{"id", "tags"}) {
		t.Fatalf("company fields = %v, want the resolved tags alongside id", report.Successful[0].Fields["company"])
	}
	if crm.updateCompanyCalls != 1 {
		t.Fatalf("updateCompanyCalls = %d, want 1", crm.updateCompanyCalls)
	}

	dryCRM := newFakeCRM()
	dryCRM.companies[7] = poool.Entity{"id": float64(7)}
	dryCRM.tags = map[string]int{"VIP": 5, "vip": 5}
	dryReport, err := testEngine(dryCRM).UpdateCompanies(context.Background(), rows, mapping, tagMappings, "id", true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !reflect.DeepEqual(dryReport.Successful[0].EndpointsUpdated, report.Successful[0].EndpointsUpdated) {
		t.Fatalf("dry endpoints %v != real endpoints %v",
			dryReport.Successful[0].EndpointsUpdated, report.Successful[0].EndpointsUpdated)
	}
	if dryCRM.writes() != 0 {
		t.Fatalf("dry run performed %d writes", dryCRM.writes())
	}
}

func TestUpdatePersonsResolvesTags(t *testing.T) {
	crm := newFakeCRM()
	crm.persons[5] = poool.Entity{"id": float64(5)}
	crm.tags = map[string]int{"Newsletter": 9, "newsletter": 9}
	engine := testEngine(crm)

	mapping := map[string]string{"id": "ID", "position": "Position"}
	tagMappings := map[string]string{"Tag": TagFormatSingleTag}
	rows := []spreadsheet.Row{{"ID": "5", "Position": "CTO", "Tag": "Newsletter"}}

	report, err := engine.UpdatePersons(context.Background(), rows, mapping, tagMappings, "id", false)
	if err != nil {
		t.Fatalf("UpdatePersons: %v", err)
	}

	if len(report.Successful) != 1 {
		t.Fatalf("report = %+v, want one successful row", report)
	}
	want := []string{"id", "position", "tags"}
	if !reflect.DeepEqual(report.Successful[0].Fields["person"], want) {
		t.Fatalf("person fields = %v, want %v", report.Successful[0].Fields["person"], want)
	}
	if crm.updatePersonCalls != 1 {
		t.Fatalf("updatePersonCalls = %d, want 1", crm.updatePersonCalls)
	}
}

func TestImportCompaniesInvalidRowCreatesNoTags(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)

	mapping := map[string]string{"name": "Firma"}
	tagMappings := map[string]string{"Tag_Neu": TagFormatOneHot}
	rows := []spreadsheet.Row{{"Firma": "", "Tag_Neu": "1"}}

	report, err := engine.ImportCompanies(context.Background(), rows, mapping, tagMappings, false)
	if err != nil {
		t.Fatalf("ImportCompanies: %v", err)
	}

	if len(report.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(report.Failed))
	}
	if crm.createTagCalls != 0 {
		t.Fatalf("createTagCalls = %d, a row failing validation must not create tags", crm.createTagCalls)
	}
}

func TestRunCancelledBetweenRows(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.ImportCompanies(ctx, []spreadsheet.Row{{"Firma": "Acme"}},
		map[string]string{"name": "Firma"}, nil, false)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if crm.createCompanyCalls != 0 {
		t.Fatal("cancelled run must not write")
	}
	if report == nil {
		t.Fatal("partial report must still be returned")
	}
}

func TestFailuresCSV(t *testing.T) {
	failed := []RowFailure{
		{Row: 2, Error: "Missing required field: name", Data: map[string]string{"Firma": "", "Stadt": "Wien"}},
	}

	data, err := FailuresCSV(failed, []string{"Firma", "Stadt"})
	if err != nil {
		t.Fatalf("FailuresCSV: %v", err)
	}

	got := string(data)
	if !strings.HasPrefix(got, "row,error,Firma,Stadt\n") {
		t.Fatalf("header = %q", got)
	}
	if !strings.Contains(got, "2,Missing required field: name,,Wien") {
		t.Fatalf("csv = %q", got)
	}
}
