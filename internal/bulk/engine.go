package bulk

import (
	"context"
	"sort"
	"strings"
	"time"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/apperr"
)

// RowSuccess describes one successfully processed row. For updates,
// EndpointsUpdated lists the endpoints written (or, in a dry run, the
// endpoints that would be written) and Fields lists the field names per
// endpoint. For imports, EntityID is the created record.
type RowSuccess struct {
	Row              int                 `json:"row"`
	EntityID         int                 `json:"entity_id,omitempty"`
	Identifier       string              `json:"identifier,omitempty"`
	EndpointsUpdated []string            `json:"endpoints_updated,omitempty"`
	Fields           map[string][]string `json:"fields,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
}

// RowFailure describes one failed row, carrying the row's non-empty values
// for the failure export. PartialSuccess marks update rows where some
// endpoints were written before another failed.
type RowFailure struct {
	Row            int               `json:"row"`
	Data           map[string]string `json:"data,omitempty"`
	Error          string            `json:"error"`
	PartialSuccess bool              `json:"partial_success,omitempty"`
}

// RunReport is the outcome of one bulk run. A dry run produces a report
// structurally identical to a real one; only DryRun differs and no writes
// happen.
type RunReport struct {
	RunID       string       `json:"run_id"`
	Kind        string       `json:"kind"`
	DryRun      bool         `json:"dry_run"`
	Total       int          `json:"total"`
	Successful  []RowSuccess `json:"successful"`
	Failed      []RowFailure `json:"failed"`
	CreatedTags []string     `json:"created_tags,omitempty"`
}

// ImportCompanies creates one company per row. Rows are processed strictly
// in order, one at a time; a failed row never stops the batch. A dry run
// prepares and validates every row but performs no writes.
func (e *Engine) ImportCompanies(ctx context.Context, rows []spreadsheet.Row, mapping, tagMappings map[string]string, dryRun bool) (*RunReport, error) {
	rc := e.newRunContext(ctx, true, len(tagMappings) > 0)
	report := &RunReport{RunID: rc.RunID, Kind: "import_companies", DryRun: dryRun, Total: len(rows)}
	log := e.log.WithRunID(rc.RunID)
	log.RunStarted(report.Kind, len(rows), dryRun)
	start := time.Now()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, apperr.Wrap(apperr.KindUnavailable, "Run cancelled", err)
		}
		rowNum := i + 1

		routed := fields.Route(row, mapping)
		prepared := e.prepareCompanyData(ctx, mergedCompanyValues(routed), routed.Flags, rc)

		if name, _ := prepared["name"].(string); name == "" {
			report.Failed = append(report.Failed, failure(rowNum, row, "Missing required field: name", false))
			continue
		}

		tagIDs, _, err := e.ResolveRowTags(ctx, row, tagMappings, rc, !dryRun)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		if len(tagIDs) > 0 {
			prepared["tags"] = tagIDs
		}

		if dryRun {
			report.Successful = append(report.Successful, RowSuccess{
				Row:    rowNum,
				Fields: map[string][]string{"company": sortedKeys(prepared)},
			})
			continue
		}

		created, err := e.crm.CreateCompany(ctx, prepared)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		report.Successful = append(report.Successful, RowSuccess{Row: rowNum, EntityID: created.ID()})
	}

	report.CreatedTags = rc.CreatedTags
	log.RunFinished(report.Kind, len(report.Successful), len(report.Failed), dryRun, time.Since(start))
	return report, nil
}

// ImportPersons creates one person per row, resolving a mapped company name
// to a company_id where possible.
func (e *Engine) ImportPersons(ctx context.Context, rows []spreadsheet.Row, mapping, tagMappings map[string]string, dryRun bool) (*RunReport, error) {
	rc := e.newRunContext(ctx, false, len(tagMappings) > 0)
	report := &RunReport{RunID: rc.RunID, Kind: "import_persons", DryRun: dryRun, Total: len(rows)}
	log := e.log.WithRunID(rc.RunID)
	log.RunStarted(report.Kind, len(rows), dryRun)
	start := time.Now()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, apperr.Wrap(apperr.KindUnavailable, "Run cancelled", err)
		}
		rowNum := i + 1

		prepared, warnings := e.preparePersonDataWithCompanyLookup(ctx, row, mapping)

		first, _ := prepared["firstname"].(string)
		last, _ := prepared["lastname"].(string)
		if first == "" || last == "" {
			report.Failed = append(report.Failed, failure(rowNum, row, "Missing required fields: firstname and/or lastname", false))
			continue
		}

		tagIDs, _, err := e.ResolveRowTags(ctx, row, tagMappings, rc, !dryRun)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		if len(tagIDs) > 0 {
			prepared["tags"] = tagIDs
		}

		if dryRun {
			report.Successful = append(report.Successful, RowSuccess{
				Row:      rowNum,
				Fields:   map[string][]string{"person": sortedKeys(prepared)},
				Warnings: warnings,
			})
			continue
		}

		created, err := e.crm.CreatePerson(ctx, prepared)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		report.Successful = append(report.Successful, RowSuccess{Row: rowNum, EntityID: created.ID(), Warnings: warnings})
	}

	report.CreatedTags = rc.CreatedTags
	log.RunFinished(report.Kind, len(report.Successful), len(report.Failed), dryRun, time.Since(start))
	return report, nil
}

// UpdateCompanies matches each row to an existing company and writes the
// routed buckets to the company, client and supplier endpoints. Mapped tag
// columns resolve into the company payload. Endpoint failures are aggregated
// per row; a row with at least one written endpoint and one failure is
// reported as a partial success. When a relationship endpoint reports the
// company is not yet a client or supplier, the relationship is activated with
// the default numbering range instead.
func (e *Engine) UpdateCompanies(ctx context.Context, rows []spreadsheet.Row, mapping, tagMappings map[string]string, identifierField string, dryRun bool) (*RunReport, error) {
	rc := e.newRunContext(ctx, true, len(tagMappings) > 0)
	report := &RunReport{RunID: rc.RunID, Kind: "update_companies", DryRun: dryRun, Total: len(rows)}
	log := e.log.WithRunID(rc.RunID)
	log.RunStarted(report.Kind, len(rows), dryRun)
	start := time.Now()

	identifierColumn := mapping[identifierField]

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, apperr.Wrap(apperr.KindUnavailable, "Run cancelled", err)
		}
		rowNum := i + 1

		value, ok := row.Get(identifierColumn)
		if identifierColumn == "" || !ok {
			report.Failed = append(report.Failed, failure(rowNum, row,
				`Identifier field "`+identifierField+`" not found in row data`, false))
			continue
		}

		companyID, matchWarning, err := e.Match(ctx, fields.KindCompany, identifierField, value)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}

		routed := fields.Route(row, mapping)
		var companyPayload map[string]interface{}
		if routed.HasCompanyData() {
			companyPayload = e.prepareCompanyData(ctx, routed.Company, routed.Flags, rc)
		}
		clientPayload := prepareRelationData(routed.Client)
		supplierPayload := prepareRelationData(routed.Supplier)

		tagIDs, _, err := e.ResolveRowTags(ctx, row, tagMappings, rc, !dryRun)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		if len(tagIDs) > 0 {
			if companyPayload == nil {
				companyPayload = make(map[string]interface{})
			}
			companyPayload["tags"] = tagIDs
		}

		success := RowSuccess{Row: rowNum, EntityID: companyID, Identifier: value, Fields: map[string][]string{}}
		if matchWarning != "" {
			success.Warnings = append(success.Warnings, matchWarning)
		}

		if dryRun {
			if len(companyPayload) > 0 {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "company")
				success.Fields["company"] = sortedKeys(companyPayload)
			}
			if len(clientPayload) > 0 {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "client")
				success.Fields["client"] = sortedKeys(clientPayload)
			}
			if len(supplierPayload) > 0 {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "supplier")
				success.Fields["supplier"] = sortedKeys(supplierPayload)
			}
			report.Successful = append(report.Successful, success)
			continue
		}

		var errs []string
		if len(companyPayload) > 0 {
			if _, err := e.crm.UpdateCompany(ctx, companyID, companyPayload); err != nil {
				errs = append(errs, "Company update failed: "+apperr.UserMessage(err))
			} else {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "company")
				success.Fields["company"] = sortedKeys(companyPayload)
			}
		}
		if len(clientPayload) > 0 {
			if err := e.writeClient(ctx, companyID, clientPayload, rc); err != nil {
				errs = append(errs, "Client update failed: "+apperr.UserMessage(err))
			} else {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "client")
				success.Fields["client"] = sortedKeys(clientPayload)
			}
		}
		if len(supplierPayload) > 0 {
			if err := e.writeSupplier(ctx, companyID, supplierPayload, rc); err != nil {
				errs = append(errs, "Supplier update failed: "+apperr.UserMessage(err))
			} else {
				success.EndpointsUpdated = append(success.EndpointsUpdated, "supplier")
				success.Fields["supplier"] = sortedKeys(supplierPayload)
			}
		}

		if len(errs) > 0 {
			report.Failed = append(report.Failed, failure(rowNum, row,
				strings.Join(errs, "; "), len(success.EndpointsUpdated) > 0))
			continue
		}
		report.Successful = append(report.Successful, success)
	}

	report.CreatedTags = rc.CreatedTags
	log.RunFinished(report.Kind, len(report.Successful), len(report.Failed), dryRun, time.Since(start))
	return report, nil
}

// writeClient updates the client relationship, activating it with the
// default client numbering range when it does not exist yet.
func (e *Engine) writeClient(ctx context.Context, companyID int, payload map[string]interface{}, rc *RunContext) error {
	_, err := e.crm.UpdateClient(ctx, companyID, payload)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	clientRange, _ := e.defaultNumberRanges(ctx, rc)
	_, err = e.crm.CreateClient(ctx, companyID, payload, clientRange)
	return err
}

// writeSupplier mirrors writeClient for the supplier relationship.
func (e *Engine) writeSupplier(ctx context.Context, companyID int, payload map[string]interface{}, rc *RunContext) error {
	_, err := e.crm.UpdateSupplier(ctx, companyID, payload)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	_, supplierRange := e.defaultNumberRanges(ctx, rc)
	_, err = e.crm.CreateSupplier(ctx, companyID, payload, supplierRange)
	return err
}

// UpdatePersons matches each row to an existing person and writes the
// prepared payload, including any resolved tags, to the person endpoint.
func (e *Engine) UpdatePersons(ctx context.Context, rows []spreadsheet.Row, mapping, tagMappings map[string]string, identifierField string, dryRun bool) (*RunReport, error) {
	rc := e.newRunContext(ctx, false, len(tagMappings) > 0)
	report := &RunReport{RunID: rc.RunID, Kind: "update_persons", DryRun: dryRun, Total: len(rows)}
	log := e.log.WithRunID(rc.RunID)
	log.RunStarted(report.Kind, len(rows), dryRun)
	start := time.Now()

	identifierColumn := mapping[identifierField]

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, apperr.Wrap(apperr.KindUnavailable, "Run cancelled", err)
		}
		rowNum := i + 1

		value, ok := row.Get(identifierColumn)
		if identifierColumn == "" || !ok {
			report.Failed = append(report.Failed, failure(rowNum, row,
				`Identifier field "`+identifierField+`" not found in row data`, false))
			continue
		}

		personID, matchWarning, err := e.Match(ctx, fields.KindPerson, identifierField, value)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}

		payload := preparePersonData(row, mapping)

		tagIDs, _, err := e.ResolveRowTags(ctx, row, tagMappings, rc, !dryRun)
		if err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, apperr.UserMessage(err), false))
			continue
		}
		if len(tagIDs) > 0 {
			payload["tags"] = tagIDs
		}

		if len(payload) == 0 {
			report.Failed = append(report.Failed, failure(rowNum, row, "No valid person data to update", false))
			continue
		}

		success := RowSuccess{
			Row:        rowNum,
			EntityID:   personID,
			Identifier: value,
			Fields:     map[string][]string{"person": sortedKeys(payload)},
		}
		if matchWarning != "" {
			success.Warnings = append(success.Warnings, matchWarning)
		}

		if dryRun {
			success.EndpointsUpdated = []string{"person"}
			report.Successful = append(report.Successful, success)
			continue
		}

		if _, err := e.crm.UpdatePerson(ctx, personID, payload); err != nil {
			report.Failed = append(report.Failed, failure(rowNum, row, "Person update failed: "+apperr.UserMessage(err), false))
			continue
		}
		success.EndpointsUpdated = []string{"person"}
		report.Successful = append(report.Successful, success)
	}

	report.CreatedTags = rc.CreatedTags
	log.RunFinished(report.Kind, len(report.Successful), len(report.Failed), dryRun, time.Since(start))
	return report, nil
}

func failure(rowNum int, row spreadsheet.Row, message string, partial bool) RowFailure {
	return RowFailure{Row: rowNum, Data: rowSnapshot(row), Error: message, PartialSuccess: partial}
}

// rowSnapshot keeps the non-empty values of a row for failure reports.
func rowSnapshot(row spreadsheet.Row) map[string]string {
	snapshot := make(map[string]string)
	for column := range row {
		if value, ok := row.Get(column); ok && value != "" {
			snapshot[column] = value
		}
	}
	return snapshot
}

func sortedKeys(payload map[string]interface{}) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
