package bulk

import (
	"context"
	"strconv"
	"strings"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/phone"
)

// defaultAddressTitle is used when no address title is mapped.
const defaultAddressTitle = "Hauptanschrift"

// Contact type IDs of the company contacts endpoint.
const (
	companyContactTypePhone   = 1
	companyContactTypeEmail   = 2
	companyContactTypeWebsite = 6
)

// Contact type IDs of the person contacts array. The person endpoint numbers
// them differently from companies.
const (
	personContactTypeEmail = 1
	personContactTypePhone = 2
)

// stringFlagFields are boolean-like fields the company endpoint expects as
// the strings "1" and "0".
var stringFlagFields = map[string]struct{}{
	"reference_number_required":  {},
	"dunning_blocked":            {},
	"datev_is_client_collection": {},
}

// intFields are day counts the endpoints expect as integers. Non-numeric
// values are dropped rather than failing the row.
var intFields = map[string]struct{}{
	"payment_time_day_num": {},
	"discount_day_num":     {},
}

// prepareCompanyData turns routed wire-named values and relationship flags
// into a company payload: type coercions applied, address and contact values
// folded into sub-objects. Values the coercions cannot parse are dropped.
func (e *Engine) prepareCompanyData(ctx context.Context, values map[string]string, flags map[string]bool, rc *RunContext) map[string]interface{} {
	data := make(map[string]interface{})
	complexFields := make(map[string]string)

	for flag, value := range flags {
		data[flag] = value
	}

	for wire, value := range values {
		switch {
		case isStringFlag(wire):
			data[wire] = boolString(value)
		case isIntField(wire):
			if n, err := strconv.Atoi(value); err == nil && digitsOnly(value) {
				data[wire] = n
			}
		case wire == "discount_percentage":
			if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
				data[wire] = f
			}
		case strings.HasPrefix(wire, "address_") || strings.HasPrefix(wire, "contact_"):
			complexFields[wire] = value
		default:
			data[wire] = value
		}
	}

	if len(complexFields) > 0 {
		e.addComplexFields(ctx, data, complexFields, rc)
	}

	return data
}

func isStringFlag(field string) bool {
	_, ok := stringFlagFields[field]
	return ok
}

func isIntField(field string) bool {
	_, ok := intFields[field]
	return ok
}

// digitsOnly reports whether s is a non-empty unsigned digit string. Day
// counts with a sign prefix are dropped like any other non-numeric value.
func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// boolString renders a truthy cell as "1" and a falsy one as "0". Anything
// non-empty that is not a recognized negative counts as true.
func boolString(value string) string {
	switch strings.ToLower(value) {
	case "false", "0", "no":
		return "0"
	default:
		return "1"
	}
}

// addComplexFields folds address_* and contact_* values into the addresses
// and contacts arrays of a company payload.
func (e *Engine) addComplexFields(ctx context.Context, data map[string]interface{}, complexFields map[string]string, rc *RunContext) {
	address := map[string]interface{}{}
	for field, key := range map[string]string{
		"address_street":       "street_name",
		"address_house_number": "street_number",
		"address_zip":          "zip",
		"address_city":         "location",
	} {
		if value := complexFields[field]; value != "" {
			address[key] = value
		}
	}
	if len(address) > 0 {
		address["is_preferred"] = true
		address["pos"] = 1
		title := complexFields["address_title"]
		if title == "" {
			title = defaultAddressTitle
		}
		address["title"] = title

		if country := complexFields["address_country"]; country != "" {
			if id := e.lookupOrCreateCountry(ctx, country, rc); id > 0 {
				address["country_id"] = id
			}
		}

		data["addresses"] = []map[string]interface{}{address}
	}

	var contacts []map[string]interface{}
	pos := 1
	addContact := func(field string, typeID int, title string, preferred bool, normalize func(string) string) {
		value, ok := complexFields[field]
		if !ok {
			return
		}
		if normalize != nil {
			value = normalize(value)
		}
		contacts = append(contacts, map[string]interface{}{
			"contact_type_id": typeID,
			"value":           value,
			"title":           title,
			"is_preferred":    preferred,
			"pos":             pos,
		})
		pos++
	}
	addContact("contact_phone", companyContactTypePhone, "Phone", true, phone.NormalizeE164)
	addContact("contact_email", companyContactTypeEmail, "Email", true, nil)
	addContact("contact_website", companyContactTypeWebsite, "Website", false, nil)
	if len(contacts) > 0 {
		data["contacts"] = contacts
	}
}

// prepareRelationData applies the client/supplier endpoint type coercions to
// a routed bucket of wire-named string values.
func prepareRelationData(values map[string]string) map[string]interface{} {
	data := make(map[string]interface{}, len(values))
	for wire, value := range values {
		switch {
		case isIntField(wire):
			if n, err := strconv.Atoi(value); err == nil && digitsOnly(value) {
				data[wire] = n
			}
		case wire == "discount_percentage":
			if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
				data[wire] = f
			}
		default:
			data[wire] = value
		}
	}
	return data
}

// preparePersonData builds a person payload from a row and mapping. Email
// and phone values become entries of the contacts array with their person
// contact type IDs; phone numbers are normalized to E.164.
func preparePersonData(row spreadsheet.Row, mapping map[string]string) map[string]interface{} {
	data := make(map[string]interface{})
	var contacts []map[string]interface{}

	for apiField, column := range mapping {
		if column == "" {
			continue
		}
		value, ok := row.Get(column)
		if !ok || value == "" {
			continue
		}

		switch apiField {
		case "email":
			contacts = append(contacts, map[string]interface{}{
				"contact_type_id": personContactTypeEmail,
				"value":           value,
			})
		case "phone":
			contacts = append(contacts, map[string]interface{}{
				"contact_type_id": personContactTypePhone,
				"value":           phone.NormalizeE164(value),
			})
		default:
			data[apiField] = value
		}
	}

	if len(contacts) > 0 {
		data["contacts"] = contacts
	}
	return data
}

// preparePersonDataWithCompanyLookup additionally resolves a mapped company
// name to a company_id. Lookup failures never fail the row; they surface as
// warnings and the company reference is dropped.
func (e *Engine) preparePersonDataWithCompanyLookup(ctx context.Context, row spreadsheet.Row, mapping map[string]string) (map[string]interface{}, []string) {
	data := preparePersonData(row, mapping)

	name, ok := data["company"].(string)
	if !ok {
		return data, nil
	}
	delete(data, "company")

	var warnings []string
	companyID, warning, err := e.crm.LookupCompanyByName(ctx, name)
	if err != nil {
		warnings = append(warnings, "Warning: Company lookup failed for '"+name+"': "+err.Error())
		return data, warnings
	}

	data["company_id"] = companyID
	if warning != "" {
		warnings = append(warnings, "Warning: "+warning)
	}
	return data, warnings
}

// mergedCompanyValues flattens a routed row back into one wire-named value
// map for the import path, which sends everything to the company endpoint.
func mergedCompanyValues(routed fields.Routed) map[string]string {
	merged := make(map[string]string, len(routed.Company)+len(routed.Client)+len(routed.Supplier))
	for k, v := range routed.Company {
		merged[k] = v
	}
	for k, v := range routed.Client {
		merged[k] = v
	}
	for k, v := range routed.Supplier {
		merged[k] = v
	}
	return merged
}
