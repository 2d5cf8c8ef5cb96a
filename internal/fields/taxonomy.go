// Package fields holds the static partition of Poool API field names into
// company, client and supplier sets, the alias table from logical field names
// to wire names, and the pure router that splits one row over the three
// endpoint buckets. The partition is a compile-time constant so that every
// mapped field belongs to exactly one bucket.
package fields

// FlagIsClient and FlagIsSupplier are the two relationship flags that are
// always sent explicitly, even for empty cells.
const (
	FlagIsClient   = "is_client"
	FlagIsSupplier = "is_supplier"
)

// EntityKind is one of the two entity kinds of the remote CRM.
type EntityKind string

const (
	KindCompany EntityKind = "company"
	KindPerson  EntityKind = "person"
)

// Required returns the required fields for the entity kind.
func Required(kind EntityKind) []string {
	if kind == KindPerson {
		return RequiredPersonFields()
	}
	return RequiredCompanyFields()
}

// clientFieldSet lists the logical field names served by the client endpoint.
var clientFieldSet = map[string]struct{}{
	"customer_number_client":      {},
	"payment_time_day_num_client": {},
	"dunning_blocked":             {},
	"dunning_document_blocked":    {},
	"reference_number_required":   {},
	"datev_account_client":        {},
	"leitweg_id":                  {},
	"datev_is_client_collection":  {},
	"send_bill_to_email_to":       {},
	"send_bill_to_email_cc":       {},
	"send_bill_to_email_bcc":      {},
	"send_by_email":               {},
	"send_by_mail":                {},
	"client_number":               {},
	"number_unique":               {},
}

// supplierFieldSet lists the logical field names served by the supplier
// endpoint.
var supplierFieldSet = map[string]struct{}{
	"supplier_number":               {},
	"customer_number_supplier":      {},
	"payment_time_day_num_supplier": {},
	"discount_day_num":              {},
	"discount_percentage":           {},
	"comment_supplier":              {},
	"comment_internal":              {},
	"datev_account_supplier":        {},
}

// wireNames maps logical field names to the wire name each endpoint expects.
// The split lets one spreadsheet carry both a client and a supplier customer
// number even though both endpoints call the field "customer_number".
var wireNames = map[string]string{
	"customer_number_client":      "customer_number",
	"payment_time_day_num_client": "payment_time_day_num",
	"datev_account_client":        "datev_account",
	"client_number":               "number",

	"supplier_number":               "number",
	"customer_number_supplier":      "customer_number",
	"payment_time_day_num_supplier": "payment_time_day_num",
	"datev_account_supplier":        "datev_account",
}

// IsClientField reports whether the logical field belongs to the client
// endpoint.
func IsClientField(name string) bool {
	_, ok := clientFieldSet[name]
	return ok
}

// IsSupplierField reports whether the logical field belongs to the supplier
// endpoint.
func IsSupplierField(name string) bool {
	_, ok := supplierFieldSet[name]
	return ok
}

// WireName resolves a logical field name to its wire name. Fields without an
// alias keep their own name.
func WireName(name string) string {
	if wire, ok := wireNames[name]; ok {
		return wire
	}
	return name
}

// RequiredCompanyFields are the fields that must be mapped and non-empty for
// a company import.
func RequiredCompanyFields() []string {
	return []string{"name"}
}

// RequiredPersonFields are the fields that must be mapped and non-empty for a
// person import.
func RequiredPersonFields() []string {
	return []string{"firstname", "lastname"}
}

// OptionalCompanyFields lists every mappable company field, in the order the
// UI presents them.
func OptionalCompanyFields() []string {
	return []string{
		"name_legal", "name_token", "uid", "commercial_register", "jurisdiction",
		"management", "data_privacy_number",

		"salutation", "title", "firstname", "middlename", "lastname", "nickname",
		"position", "function", "department", "birthday", "gender",

		"note", "is_operator",

		FlagIsClient, FlagIsSupplier,

		"customer_number_client", "payment_time_day_num_client", "comment_client",
		"send_bill_to_email_to", "reference_number_required", "dunning_blocked",
		"client_number", "datev_account_client",

		"supplier_number", "comment_supplier", "comment_internal", "discount_day_num",
		"discount_percentage", "customer_number_supplier", "payment_time_day_num_supplier",
		"datev_account_supplier",

		"leitweg_id", "datev_is_client_collection",

		"tags",

		"address_street", "address_house_number", "address_zip", "address_city",
		"address_country", "address_title",
		"contact_phone", "contact_email", "contact_website",
	}
}

// OptionalPersonFields lists every mappable person field.
func OptionalPersonFields() []string {
	return []string{
		"company", "company_id", "company_subsidiary_id", "email", "phone",
		"salutation", "title", "middlename", "nickname",
		"position", "function", "department",
		"tags",
	}
}

// CompanyFieldLabels maps company field names to the German labels the UI
// shows.
func CompanyFieldLabels() map[string]string {
	return map[string]string{
		"name":                "Firmenname",
		"name_legal":          "Rechtlicher Firmenname",
		"name_token":          "Kurzname",
		"uid":                 "UID-Nummer",
		"commercial_register": "Handelsregisternummer",
		"jurisdiction":        "Gerichtsstand",
		"management":          "Geschäftsführung",
		"data_privacy_number": "Datenschutznummer",

		"salutation": "Anrede",
		"title":      "Titel",
		"firstname":  "Vorname",
		"middlename": "Zweiter Vorname",
		"lastname":   "Nachname",
		"nickname":   "Spitzname",
		"position":   "Position",
		"function":   "Funktion",
		"department": "Abteilung",
		"birthday":   "Geburtstag",
		"gender":     "Geschlecht",

		"note":        "Notiz",
		"is_operator": "Ist Betreiber",

		FlagIsClient:   "Ist Kunde",
		FlagIsSupplier: "Ist Lieferant",

		"customer_number_client":      "Kundennummer (Kunde)",
		"payment_time_day_num_client": "Zahlungsziel Tage (Kunde)",
		"comment_client":              "Kommentar (Kunde)",
		"send_bill_to_email_to":       "Rechnung per E-Mail an",
		"reference_number_required":   "Referenznummer erforderlich",
		"dunning_blocked":             "Mahnung gesperrt",
		"dunning_document_blocked":    "Mahndokument gesperrt",
		"send_bill_to_email_cc":       "Rechnung CC",
		"send_bill_to_email_bcc":      "Rechnung BCC",
		"send_by_email":               "Versand per E-Mail",
		"send_by_mail":                "Versand per Post",
		"number_unique":               "Eindeutige Nummer",
		"client_number":               "Kundennummer",
		"datev_account_client":        "DATEV-Konto (Kunde)",

		"supplier_number":               "Lieferantennummer",
		"customer_number_supplier":      "Kundennummer (Lieferant)",
		"payment_time_day_num_supplier": "Zahlungsziel Tage (Lieferant)",
		"comment_supplier":              "Kommentar (Lieferant)",
		"comment_internal":              "Interner Kommentar",
		"discount_day_num":              "Skonto-Tage",
		"discount_percentage":           "Skonto-Prozentsatz",
		"datev_account_supplier":        "DATEV-Konto (Lieferant)",

		"leitweg_id":                 "Leitweg-ID",
		"datev_is_client_collection": "DATEV Sammelkonto",

		"tags": "Tags",

		"address_street":       "Straße",
		"address_house_number": "Hausnummer",
		"address_zip":          "PLZ",
		"address_city":         "Stadt",
		"address_country":      "Land",
		"address_title":        "Adress-Titel",

		"contact_phone":   "Telefon",
		"contact_email":   "E-Mail",
		"contact_website": "Webseite",
	}
}

// PersonFieldLabels maps person field names to the German labels the UI
// shows.
func PersonFieldLabels() map[string]string {
	return map[string]string{
		"firstname": "Vorname",
		"lastname":  "Nachname",
		"email":     "E-Mail",
		"phone":     "Telefon",
		"company":   "Firma (Name)",

		"salutation": "Anrede",
		"title":      "Titel",
		"middlename": "Zweiter Vorname",
		"nickname":   "Spitzname",
		"position":   "Position",
		"function":   "Funktion",
		"department": "Abteilung",

		"company_id":            "Firma (ID)",
		"company_subsidiary_id": "Niederlassung (ID)",

		"tags": "Tags",
	}
}
