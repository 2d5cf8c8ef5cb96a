package fields

import "strings"

// Routed is the per-endpoint split of one row. Bucket keys are wire field
// names; values are the raw trimmed cell values. Flags carries the two
// relationship booleans, which are always present when mapped, explicit
// false included.
type Routed struct {
	Company  map[string]string
	Client   map[string]string
	Supplier map[string]string
	Flags    map[string]bool
}

// Route splits a row's mapped values into company, client and supplier
// buckets. Empty-after-trim values are dropped from all buckets, except the
// is_client/is_supplier flags, which resolve to an explicit false for empty
// cells so an update cannot leave a stale relationship state behind. Aliases
// are resolved to wire names before bucketing, so the client and supplier
// variants of a field never collide.
func Route(row map[string]string, mapping map[string]string) Routed {
	routed := Routed{
		Company:  make(map[string]string),
		Client:   make(map[string]string),
		Supplier: make(map[string]string),
		Flags:    make(map[string]bool),
	}

	for apiField, column := range mapping {
		if column == "" {
			continue
		}

		if apiField == FlagIsClient || apiField == FlagIsSupplier {
			value, ok := row[column]
			// Unmapped column in the file counts as empty.
			routed.Flags[apiField] = ok && strings.TrimSpace(value) != ""
			continue
		}

		value, ok := row[column]
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}

		wire := WireName(apiField)
		switch {
		case IsClientField(apiField):
			routed.Client[wire] = trimmed
		case IsSupplierField(apiField):
			routed.Supplier[wire] = trimmed
		default:
			// Company bucket is the default: core fields, addresses,
			// contacts and tags.
			routed.Company[wire] = trimmed
		}
	}

	return routed
}

// HasCompanyData reports whether any company-level value or flag was routed.
func (r Routed) HasCompanyData() bool {
	return len(r.Company) > 0 || len(r.Flags) > 0
}
