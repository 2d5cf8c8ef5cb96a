package mappings

import (
	"strings"
	"testing"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/spreadsheet"
)

func TestImportDropsUnknownColumnsWithWarning(t *testing.T) {
	data := []byte(`{
		"field_mapping": {"name": "Firma", "uid": "Gone"},
		"final_tag_mappings": {"Tags": "comma_separated", "Old": "single_tag"},
		"manual_tag_mappings": {}
	}`)

	cfg, messages, err := Import(data, []string{"Firma", "Tags"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if got := cfg.FieldMapping["name"]; got != "Firma" {
		t.Fatalf("name mapping = %q, want Firma", got)
	}
	if _, ok := cfg.FieldMapping["uid"]; ok {
		t.Fatal("mapping to an absent column must be dropped")
	}
	if _, ok := cfg.FinalTagMappings["Old"]; ok {
		t.Fatal("tag mapping to an absent column must be dropped")
	}

	var warned bool
	for _, msg := range messages {
		if strings.HasPrefix(msg, "Warning:") && strings.Contains(msg, "Gone") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning naming the dropped column, got %v", messages)
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	if _, _, err := Import([]byte("{not json"), []string{"A"}); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidateRequiresMappedRequiredFields(t *testing.T) {
	table := &spreadsheet.Table{
		Columns: []string{"Vorname"},
		Rows:    []spreadsheet.Row{{"Vorname": "Eva"}},
	}

	ok, messages := Validate(table, map[string]string{"firstname": "Vorname"}, fields.KindPerson)
	if ok {
		t.Fatal("person mapping without lastname must not validate")
	}
	var found bool
	for _, msg := range messages {
		if strings.Contains(msg, "lastname") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a message naming lastname, got %v", messages)
	}
}

func TestValidateWarnsAboutEmptyRequiredCells(t *testing.T) {
	table := &spreadsheet.Table{
		Columns: []string{"Firma"},
		Rows: []spreadsheet.Row{
			{"Firma": "Acme GmbH"},
			{"Firma": ""},
		},
	}

	ok, messages := Validate(table, map[string]string{"name": "Firma"}, fields.KindCompany)
	if !ok {
		t.Fatalf("warnings must not block the run, messages = %v", messages)
	}
	var warned bool
	for _, msg := range messages {
		if strings.HasPrefix(msg, "Warning:") && strings.Contains(msg, "empty name") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected an empty-cell warning, got %v", messages)
	}
}

func TestValidateFlagsMissingMappedColumns(t *testing.T) {
	table := &spreadsheet.Table{
		Columns: []string{"Firma"},
		Rows:    []spreadsheet.Row{{"Firma": "Acme"}},
	}

	ok, messages := Validate(table, map[string]string{"name": "Firma", "uid": "UID"}, fields.KindCompany)
	if ok {
		t.Fatal("mapping to a missing column must not validate")
	}
	var found bool
	for _, msg := range messages {
		if strings.Contains(msg, "UID") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a message naming the missing column, got %v", messages)
	}
}
