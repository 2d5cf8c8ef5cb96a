package bulk

import (
	"context"
	"reflect"
	"testing"

	"crmbulk_backend/internal/spreadsheet"
)

func TestDetectTagColumns(t *testing.T) {
	table := &spreadsheet.Table{
		Columns: []string{"Name", "Tags", "Tag_VIP", "Tag_Enterprise", "Notes"},
		Rows: []spreadsheet.Row{
			{"Name": "Acme", "Tags": "VIP, Enterprise", "Tag_VIP": "1", "Tag_Enterprise": "0", "Notes": "x"},
			{"Name": "Beta", "Tags": "Startup", "Tag_VIP": "0", "Tag_Enterprise": "1", "Notes": "y"},
		},
	}

	detected := DetectTagColumns(table)

	want := map[string]string{
		"Tags":           TagFormatCommaSeparated,
		"Tag_VIP":        TagFormatOneHot,
		"Tag_Enterprise": TagFormatOneHot,
	}
	if !reflect.DeepEqual(detected, want) {
		t.Fatalf("detected = %v, want %v", detected, want)
	}
}

func TestDetectTagColumnsOneHotNeedsBooleanValues(t *testing.T) {
	table := &spreadsheet.Table{
		Columns: []string{"Tag_Region"},
		Rows: []spreadsheet.Row{
			{"Tag_Region": "North"},
			{"Tag_Region": "South"},
		},
	}

	detected := DetectTagColumns(table)

	// Non-boolean values disqualify one-hot; the tag keyword still makes it
	// a single-tag column.
	if got := detected["Tag_Region"]; got != TagFormatSingleTag {
		t.Fatalf("Tag_Region = %q, want single_tag", got)
	}
}

func TestParseCommaSeparatedTags(t *testing.T) {
	got := ParseCommaSeparatedTags(` VIP, "Enterprise" , ,'Key Account'`)
	want := []string{"VIP", "Enterprise", "Key Account"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOneHotTagName(t *testing.T) {
	cases := map[string]string{
		"Tag_VIP":           "Vip",
		"label_key_account": "Key Account",
		"category_premium":  "Premium",
	}
	for column, want := range cases {
		if got := oneHotTagName(column); got != want {
			t.Fatalf("oneHotTagName(%q) = %q, want %q", column, got, want)
		}
	}
}

func TestResolveRowTagsUsesCacheAcrossRows(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)
	rc := &RunContext{Tags: map[string]int{"VIP": 5, "vip": 5}}

	mappings := map[string]string{"Tags": TagFormatCommaSeparated}

	ids, created, err := engine.ResolveRowTags(context.Background(),
		spreadsheet.Row{"Tags": "VIP, Newcomer"}, mappings, rc, true)
	if err != nil {
		t.Fatalf("ResolveRowTags: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 resolved tags", ids)
	}
	if len(created) != 1 || created[0] != "Newcomer" {
		t.Fatalf("created = %v, want [Newcomer]", created)
	}

	// Second row with the same new tag must hit the cache, not the CRM.
	if _, _, err := engine.ResolveRowTags(context.Background(),
		spreadsheet.Row{"Tags": "newcomer"}, mappings, rc, true); err != nil {
		t.Fatalf("ResolveRowTags: %v", err)
	}
	if crm.createTagCalls != 1 {
		t.Fatalf("createTagCalls = %d, want exactly one remote create per new name", crm.createTagCalls)
	}
}

func TestResolveRowTagsWithoutAutoCreateSkipsUnknown(t *testing.T) {
	crm := newFakeCRM()
	engine := testEngine(crm)
	rc := &RunContext{Tags: map[string]int{"vip": 5}}

	ids, created, err := engine.ResolveRowTags(context.Background(),
		spreadsheet.Row{"Tags": "VIP, Unknown"},
		map[string]string{"Tags": TagFormatCommaSeparated}, rc, false)
	if err != nil {
		t.Fatalf("ResolveRowTags: %v", err)
	}
	if len(ids) != 1 || len(created) != 0 || crm.createTagCalls != 0 {
		t.Fatalf("ids=%v created=%v calls=%d, unknown tags must be skipped silently",
			ids, created, crm.createTagCalls)
	}
}

func TestResolveRowTagsOneHotTruthyOnly(t *testing.T) {
	engine := testEngine(newFakeCRM())
	rc := &RunContext{Tags: map[string]int{"Vip": 1, "vip": 1, "Enterprise": 2, "enterprise": 2}}

	ids, _, err := engine.ResolveRowTags(context.Background(),
		spreadsheet.Row{"Tag_VIP": "1", "Tag_Enterprise": "0"},
		map[string]string{"Tag_VIP": TagFormatOneHot, "Tag_Enterprise": TagFormatOneHot},
		rc, true)
	if err != nil {
		t.Fatalf("ResolveRowTags: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{1}) {
		t.Fatalf("ids = %v, want only the truthy one-hot column", ids)
	}
}
