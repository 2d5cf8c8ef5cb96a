package bulk

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/apperr"
)

// Tag column formats.
const (
	TagFormatOneHot         = "one_hot"
	TagFormatCommaSeparated = "comma_separated"
	TagFormatSingleTag      = "single_tag"
)

var oneHotPrefixes = []string{"tag_", "label_", "category_"}

var booleanish = map[string]struct{}{
	"0": {}, "1": {}, "true": {}, "false": {}, "yes": {}, "no": {}, "0.0": {}, "1.0": {},
}

var truthy = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "1.0": {},
}

var tagNamePattern = regexp.MustCompile(`^(tag\w*\d*|secondary.*tag|primary.*tag|main.*tag)`)

const tagSampleSize = 10

// DetectTagColumns inspects the table and guesses which columns carry tags
// and in which format. One-hot columns are recognized first (a tag_/label_/
// category_ prefix and only boolean-like values), then keyword columns are
// classified as comma_separated or single_tag by sampling values, then
// columns whose name itself looks like a tag slot default to single_tag.
// Manual assignments from the UI merge over the detected result.
func DetectTagColumns(table *spreadsheet.Table) map[string]string {
	detected := make(map[string]string)
	if table == nil {
		return detected
	}

	for _, column := range table.Columns {
		if !hasOneHotPrefix(column) {
			continue
		}
		values := nonEmptyValues(table.Rows, column, 0)
		if len(values) == 0 {
			continue
		}
		allBoolean := true
		for _, value := range values {
			if _, ok := booleanish[strings.ToLower(value)]; !ok {
				allBoolean = false
				break
			}
		}
		if allBoolean {
			detected[column] = TagFormatOneHot
		}
	}

	for _, column := range table.Columns {
		if _, done := detected[column]; done {
			continue
		}
		lower := strings.ToLower(column)
		if !strings.Contains(lower, "tag") && !strings.Contains(lower, "label") && !strings.Contains(lower, "category") {
			continue
		}
		sample := nonEmptyValues(table.Rows, column, tagSampleSize)
		if len(sample) == 0 {
			continue
		}
		format := TagFormatSingleTag
		for _, value := range sample {
			if strings.Contains(value, ",") {
				format = TagFormatCommaSeparated
				break
			}
		}
		detected[column] = format
	}

	for _, column := range table.Columns {
		if _, done := detected[column]; done {
			continue
		}
		if tagNamePattern.MatchString(strings.ToLower(column)) {
			detected[column] = TagFormatSingleTag
		}
	}

	return detected
}

func hasOneHotPrefix(column string) bool {
	lower := strings.ToLower(column)
	for _, prefix := range oneHotPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func nonEmptyValues(rows []spreadsheet.Row, column string, limit int) []string {
	var values []string
	for _, row := range rows {
		value, ok := row.Get(column)
		if !ok || value == "" {
			continue
		}
		values = append(values, value)
		if limit > 0 && len(values) >= limit {
			break
		}
	}
	return values
}

// ParseCommaSeparatedTags splits a cell into tag names, stripping whitespace
// and surrounding quotes and dropping empties.
func ParseCommaSeparatedTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.Trim(strings.TrimSpace(part), `"'`)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ResolveRowTags collects the tag names of one row across all mapped tag
// columns and resolves them to IDs through the run cache. A cache miss with
// autoCreate creates the tag remotely exactly once per run and stores it
// under both its original case and lowercase; without autoCreate unknown
// names are skipped. Returns the resolved IDs and the names created for this
// row.
func (e *Engine) ResolveRowTags(ctx context.Context, row spreadsheet.Row, tagMappings map[string]string, rc *RunContext, autoCreate bool) ([]int, []string, error) {
	names := make(map[string]struct{})

	for column, format := range tagMappings {
		value, ok := row.Get(column)
		if !ok || value == "" {
			continue
		}

		switch format {
		case TagFormatCommaSeparated:
			for _, tag := range ParseCommaSeparatedTags(value) {
				names[tag] = struct{}{}
			}
		case TagFormatSingleTag:
			names[value] = struct{}{}
		case TagFormatOneHot:
			if _, on := truthy[strings.ToLower(value)]; on {
				names[oneHotTagName(column)] = struct{}{}
			}
		}
	}

	if len(names) == 0 || rc.Tags == nil {
		return nil, nil, nil
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	var ids []int
	var created []string
	for _, name := range ordered {
		id, ok := rc.Tags[name]
		if !ok {
			id, ok = rc.Tags[strings.ToLower(name)]
		}
		if ok {
			ids = append(ids, id)
			continue
		}
		if !autoCreate {
			continue
		}

		newID, err := e.crm.CreateTagIfMissing(ctx, name, "", "")
		if err != nil {
			return nil, nil, apperr.Newf(apperr.GetKind(err), "Failed to create tag '%s': %s", name, apperr.UserMessage(err))
		}
		rc.Tags[name] = newID
		rc.Tags[strings.ToLower(name)] = newID
		rc.CreatedTags = append(rc.CreatedTags, name)
		ids = append(ids, newID)
		created = append(created, name)
	}

	return ids, created, nil
}

// oneHotTagName derives the tag name from a one-hot column: prefix stripped,
// underscores to spaces, each word title-cased.
func oneHotTagName(column string) string {
	name := strings.ToLower(column)
	for _, prefix := range oneHotPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
