// Package mappings handles the field-mapping configuration the UI builds per
// session: JSON export/import for reuse across sessions, and pre-run
// validation against the uploaded file.
package mappings

import (
	"encoding/json"
	"fmt"
	"strings"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/apperr"
)

// Config is the exported mapping configuration. FieldMapping maps API field
// names to spreadsheet columns; the tag mapping members map spreadsheet
// columns to a tag column format.
type Config struct {
	FieldMapping      map[string]string `json:"field_mapping"`
	FinalTagMappings  map[string]string `json:"final_tag_mappings"`
	ManualTagMappings map[string]string `json:"manual_tag_mappings"`
}

func emptyConfig() Config {
	return Config{
		FieldMapping:      make(map[string]string),
		FinalTagMappings:  make(map[string]string),
		ManualTagMappings: make(map[string]string),
	}
}

// Export renders the configuration as indented JSON.
func Export(cfg Config) ([]byte, error) {
	if cfg.FieldMapping == nil {
		cfg.FieldMapping = map[string]string{}
	}
	if cfg.FinalTagMappings == nil {
		cfg.FinalTagMappings = map[string]string{}
	}
	if cfg.ManualTagMappings == nil {
		cfg.ManualTagMappings = map[string]string{}
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// Import parses a configuration JSON against the columns of the currently
// loaded file. Mappings that reference absent columns are dropped with a
// warning message, never an error; only malformed JSON fails.
func Import(data []byte, columns []string) (Config, []string, error) {
	var parsed Config
	if err := json.Unmarshal(data, &parsed); err != nil {
		return emptyConfig(), nil, apperr.Wrap(apperr.KindBadRequest, "Invalid JSON format", err)
	}

	available := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		if column != "" {
			available[column] = struct{}{}
		}
	}

	result := emptyConfig()
	var messages []string

	var missing []string
	for apiField, column := range parsed.FieldMapping {
		if _, ok := available[column]; ok {
			result.FieldMapping[apiField] = column
		} else {
			missing = append(missing, column)
		}
	}
	if len(result.FieldMapping) > 0 {
		messages = append(messages, fmt.Sprintf("Imported %d field mappings", len(result.FieldMapping)))
	}
	if len(missing) > 0 {
		if len(missing) > 5 {
			missing = missing[:5]
		}
		messages = append(messages, fmt.Sprintf("Warning: %d columns from JSON not found in file: %s",
			len(parsed.FieldMapping)-len(result.FieldMapping), strings.Join(missing, ", ")))
	}

	var missingTags int
	for column, format := range parsed.FinalTagMappings {
		if _, ok := available[column]; ok {
			result.FinalTagMappings[column] = format
		} else {
			missingTags++
		}
	}
	if len(result.FinalTagMappings) > 0 {
		messages = append(messages, fmt.Sprintf("Imported %d tag mappings", len(result.FinalTagMappings)))
	}
	if missingTags > 0 {
		messages = append(messages, fmt.Sprintf("Warning: %d tag columns from JSON not found in file", missingTags))
	}

	if len(parsed.ManualTagMappings) > 0 {
		result.ManualTagMappings = parsed.ManualTagMappings
		messages = append(messages, "Imported manual tag mappings")
	}

	return result, messages, nil
}

// Validate checks a field mapping against the uploaded table before a run.
// It returns whether the run may proceed and a list of messages; messages
// prefixed with "Warning:" do not block the run.
func Validate(table *spreadsheet.Table, fieldMapping map[string]string, kind fields.EntityKind) (bool, []string) {
	var messages []string

	if table == nil || len(table.Rows) == 0 {
		messages = append(messages, "Upload file is empty")
	}

	required := fields.Required(kind)
	var unmapped []string
	for _, field := range required {
		if fieldMapping[field] == "" {
			unmapped = append(unmapped, field)
		}
	}
	if len(unmapped) > 0 {
		messages = append(messages, fmt.Sprintf("Required fields must be mapped: %s", strings.Join(unmapped, ", ")))
	}

	available := make(map[string]struct{}, 0)
	if table != nil {
		for _, column := range table.Columns {
			available[column] = struct{}{}
		}
	}
	var missingColumns []string
	for _, column := range fieldMapping {
		if column == "" {
			continue
		}
		if _, ok := available[column]; !ok {
			missingColumns = append(missingColumns, column)
		}
	}
	if len(missingColumns) > 0 {
		messages = append(messages, fmt.Sprintf("Mapped columns not found in file: %s", strings.Join(missingColumns, ", ")))
	}

	// Rows with empty required cells are skipped at run time; warn up front.
	if table != nil {
		for _, field := range required {
			column := fieldMapping[field]
			if column == "" {
				continue
			}
			empty := 0
			for _, row := range table.Rows {
				if value, ok := row.Get(column); !ok || value == "" {
					empty++
				}
			}
			if empty > 0 {
				messages = append(messages, fmt.Sprintf("Warning: %d rows have an empty %s and will fail", empty, field))
			}
		}
	}

	ok := true
	for _, message := range messages {
		if !strings.HasPrefix(message, "Warning:") {
			ok = false
			break
		}
	}
	return ok, messages
}
