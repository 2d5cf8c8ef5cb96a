package bulk

import (
	"context"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/spreadsheet"
	"crmbulk_backend/platform/apperr"
)

// Match preview statuses.
const (
	MatchStatusFound    = "found"
	MatchStatusFuzzy    = "fuzzy"
	MatchStatusMissing  = "missing"
	MatchStatusNotFound = "not_found"
)

// DefaultPreviewLimit caps a preview when the caller does not set a limit.
const DefaultPreviewLimit = 20

// MatchPreview is one row of a match preview.
type MatchPreview struct {
	Row             int    `json:"row"`
	IdentifierValue string `json:"identifier_value"`
	Status          string `json:"status"`
	EntityID        int    `json:"entity_id,omitempty"`
	EntityName      string `json:"entity_name,omitempty"`
	Message         string `json:"message"`
}

// PreviewMatches reports how the first rows of an update would match,
// without writing anything. The matched entity's display name is fetched so
// the operator can verify the target before the real run.
func (e *Engine) PreviewMatches(ctx context.Context, kind fields.EntityKind, rows []spreadsheet.Row, mapping map[string]string, identifierField string, limit int) ([]MatchPreview, error) {
	identifierColumn := mapping[identifierField]
	if identifierColumn == "" {
		return nil, apperr.Newf(apperr.KindValidation, `Identifier field "%s" not found in field mapping`, identifierField)
	}

	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	previews := make([]MatchPreview, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return previews, apperr.Wrap(apperr.KindUnavailable, "Preview cancelled", err)
		}
		rowNum := i + 1

		value, ok := row.Get(identifierColumn)
		if !ok || value == "" {
			previews = append(previews, MatchPreview{
				Row:             rowNum,
				IdentifierValue: "N/A",
				Status:          MatchStatusMissing,
				Message:         `Identifier column "` + identifierColumn + `" is empty in this row`,
			})
			continue
		}

		entityID, warning, err := e.Match(ctx, kind, identifierField, value)
		if err != nil {
			previews = append(previews, MatchPreview{
				Row:             rowNum,
				IdentifierValue: value,
				Status:          MatchStatusNotFound,
				Message:         apperr.UserMessage(err),
			})
			continue
		}

		name := "Unknown"
		if entity, err := e.getByID(ctx, kind, entityID); err == nil {
			name = entity.DisplayName()
		}

		preview := MatchPreview{
			Row:             rowNum,
			IdentifierValue: value,
			EntityID:        entityID,
			EntityName:      name,
		}
		if warning != "" {
			preview.Status = MatchStatusFuzzy
			preview.Message = warning
		} else {
			preview.Status = MatchStatusFound
			preview.Message = "Exact match"
		}
		previews = append(previews, preview)
	}

	return previews, nil
}
