package bulk

import (
	"context"
	"strconv"
	"strings"

	"crmbulk_backend/internal/fields"
	"crmbulk_backend/internal/poool"
	"crmbulk_backend/platform/apperr"
)

// Match resolves an identifier value to an existing entity ID.
//
// The identifier field "id" is parsed as an integer and verified with a
// direct GET; a non-integer value fails without any network call. Every other
// field goes through the search endpoint: no results is a not-found error, an
// exact case-insensitive match on the identifier field wins, and otherwise
// the first search result is used with a warning naming the fallback entity.
// Search ranking is the server's; results are never re-sorted. The warning is
// empty for exact matches.
func (e *Engine) Match(ctx context.Context, kind fields.EntityKind, identifierField, value string) (int, string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, "", apperr.Validation("Empty identifier value")
	}

	if strings.ToLower(identifierField) == "id" {
		id, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, "", apperr.Newf(apperr.KindValidation, "Invalid ID value: %s", trimmed)
		}
		if _, err := e.getByID(ctx, kind, id); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return 0, "", apperr.Newf(apperr.KindNotFound, "%s ID %d not found", kindWord(kind), id)
			}
			return 0, "", err
		}
		return id, "", nil
	}

	results, err := e.search(ctx, kind, identifierField, trimmed)
	if err != nil {
		return 0, "", err
	}
	if len(results) == 0 {
		return 0, "", apperr.Newf(apperr.KindNotFound, "No %s found with %s='%s'",
			strings.ToLower(kindWord(kind)), identifierField, trimmed)
	}

	lower := strings.ToLower(trimmed)
	for _, entity := range results {
		if candidate := entity.StringField(identifierField); candidate != "" && strings.ToLower(candidate) == lower {
			return entity.ID(), "", nil
		}
	}

	first := results[0]
	warning := "No exact match found, using closest match: " + first.DisplayName()
	return first.ID(), warning, nil
}

func (e *Engine) getByID(ctx context.Context, kind fields.EntityKind, id int) (poool.Entity, error) {
	if kind == fields.KindPerson {
		return e.crm.GetPersonByID(ctx, id)
	}
	return e.crm.GetCompanyByID(ctx, id)
}

func (e *Engine) search(ctx context.Context, kind fields.EntityKind, field, value string) ([]poool.Entity, error) {
	if kind == fields.KindPerson {
		return e.crm.SearchPersonsByField(ctx, field, value)
	}
	return e.crm.SearchCompaniesByField(ctx, field, value)
}

func kindWord(kind fields.EntityKind) string {
	if kind == fields.KindPerson {
		return "Person"
	}
	return "Company"
}
