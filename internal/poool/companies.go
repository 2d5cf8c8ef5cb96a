package poool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"crmbulk_backend/platform/apperr"
)

// CreateCompany creates a company. The type discriminator required by the
// companies endpoint is injected here.
func (c *Client) CreateCompany(ctx context.Context, fields map[string]interface{}) (Entity, error) {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = "company"

	env, err := c.do(ctx, http.MethodPost, "/companies", nil, payload, "company")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// GetCompanyByID fetches a company by numeric ID. A missing company is a
// typed not-found error.
func (c *Client) GetCompanyByID(ctx context.Context, id int) (Entity, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/companies/%d", id), nil, nil, "company")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// SearchCompaniesByField searches companies with the server-side search
// parameter. The server does substring matching; the field only informs
// callers which attribute they intend to compare. Returns an empty slice
// when nothing matched.
func (c *Client) SearchCompaniesByField(ctx context.Context, field, value string) ([]Entity, error) {
	query := url.Values{}
	query.Set("search", value)
	query.Set("per_page", fmt.Sprintf("%d", searchPageSize))

	env, err := c.do(ctx, http.MethodGet, "/companies", query, nil, "company search")
	if err != nil {
		return nil, err
	}
	entities, err := decodeEntities(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entities, nil
}

// UpdateCompany updates the company endpoint.
func (c *Client) UpdateCompany(ctx context.Context, id int, fields map[string]interface{}) (Entity, error) {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = "company"

	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/companies/%d", id), nil, payload, "company")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// LookupCompanyByName resolves a company ID from a human-readable name.
// An exact case-insensitive match wins; otherwise the first search result is
// used and a warning naming the fallback is returned. The warning is empty
// for clean matches.
func (c *Client) LookupCompanyByName(ctx context.Context, name string) (int, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, "", apperr.Validation("Empty company name")
	}

	results, err := c.SearchCompaniesByField(ctx, "name", trimmed)
	if err != nil {
		return 0, "", err
	}
	if len(results) == 0 {
		return 0, "", apperr.Newf(apperr.KindNotFound, "No company found with name: %s", trimmed)
	}

	lower := strings.ToLower(trimmed)
	for _, company := range results {
		if strings.ToLower(company.Name()) == lower {
			return company.ID(), "", nil
		}
	}

	first := results[0]
	warning := fmt.Sprintf("No exact match found, using closest match: %s", first.DisplayName())
	return first.ID(), warning, nil
}
