package poool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"crmbulk_backend/platform/apperr"
)

// CreatePerson creates a person record.
func (c *Client) CreatePerson(ctx context.Context, fields map[string]interface{}) (Entity, error) {
	env, err := c.do(ctx, http.MethodPost, "/persons", nil, fields, "person")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// GetPersonByID fetches a person by numeric ID.
func (c *Client) GetPersonByID(ctx context.Context, id int) (Entity, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/persons/%d", id), nil, nil, "person")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// SearchPersonsByField searches persons with the server-side search
// parameter. Returns an empty slice when nothing matched.
func (c *Client) SearchPersonsByField(ctx context.Context, field, value string) ([]Entity, error) {
	query := url.Values{}
	query.Set("search", value)
	query.Set("per_page", fmt.Sprintf("%d", searchPageSize))

	env, err := c.do(ctx, http.MethodGet, "/persons", query, nil, "person search")
	if err != nil {
		return nil, err
	}
	entities, err := decodeEntities(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entities, nil
}

// UpdatePerson updates the person endpoint.
func (c *Client) UpdatePerson(ctx context.Context, id int, fields map[string]interface{}) (Entity, error) {
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/persons/%d", id), nil, fields, "person")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}
