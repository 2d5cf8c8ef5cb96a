package poool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"crmbulk_backend/platform/apperr"
)

// UpdateClient updates the client relationship endpoint of a company.
func (c *Client) UpdateClient(ctx context.Context, id int, fields map[string]interface{}) (Entity, error) {
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clients/%d", id), nil, fields, "client")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// UpdateSupplier updates the supplier relationship endpoint of a company.
func (c *Client) UpdateSupplier(ctx context.Context, id int, fields map[string]interface{}) (Entity, error) {
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/suppliers/%d", id), nil, fields, "supplier")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// CreateClient activates a company as a client. A numbering-range ID of zero
// leaves the range to the server default.
func (c *Client) CreateClient(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (Entity, error) {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["company_id"] = companyID
	if numberRangeID > 0 {
		payload["number_range_id"] = numberRangeID
	}

	env, err := c.do(ctx, http.MethodPost, "/clients", nil, payload, "client")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// CreateSupplier activates a company as a supplier.
func (c *Client) CreateSupplier(ctx context.Context, companyID int, fields map[string]interface{}, numberRangeID int) (Entity, error) {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["company_id"] = companyID
	if numberRangeID > 0 {
		payload["number_range_id"] = numberRangeID
	}

	env, err := c.do(ctx, http.MethodPost, "/suppliers", nil, payload, "supplier")
	if err != nil {
		return nil, err
	}
	entity, err := decodeEntity(env.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	return entity, nil
}

// NumberRange is a CRM numbering range; bulk runs fetch the catalog once and
// pick the default range per relationship type.
type NumberRange struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
}

// GetNumberRanges fetches the numbering-range catalog.
func (c *Client) GetNumberRanges(ctx context.Context) ([]NumberRange, error) {
	var ranges []NumberRange
	err := c.getPaginated(ctx, "/number_ranges", "number ranges", func(data json.RawMessage) (int, error) {
		var page []NumberRange
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
		}
		ranges = append(ranges, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return ranges, nil
}
