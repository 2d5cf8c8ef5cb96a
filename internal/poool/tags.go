package poool

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"crmbulk_backend/platform/apperr"
)

// DefaultTagColor and DefaultTagBackground are used when the caller does not
// pick tag colors.
const (
	DefaultTagColor      = "#007BFF"
	DefaultTagBackground = "#F8F9FA"
)

type tagRecord struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// GetAllTags fetches the full tag catalog and returns a name to ID mapping.
// Both the original-case title and its lowercase form are stored so lookups
// can be case-insensitive.
func (c *Client) GetAllTags(ctx context.Context) (map[string]int, error) {
	mapping := make(map[string]int)
	err := c.getPaginated(ctx, "/tags", "tags", func(data json.RawMessage) (int, error) {
		var page []tagRecord
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
		}
		for _, tag := range page {
			title := strings.TrimSpace(tag.Title)
			if title == "" || tag.ID == 0 {
				continue
			}
			mapping[title] = tag.ID
			mapping[strings.ToLower(title)] = tag.ID
		}
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return mapping, nil
}

// CreateTagIfMissing re-checks the catalog and creates the tag only when it
// is truly absent, so two concurrent callers within one request cannot race
// a duplicate into existence. Returns the tag ID either way.
func (c *Client) CreateTagIfMissing(ctx context.Context, name, color, colorBackground string) (int, error) {
	existing, err := c.GetAllTags(ctx)
	if err != nil {
		return 0, apperr.Newf(apperr.GetKind(err), "Failed to check existing tags: %s", apperr.UserMessage(err))
	}

	if id, ok := existing[strings.ToLower(name)]; ok {
		return id, nil
	}

	if color == "" {
		color = DefaultTagColor
	}
	if colorBackground == "" {
		colorBackground = DefaultTagBackground
	}

	payload := map[string]interface{}{
		"title":                        strings.TrimSpace(name),
		"color":                        color,
		"color_background":             colorBackground,
		"is_active":                    true,
		"available_company":            true,
		"available_person":             true,
		"available_crm_lead":           true,
		"available_company_subsidiary": false,
		"available_project":            true,
		"available_project_phase":      true,
		"available_asset":              true,
		"available_bill_incoming":      false,
		"available_bill":               true,
		"available_offer":              true,
		"available_order":              false,
		"available_ticket":             true,
		"available_ticket_job":         true,
		"available_ticket_qa":          false,
		"available_ticket_comment":     true,
		"available_check":              false,
		"available_purchase":           true,
		// New tags go to the end of the catalog.
		"pos": 999,
	}

	env, err := c.do(ctx, http.MethodPost, "/tags", nil, payload, "tag")
	if err != nil {
		return 0, err
	}

	var created tagRecord
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return 0, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	if created.ID == 0 {
		return 0, apperr.Unavailable("Tag created but no ID returned")
	}
	return created.ID, nil
}
