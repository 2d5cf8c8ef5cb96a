package poool

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"crmbulk_backend/platform/apperr"
)

type countryRecord struct {
	ID                int    `json:"id"`
	NameGerman        string `json:"name_german"`
	NameLocal         string `json:"name_local"`
	NameInternational string `json:"name_international"`
	ISO3166Alpha2     string `json:"iso_3166_alpha2"`
	ISO3166Alpha3     string `json:"iso_3166_alpha3"`
}

func (r countryRecord) nameVariants() []string {
	return []string{r.NameGerman, r.NameLocal, r.NameInternational, r.ISO3166Alpha2, r.ISO3166Alpha3}
}

// GetAllCountries fetches the country catalog as a lowercase name/ISO-code to
// ID mapping, used to resolve free-text country names in address sub-objects.
func (c *Client) GetAllCountries(ctx context.Context) (map[string]int, error) {
	mapping := make(map[string]int)
	err := c.getPaginated(ctx, "/countries", "countries", func(data json.RawMessage) (int, error) {
		var page []countryRecord
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
		}
		for _, country := range page {
			if country.ID == 0 {
				continue
			}
			for _, variant := range country.nameVariants() {
				if variant != "" {
					mapping[strings.ToLower(variant)] = country.ID
				}
			}
		}
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return mapping, nil
}

// Country is a created country record with all name variants, so callers can
// cache every spelling.
type Country struct {
	ID    int
	Names []string
}

// CreateCountry creates a country record for a name missing from the catalog.
func (c *Client) CreateCountry(ctx context.Context, name string) (*Country, error) {
	payload := map[string]interface{}{
		"name_international": strings.TrimSpace(name),
	}

	env, err := c.do(ctx, http.MethodPost, "/countries", nil, payload, "country")
	if err != nil {
		return nil, err
	}

	var created countryRecord
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "Unexpected response from CRM", err)
	}
	if created.ID == 0 {
		return nil, apperr.Unavailable("Country created but no ID returned")
	}

	names := make([]string, 0, 5)
	for _, variant := range created.nameVariants() {
		if variant != "" {
			names = append(names, variant)
		}
	}
	return &Country{ID: created.ID, Names: names}, nil
}
