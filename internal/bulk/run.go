package bulk

import (
	"context"
	"strings"

	"crmbulk_backend/platform/logger"

	"github.com/google/uuid"
)

// RunContext carries the remote state caches for one bulk run: the tag and
// country catalogs, the created-tag log and the default numbering ranges.
// It is built once per run and threaded through every row; it is never
// shared between runs.
type RunContext struct {
	RunID string

	// Tags maps tag titles (original case and lowercase) to IDs. Nil when
	// the run does not touch tags.
	Tags map[string]int
	// Countries maps lowercase country names and ISO codes to IDs. Nil when
	// the catalog could not be fetched; country resolution is then skipped.
	Countries map[string]int

	// CreatedTags lists tag names created during this run, in creation order.
	CreatedTags []string

	clientRangeID   int
	supplierRangeID int
	rangesLoaded    bool
}

// Engine runs bulk imports and updates against one CRM client.
type Engine struct {
	crm CRM
	log *logger.Logger
}

// NewEngine builds an engine around a CRM client.
func NewEngine(crm CRM, log *logger.Logger) *Engine {
	return &Engine{crm: crm, log: log}
}

// newRunContext assembles the per-run caches. Catalog fetch failures degrade
// the run instead of aborting it: the affected resolution is skipped and a
// warning is logged.
func (e *Engine) newRunContext(ctx context.Context, needCountries, needTags bool) *RunContext {
	rc := &RunContext{RunID: uuid.NewString()}

	if needCountries {
		countries, err := e.crm.GetAllCountries(ctx)
		if err != nil {
			e.log.Warn("country catalog unavailable, skipping country resolution", "error", err)
		} else {
			rc.Countries = countries
		}
	}

	if needTags {
		tags, err := e.crm.GetAllTags(ctx)
		if err != nil {
			e.log.Warn("tag catalog unavailable, skipping tag resolution", "error", err)
		} else {
			rc.Tags = tags
		}
	}

	return rc
}

// lookupOrCreateCountry resolves a free-text country name to an ID, creating
// the country when the catalog does not know it. Returns 0 when resolution is
// unavailable or creation fails; the address is then sent without a country.
func (e *Engine) lookupOrCreateCountry(ctx context.Context, name string, rc *RunContext) int {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || rc.Countries == nil {
		return 0
	}

	normalized := strings.ToLower(trimmed)
	if id, ok := rc.Countries[normalized]; ok {
		return id
	}

	created, err := e.crm.CreateCountry(ctx, trimmed)
	if err != nil {
		e.log.Warn("could not create country", "name", trimmed, "error", err)
		return 0
	}

	for _, variant := range created.Names {
		rc.Countries[strings.ToLower(variant)] = created.ID
	}
	rc.Countries[normalized] = created.ID
	return created.ID
}

// defaultNumberRanges returns the default client and supplier numbering-range
// IDs, fetching the catalog at most once per run. Zero means no default range
// and leaves numbering to the server.
func (e *Engine) defaultNumberRanges(ctx context.Context, rc *RunContext) (int, int) {
	if !rc.rangesLoaded {
		rc.rangesLoaded = true
		ranges, err := e.crm.GetNumberRanges(ctx)
		if err != nil {
			e.log.Warn("number range catalog unavailable, using server defaults", "error", err)
			return 0, 0
		}
		for _, r := range ranges {
			if !r.IsDefault {
				continue
			}
			switch strings.ToLower(r.Type) {
			case "client":
				rc.clientRangeID = r.ID
			case "supplier":
				rc.supplierRangeID = r.ID
			}
		}
	}
	return rc.clientRangeID, rc.supplierRangeID
}
