package domain

import (
	"encoding/json"
	"time"
)

// Draw is one prize entry pool from the shared catalog. The catalog is
// owned and broadcast by the backing store; clients only read it.
type Draw struct {
	ID        string `json:"id"`
	Prize     string `json:"prize"`
	TokenCost int    `json:"tokenCost"`
}

// DrawWithEntryStatus decorates a draw with the caller's entry state.
type DrawWithEntryStatus struct {
	Draw
	Entered bool `json:"entered"`
}

// CatalogSnapshot is the mirrored view of the active draw list.
type CatalogSnapshot struct {
	Draws     []Draw    `json:"draws"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogPayload is the wire format of a catalog broadcast:
// {"list":[{"id":...,"prize":...,"tokenCost":...}]}.
type CatalogPayload struct {
	List []Draw `json:"list"`
}

// ParseCatalogPayload decodes a catalog broadcast. A malformed payload
// (bad JSON, missing or non-array list) degrades to an empty list; it
// never returns an error. Entries with an empty id or non-positive cost
// are dropped.
func ParseCatalogPayload(raw []byte) []Draw {
	var payload CatalogPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return []Draw{}
	}
	if payload.List == nil {
		return []Draw{}
	}

	draws := make([]Draw, 0, len(payload.List))
	for _, d := range payload.List {
		if d.ID == "" || d.TokenCost <= 0 {
			continue
		}
		draws = append(draws, d)
	}
	return draws
}
