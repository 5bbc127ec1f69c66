package domain

import "time"

// Profile is the per-user persisted record of token balance and entered
// draws. Invariants: Tokens >= 0 at all times, EnteredDraws holds no
// duplicates, and draw ids are only ever added.
type Profile struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	Tokens       int       `json:"tokens"`
	EnteredDraws []string  `json:"entered_draws"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasEntered reports whether the profile already entered the given draw.
func (p *Profile) HasEntered(drawID string) bool {
	for _, id := range p.EnteredDraws {
		if id == drawID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (p *Profile) Clone() Profile {
	out := *p
	out.EnteredDraws = make([]string, len(p.EnteredDraws))
	copy(out.EnteredDraws, p.EnteredDraws)
	return out
}

// ProfileSnapshot is the render-ready view of the ledger state for a user.
type ProfileSnapshot struct {
	UserID       string    `json:"user_id"`
	Tokens       int       `json:"tokens"`
	EnteredDraws []string  `json:"entered_draws"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot converts a profile into its presentation view.
func (p *Profile) Snapshot() ProfileSnapshot {
	draws := make([]string, len(p.EnteredDraws))
	copy(draws, p.EnteredDraws)
	return ProfileSnapshot{
		UserID:       p.UserID,
		Tokens:       p.Tokens,
		EnteredDraws: draws,
		UpdatedAt:    p.UpdatedAt,
	}
}
