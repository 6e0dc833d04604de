// Package ranking plans profile-store queries for a location and shapes
// their results into leaderboards.
package ranking

// Player is a rated profile as read from the profile store.
type Player struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Rating    *float64 `json:"rating"`
	Region    string   `json:"region"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	AvatarURL string   `json:"avatar_url"`
}

// Rated reports whether the player is eligible for ranking.
func (p Player) Rated() bool { return p.Rating != nil }

// Result is an interpreted leaderboard.
type Result struct {
	Count int      `json:"count"`
	Data  []Player `json:"data"`
}

// Interpret turns store rows into a Result. Data is never nil so that an
// empty leaderboard encodes as [].
func Interpret(rows []Player) Result {
	if rows == nil {
		rows = []Player{}
	}
	return Result{Count: len(rows), Data: rows}
}
