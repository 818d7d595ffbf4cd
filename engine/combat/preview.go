package combat

import "github.com/nathoo/sparksaga/types"

// MemberPreview is one party member's seat and derived stats under a
// formation, as shown before committing to it.
type MemberPreview struct {
	ID       string
	Name     string
	Seat     types.Row
	Speed    float64
	Critical float64
	// Attack and Defense are the fractional row deltas.
	Attack  float64
	Defense float64
}

// Preview seats every member of the party in a formation without starting
// a battle.
func Preview(formations FormationSource, party *types.Party, formationID string) []MemberPreview {
	f, _ := formations.Get(formationID)
	rules := &Rules{Formations: formations}
	out := make([]MemberPreview, 0, len(party.Members))
	for i := range party.Members {
		m := &party.Members[i]
		c := NewCombatant(m.ID, m.Name, m.Stats, nil, formationID, Seat(f, i, m), rules)
		mods := c.modifiers()
		out = append(out, MemberPreview{
			ID:       m.ID,
			Name:     m.Name,
			Seat:     c.Position,
			Speed:    c.FinalSpeed(),
			Critical: c.FinalCriticalChance(),
			Attack:   mods.Attack,
			Defense:  mods.Defense,
		})
	}
	return out
}
