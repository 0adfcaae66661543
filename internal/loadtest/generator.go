package loadtest

import (
	"math/rand/v2"

	"github.com/okian/tavern/internal/domain/encounter"
)

// Generate builds n random encounters. The same seed yields the same cases.
// Parties range from one member to maxParty; monster groups draw from every
// rating in the XP table.
func Generate(cfg Config, n int) []Case {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))
	ratings := encounter.XPTable()

	cases := make([]Case, n)
	for i := range cases {
		party := make([]encounter.PartyMember, 1+rng.IntN(cfg.MaxPartySize))
		for j := range party {
			party[j].Level = 1 + rng.IntN(encounter.MaxLevel)
		}
		monsters := make([]encounter.MonsterGroup, rng.IntN(cfg.MaxGroups+1))
		for j := range monsters {
			monsters[j] = encounter.MonsterGroup{
				ChallengeRating: ratings[rng.IntN(len(ratings))].ChallengeRating,
				Count:           1 + rng.IntN(cfg.MaxGroupSize),
			}
		}
		cases[i] = Case{Party: party, Monsters: monsters}
	}
	return cases
}
