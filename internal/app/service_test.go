package service_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/okian/tavern/internal/adapters/repository"
	service "github.com/okian/tavern/internal/app"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/internal/domain/initiative"
	"github.com/okian/tavern/internal/domain/model"
	"github.com/okian/tavern/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithWriter(io.Discard))
	if err != nil {
		panic(err)
	}
}

func startedService(opts ...service.Option) (*service.Service, context.Context, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, ctx, func() {
		svc.Stop()
		cancel()
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it reports not started", func() {
				So(stats["started"], ShouldEqual, false)
				So(stats["catalogMonsters"], ShouldEqual, catalog.Builtin().Len())
			})
		})

		Convey("When using the builder before starting", func() {
			_, err := svc.CreateEncounter(context.Background(), "early")

			Convey("Then it reports not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting and stopping", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["encounters"], ShouldEqual, 0)

			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			svc.Stop()
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When evaluating two level-3 characters against two CR 1 monsters", func() {
			res, err := svc.Evaluate(ctx,
				[]encounter.PartyMember{{Level: 3}, {Level: 3}},
				[]encounter.MonsterGroup{{ChallengeRating: 1, Count: 2}},
			)

			Convey("Then the encounter is hard", func() {
				So(err, ShouldBeNil)
				So(res.AdjustedXP, ShouldEqual, 600.0)
				So(res.Difficulty, ShouldEqual, encounter.Hard)
			})
		})

		Convey("When a level is out of range", func() {
			_, err := svc.Evaluate(ctx, []encounter.PartyMember{{Level: 21}}, nil)
			So(errors.Is(err, encounter.ErrInvalidLevel), ShouldBeTrue)
		})

		Convey("When a count is zero", func() {
			_, err := svc.Evaluate(ctx,
				[]encounter.PartyMember{{Level: 1}},
				[]encounter.MonsterGroup{{ChallengeRating: 1, Count: 0}},
			)
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
		})
	})
}

func TestService_EncounterBuilder(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, stop := startedService()
		defer stop()

		e, err := svc.CreateEncounter(ctx, "  Goblin ambush ")
		So(err, ShouldBeNil)
		So(e.Name, ShouldEqual, "Goblin ambush")

		Convey("When a party and monsters are added", func() {
			_, err := svc.AddPlayer(ctx, e.ID, "Aria", 3)
			So(err, ShouldBeNil)
			_, err = svc.AddPlayer(ctx, e.ID, "", 3)
			So(err, ShouldBeNil)
			_, err = svc.AddMonster(ctx, e.ID, "goblin", 2)
			So(err, ShouldBeNil)
			got, err := svc.AddMonster(ctx, e.ID, "Goblin", 2)
			So(err, ShouldBeNil)

			Convey("Then repeated monsters merge into one group", func() {
				So(len(got.Monsters), ShouldEqual, 1)
				So(got.Monsters[0].Count, ShouldEqual, 4)
				So(got.Monsters[0].Name, ShouldEqual, "Goblin")
			})

			Convey("Then the encounter evaluates", func() {
				report, err := svc.EvaluateEncounter(ctx, e.ID)
				So(err, ShouldBeNil)
				So(report.EncounterID, ShouldEqual, e.ID)
				So(report.Result.TotalXP, ShouldEqual, 200)
				So(report.Result.Multiplier, ShouldEqual, 2.0)
				So(report.Result.AdjustedXP, ShouldEqual, 400.0)
				So(report.Result.Difficulty, ShouldEqual, encounter.Medium)
			})

			Convey("Then the summary counts individuals", func() {
				list, err := svc.ListEncounters(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
				So(list[0].PartySize, ShouldEqual, 2)
				So(list[0].MonsterCount, ShouldEqual, 4)
			})

			Convey("When combat starts", func() {
				current, _ := svc.GetEncounter(ctx, e.ID)
				list, err := svc.StartCombat(ctx, e.ID, service.CombatRolls{
					Players:  map[string]int{current.Party[0].ID: 15, current.Party[1].ID: 4},
					Monsters: map[string]int{current.Monsters[0].ID: 12},
				})

				Convey("Then every creature gets a numbered entry in order", func() {
					So(err, ShouldBeNil)
					names := make([]string, len(list))
					for i, c := range list {
						names[i] = c.Name
					}
					So(names, ShouldResemble, []string{"Aria", "Goblin 1", "Goblin 2", "Goblin 3", "Goblin 4", "Player 2"})
					So(list[1].Kind, ShouldEqual, initiative.Monster)
					So(svc.Tracker().Len(), ShouldEqual, 6)
				})
			})

			Convey("When members are removed", func() {
				current, _ := svc.GetEncounter(ctx, e.ID)
				got, err := svc.RemovePlayer(ctx, e.ID, current.Party[0].ID)
				So(err, ShouldBeNil)
				So(len(got.Party), ShouldEqual, 1)

				got, err = svc.RemoveMonster(ctx, e.ID, current.Monsters[0].ID)
				So(err, ShouldBeNil)
				So(got.Monsters, ShouldBeEmpty)

				_, err = svc.RemoveMonster(ctx, e.ID, "missing")
				So(errors.Is(err, service.ErrNotInRoster), ShouldBeTrue)
			})
		})

		Convey("When invalid input is given", func() {
			_, err := svc.AddPlayer(ctx, e.ID, "Old", 21)
			So(errors.Is(err, encounter.ErrInvalidLevel), ShouldBeTrue)

			_, err = svc.AddMonster(ctx, e.ID, "Goblin", 0)
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)

			_, err = svc.AddMonster(ctx, e.ID, "Goblen", 1)
			So(errors.Is(err, catalog.ErrMonsterNotFound), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `did you mean "Goblin"`)

			_, err = svc.AddPlayer(ctx, "missing", "A", 1)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the encounter is deleted", func() {
			So(svc.DeleteEncounter(ctx, e.ID), ShouldBeNil)
			_, err := svc.GetEncounter(ctx, e.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_MonsterLimit(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()
		lvl := []encounter.PartyMember{{Level: 1}}

		Convey("When one group is larger than the limit", func() {
			_, err := svc.Evaluate(ctx, lvl, []encounter.MonsterGroup{{ChallengeRating: 30, Count: math.MaxInt64 / 100000}})
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When groups together would overflow", func() {
			_, err := svc.Evaluate(ctx, lvl, []encounter.MonsterGroup{
				{ChallengeRating: 1, Count: math.MaxInt},
				{ChallengeRating: 1, Count: 2},
			})
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When groups together pass the limit by one", func() {
			_, err := svc.Evaluate(ctx, lvl, []encounter.MonsterGroup{
				{ChallengeRating: 1, Count: encounter.MaxMonsterCount},
				{ChallengeRating: 1, Count: 1},
			})
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When the roster is exactly at the limit", func() {
			res, err := svc.Evaluate(ctx, lvl, []encounter.MonsterGroup{{ChallengeRating: 1, Count: encounter.MaxMonsterCount}})
			So(err, ShouldBeNil)
			So(res.TotalXP, ShouldEqual, 200*encounter.MaxMonsterCount)
		})
	})

	Convey("Given a started service with a saved encounter", t, func() {
		svc, ctx, stop := startedService()
		defer stop()
		e, err := svc.CreateEncounter(ctx, "horde")
		So(err, ShouldBeNil)

		Convey("When adding more monsters than the limit at once", func() {
			_, err := svc.AddMonster(ctx, e.ID, "Goblin", math.MaxInt)
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
		})

		Convey("When merged groups would pass the limit", func() {
			_, err := svc.AddMonster(ctx, e.ID, "Goblin", encounter.MaxMonsterCount)
			So(err, ShouldBeNil)
			_, err = svc.AddMonster(ctx, e.ID, "Goblin", 1)
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
			_, err = svc.AddMonster(ctx, e.ID, "Orc", 1)
			So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)

			Convey("Then the stored roster is unchanged and still evaluates", func() {
				got, err := svc.GetEncounter(ctx, e.ID)
				So(err, ShouldBeNil)
				So(got.Monsters, ShouldHaveLength, 1)
				So(got.Monsters[0].Count, ShouldEqual, encounter.MaxMonsterCount)

				_, err = svc.EvaluateEncounter(ctx, e.ID)
				So(err, ShouldBeNil)
			})

			Convey("Then combat holds one entry per creature", func() {
				list, err := svc.StartCombat(ctx, e.ID, service.CombatRolls{})
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, encounter.MaxMonsterCount)
			})
		})
	})

	Convey("Given a store already holding an oversized encounter", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := repository.NewMemoryStore(ctx)
		defer func() { _ = store.Close() }()
		e, err := store.Create(ctx, model.Encounter{
			Name:     "flood",
			Monsters: []model.EncounterMonster{{ID: "g", Name: "Goblin", ChallengeRating: 0.25, Count: 2_000_000}},
		})
		So(err, ShouldBeNil)

		svc, ctx, stop := startedService(service.WithStore(store))
		defer stop()

		Convey("When starting combat", func() {
			_, err := svc.StartCombat(ctx, e.ID, service.CombatRolls{})

			Convey("Then it refuses before building combatants", func() {
				So(errors.Is(err, service.ErrInvalidCount), ShouldBeTrue)
				So(svc.Tracker().Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Capacity(t *testing.T) {
	Convey("Given a service capped at one encounter", t, func() {
		svc, ctx, stop := startedService(service.WithMaxEncounters(1))
		defer stop()

		_, err := svc.CreateEncounter(ctx, "")
		So(err, ShouldBeNil)

		Convey("When creating another", func() {
			_, err := svc.CreateEncounter(ctx, "second")
			So(errors.Is(err, repository.ErrCapacityExceeded), ShouldBeTrue)
		})
	})
}

func TestService_SearchMonsters(t *testing.T) {
	Convey("Given a service with a small search cap", t, func() {
		svc := service.New(service.WithMaxSearchResults(2), service.WithSuggestionLimit(1))
		ctx := context.Background()

		Convey("When many monsters match", func() {
			found, suggestions := svc.SearchMonsters(ctx, "dragon", 0)
			So(len(found), ShouldEqual, 2)
			So(suggestions, ShouldBeEmpty)
		})

		Convey("When nothing matches", func() {
			found, suggestions := svc.SearchMonsters(ctx, "owlbeer", 10)
			So(found, ShouldBeEmpty)
			So(len(suggestions), ShouldEqual, 1)
			So(suggestions[0].Name, ShouldEqual, "Owlbear")
		})
	})

	Convey("Given a service with a custom catalog", t, func() {
		c, err := catalog.New([]catalog.Monster{{Name: "Mimic", ChallengeRating: 2}})
		So(err, ShouldBeNil)
		svc := service.New(service.WithCatalog(c))

		m, err := svc.LookupMonster(context.Background(), "mimic")
		So(err, ShouldBeNil)
		So(m.XP(), ShouldEqual, 450)
	})
}
