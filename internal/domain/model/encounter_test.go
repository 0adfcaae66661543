package model_test

import (
	"testing"
	"time"

	"github.com/okian/tavern/internal/domain/encounter"
	model "github.com/okian/tavern/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func sample() model.Encounter {
	return model.Encounter{
		ID:   "enc-1",
		Name: "Goblin ambush",
		Party: []model.Player{
			{ID: "p1", Name: "Aria", Level: 3},
			{ID: "p2", Level: 3},
		},
		Monsters: []model.EncounterMonster{
			{ID: "m1", Name: "Goblin", ChallengeRating: 0.25, Count: 4},
			{ID: "m2", Name: "Bugbear", ChallengeRating: 1, Count: 1},
		},
		CreatedAt: time.Now(),
	}
}

func TestEncounterRoster(t *testing.T) {
	convey.Convey("Given a saved encounter", t, func() {
		e := sample()

		convey.Convey("When converting it to evaluator input", func() {
			party, groups := e.Roster()

			convey.Convey("Then levels and groups carry over", func() {
				convey.So(party, convey.ShouldResemble, []encounter.PartyMember{{Level: 3}, {Level: 3}})
				convey.So(groups, convey.ShouldResemble, []encounter.MonsterGroup{
					{ChallengeRating: 0.25, Count: 4},
					{ChallengeRating: 1, Count: 1},
				})
			})

			convey.Convey("Then the result evaluates", func() {
				res, err := encounter.Evaluate(party, groups)
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.TotalXP, convey.ShouldEqual, 400)
				convey.So(res.MonsterCount, convey.ShouldEqual, e.MonsterCount())
			})

			convey.Convey("Then changing the input leaves the encounter alone", func() {
				party[0].Level = 20
				groups[0].Count = 99
				convey.So(e.Party[0].Level, convey.ShouldEqual, 3)
				convey.So(e.Monsters[0].Count, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When cloning it", func() {
			c := e.Clone()
			c.Party[0].Level = 10
			c.Monsters = append(c.Monsters, model.EncounterMonster{ID: "m3", Count: 1})

			convey.Convey("Then the original is unchanged", func() {
				convey.So(e.Party[0].Level, convey.ShouldEqual, 3)
				convey.So(len(e.Monsters), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When it is empty", func() {
			var empty model.Encounter
			party, groups := empty.Roster()
			convey.So(party, convey.ShouldBeEmpty)
			convey.So(groups, convey.ShouldBeEmpty)
			convey.So(empty.MonsterCount(), convey.ShouldEqual, 0)
		})
	})
}
