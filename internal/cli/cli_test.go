package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/tavern/internal/adapters/http/api"
	service "github.com/okian/tavern/internal/app"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	. "github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := New(&out, &errOut, "test")
	err := cmd.Run(context.Background(), append([]string{"tavern"}, args...))
	return out.String(), err
}

type fakeLookup map[string]catalog.Monster

func (f fakeLookup) LookupMonster(_ context.Context, name string) (catalog.Monster, error) {
	m, ok := f[name]
	if !ok {
		return catalog.Monster{}, catalog.ErrMonsterNotFound
	}
	return m, nil
}

func TestParseMonster(t *testing.T) {
	Convey("Given a catalog with a sphinx", t, func() {
		lookup := fakeLookup{"Sphinx": {Name: "Sphinx", ChallengeRating: 17}}
		ctx := context.Background()

		cases := []struct {
			raw  string
			want encounter.MonsterGroup
		}{
			{"1/4x3", encounter.MonsterGroup{ChallengeRating: 0.25, Count: 3}},
			{"2", encounter.MonsterGroup{ChallengeRating: 2, Count: 1}},
			{"Sphinx:2", encounter.MonsterGroup{ChallengeRating: 17, Count: 2}},
			{"Sphinx", encounter.MonsterGroup{ChallengeRating: 17, Count: 1}},
		}
		for _, tc := range cases {
			Convey("When parsing "+tc.raw, func() {
				got, err := parseMonster(ctx, lookup, tc.raw)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, tc.want)
			})
		}

		Convey("When the count is not a number", func() {
			_, err := parseMonster(ctx, lookup, "Sphinx:many")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When the name is unknown", func() {
			_, err := parseMonster(ctx, lookup, "Tarrasque")
			So(errors.Is(err, catalog.ErrMonsterNotFound), ShouldBeTrue)
		})

		Convey("When the value is empty", func() {
			_, err := parseMonster(ctx, lookup, "  ")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})
	})
}

func TestEvaluateCommand(t *testing.T) {
	Convey("Given the evaluate command", t, func() {
		Convey("When two level-3 characters face two CR 1 monsters", func() {
			out, err := run("evaluate", "--level", "3", "--level", "3", "--monster", "1x2")

			Convey("Then the encounter is hard", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Difficulty: HARD")
				So(out, ShouldContainSubstring, "Adjusted XP: 600")
			})
		})

		Convey("When monsters are named and JSON is requested", func() {
			out, err := run("evaluate", "--level", "1", "--monster", "goblin:4", "--json")
			So(err, ShouldBeNil)

			var res encounter.Result
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
			So(res.TotalXP, ShouldEqual, 200)
			So(res.MonsterCount, ShouldEqual, 4)
			So(res.Difficulty, ShouldEqual, encounter.Deadly)
		})

		Convey("When a level is out of range", func() {
			_, err := run("evaluate", "--level", "30")
			So(errors.Is(err, encounter.ErrInvalidLevel), ShouldBeTrue)
		})

		Convey("When a level is not a number", func() {
			_, err := run("evaluate", "--level", "three")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})
	})
}

func TestMonstersCommand(t *testing.T) {
	Convey("Given the monsters command", t, func() {
		Convey("When searching", func() {
			out, err := run("monsters", "search", "owlbear")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Owlbear")
			So(out, ShouldContainSubstring, "700 XP")
		})

		Convey("When searching with a typo", func() {
			out, err := run("monsters", "search", "owlbeer")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Did you mean")
		})

		Convey("When the limit is invalid", func() {
			_, err := run("monsters", "search", "--limit=-2", "orc")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When showing a monster", func() {
			out, err := run("monsters", "show", "hill", "giant")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Hill Giant")
			So(out, ShouldContainSubstring, "CR 5 (1800 XP)")
			So(out, ShouldContainSubstring, "hill-giant")
		})

		Convey("When showing without a name", func() {
			_, err := run("monsters", "show")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When a custom catalog is given", func() {
			path := filepath.Join(t.TempDir(), "monsters.yaml")
			So(os.WriteFile(path, []byte("monsters:\n  - { name: \"Mimic\", cr: \"2\" }\n"), 0o600), ShouldBeNil)

			out, err := run("--catalog", path, "monsters", "show", "mimic")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "CR 2 (450 XP)")

			_, err = run("--catalog", path, "monsters", "show", "goblin")
			So(errors.Is(err, catalog.ErrMonsterNotFound), ShouldBeTrue)
		})
	})
}

func TestTablesCommand(t *testing.T) {
	Convey("Given the tables command", t, func() {
		out, err := run("tables")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "1/8")
		So(out, ShouldContainSubstring, "155000")
		So(out, ShouldContainSubstring, "12700")
	})
}

func TestLoadtestCommand(t *testing.T) {
	Convey("Given a tavern API server", t, func() {
		svc := service.New()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When running a small load test", func() {
			out, err := run("loadtest", "--url", srv.URL+"/", "-n", "25", "-w", "3", "--seed", "11")

			Convey("Then every answer is verified", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "submitted 25, matched 25, mismatched 0, failed 0")
				So(out, ShouldContainSubstring, "deadly")
			})
		})

		Convey("When the worker count is invalid", func() {
			_, err := run("loadtest", "--url", srv.URL, "--workers=-1")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When the seed is not a number", func() {
			_, err := run("loadtest", "--url", srv.URL, "--seed", "abc")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})
	})
}
