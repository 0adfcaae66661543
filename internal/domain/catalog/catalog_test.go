package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuiltin(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		c := catalog.Builtin()

		Convey("Then it loads and is ordered by name", func() {
			So(c.Len(), ShouldBeGreaterThan, 50)
			all := c.All()
			for i := 1; i < len(all); i++ {
				So(strings.ToLower(all[i-1].Name), ShouldBeLessThan, strings.ToLower(all[i].Name))
			}
		})

		Convey("And every rating has XP", func() {
			for _, m := range c.All() {
				So(m.ChallengeRating.Known(), ShouldBeTrue)
			}
		})

		Convey("And lookups ignore case", func() {
			m, err := c.Lookup("  goBLin ")
			So(err, ShouldBeNil)
			So(m.Name, ShouldEqual, "Goblin")
			So(m.ChallengeRating, ShouldEqual, encounter.ChallengeRating(0.25))
			So(m.XP(), ShouldEqual, 50)
		})

		Convey("And unknown names are reported", func() {
			_, err := c.Lookup("Beholder Zombie Lord")
			So(errors.Is(err, catalog.ErrMonsterNotFound), ShouldBeTrue)
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		c := catalog.Builtin()

		Convey("When searching by substring", func() {
			found := c.Search("DRAGON", 0)

			Convey("Then every dragon is returned", func() {
				So(len(found), ShouldBeGreaterThan, 5)
				for _, m := range found {
					So(strings.ToLower(m.Name), ShouldContainSubstring, "dragon")
				}
			})
		})

		Convey("When searching with a limit", func() {
			So(len(c.Search("dragon", 3)), ShouldEqual, 3)
		})

		Convey("When the query is empty", func() {
			So(len(c.Search("", 0)), ShouldEqual, c.Len())
		})

		Convey("When nothing matches", func() {
			So(c.Search("xyzzy", 0), ShouldBeEmpty)
		})

		Convey("When filtering by challenge rating", func() {
			found := c.ByChallengeRating(0.125)
			So(len(found), ShouldBeGreaterThanOrEqualTo, 4)
			for _, m := range found {
				So(m.ChallengeRating, ShouldEqual, encounter.ChallengeRating(0.125))
			}
		})
	})
}

func TestSuggest(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		c := catalog.Builtin()

		Convey("When a name is misspelled", func() {
			found := c.Suggest("owlber", 3)

			Convey("Then the closest monster comes first", func() {
				So(found, ShouldNotBeEmpty)
				So(found[0].Name, ShouldEqual, "Owlbear")
			})
		})

		Convey("When one word of a longer name is misspelled", func() {
			found := c.Suggest("tarasque", 1)
			So(len(found), ShouldEqual, 1)
			So(found[0].Name, ShouldEqual, "Tarrasque")
		})

		Convey("When the query is far from everything", func() {
			So(c.Suggest("qqqqqqqqqqqq", 5), ShouldBeEmpty)
		})

		Convey("When the query is empty", func() {
			So(c.Suggest("  ", 5), ShouldBeNil)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given YAML catalogs", t, func() {
		Convey("When the file is valid", func() {
			c, err := catalog.Load(strings.NewReader(`
monsters:
  - { name: "Zombie", cr: "1/4" }
  - { name: "Adult Red Dragon", cr: "17", type: "dragon" }
`))
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 2)
			So(c.All()[0].Name, ShouldEqual, "Adult Red Dragon")
		})

		Convey("When a rating is outside the table", func() {
			_, err := catalog.Load(strings.NewReader(`monsters: [{ name: "Godling", cr: "27" }]`))
			So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("When a rating is malformed", func() {
			_, err := catalog.Load(strings.NewReader(`monsters: [{ name: "Blob", cr: "lots" }]`))
			So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
			So(errors.Is(err, encounter.ErrInvalidChallengeRating), ShouldBeTrue)
		})

		Convey("When names collide", func() {
			_, err := catalog.Load(strings.NewReader(`monsters: [{ name: "Orc", cr: "1/2" }, { name: "orc", cr: "1" }]`))
			So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("When the YAML is broken", func() {
			_, err := catalog.Load(strings.NewReader(`monsters: [`))
			So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("When loading from a file", func() {
			path := filepath.Join(t.TempDir(), "monsters.yaml")
			So(os.WriteFile(path, []byte(`monsters: [{ name: "Rat", cr: "0" }]`), 0o600), ShouldBeNil)

			c, err := catalog.LoadFile(path)
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 1)

			_, err = catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReferenceURL(t *testing.T) {
	Convey("Given a multi-word monster name", t, func() {
		Convey("Then it is kebab-cased onto the reference site", func() {
			So(catalog.ReferenceURL("Young  Red Dragon"), ShouldEqual,
				"https://www.aidedd.org/dnd/monstres.php?vo=young-red-dragon")
		})
	})
}
