package encounter_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/tavern/internal/domain/encounter"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseChallengeRating(t *testing.T) {
	Convey("Given challenge rating strings", t, func() {
		Convey("When parsing fractions and decimals", func() {
			cases := map[string]encounter.ChallengeRating{
				"0":     0,
				"1/8":   0.125,
				"0.125": 0.125,
				"1/4":   0.25,
				" 1/2 ": 0.5,
				"17":    17,
				"30":    30,
			}

			Convey("Then each maps to its numeric rating", func() {
				for in, want := range cases {
					got, err := encounter.ParseChallengeRating(in)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				}
			})
		})

		Convey("When parsing garbage", func() {
			for _, in := range []string{"", "abc", "1/3x", "-1", "NaN", "nan", "+Inf", "Inf", "-Inf", "infinity"} {
				_, err := encounter.ParseChallengeRating(in)
				So(errors.Is(err, encounter.ErrInvalidChallengeRating), ShouldBeTrue)
			}
		})

		Convey("When parsing a rating outside the table", func() {
			cr, err := encounter.ParseChallengeRating("25")

			Convey("Then it parses but is not known", func() {
				So(err, ShouldBeNil)
				So(cr.Known(), ShouldBeFalse)
				So(encounter.XPForCR(cr), ShouldEqual, 0)
			})
		})
	})
}

func TestChallengeRating_Format(t *testing.T) {
	Convey("Given ratings", t, func() {
		Convey("Then fractions print as stat blocks do", func() {
			So(encounter.ChallengeRating(0.125).String(), ShouldEqual, "1/8")
			So(encounter.ChallengeRating(0.25).String(), ShouldEqual, "1/4")
			So(encounter.ChallengeRating(0.5).String(), ShouldEqual, "1/2")
			So(encounter.ChallengeRating(0).String(), ShouldEqual, "0")
			So(encounter.ChallengeRating(12).String(), ShouldEqual, "12")
		})

		Convey("And JSON accepts strings and numbers", func() {
			var groups []encounter.MonsterGroup
			err := json.Unmarshal([]byte(`[{"cr":"1/4","count":2},{"cr":3,"count":1},{"cr":0.5,"count":1}]`), &groups)
			So(err, ShouldBeNil)
			So(groups[0].ChallengeRating, ShouldEqual, encounter.ChallengeRating(0.25))
			So(groups[1].ChallengeRating, ShouldEqual, encounter.ChallengeRating(3))
			So(groups[2].ChallengeRating, ShouldEqual, encounter.ChallengeRating(0.5))
		})

		Convey("And JSON output uses the printed form", func() {
			out, err := json.Marshal(encounter.MonsterGroup{ChallengeRating: 0.125, Count: 1})
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"cr":"1/8","count":1}`)
		})

		Convey("And malformed JSON ratings are rejected", func() {
			var g encounter.MonsterGroup
			err := json.Unmarshal([]byte(`{"cr":"dragon","count":1}`), &g)
			So(errors.Is(err, encounter.ErrInvalidChallengeRating), ShouldBeTrue)

			for _, raw := range []string{`{"cr":"NaN","count":1}`, `{"cr":"+Inf","count":1}`} {
				err = json.Unmarshal([]byte(raw), &g)
				So(errors.Is(err, encounter.ErrInvalidChallengeRating), ShouldBeTrue)
			}
		})
	})
}
