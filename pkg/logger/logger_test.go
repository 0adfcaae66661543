package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns it", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown level", func() {
			err := Init(WithLevel("chatty"))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing text to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "encounter evaluated", String("difficulty", "hard"), Int("monsters", 3))

			Convey("Then the message, fields and caller are written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "encounter evaluated")
				So(out, ShouldContainSubstring, "difficulty=hard")
				So(out, ShouldContainSubstring, "monsters=3")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When debug is below the level", func() {
			Get().Debug(ctx, "hidden")
			So(buf.String(), ShouldBeEmpty)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
		})

		Convey("When using a named logger", func() {
			Named("api").Warn(ctx, "slow", Float64("ms", 12.5))
			So(buf.String(), ShouldContainSubstring, "api.ms=12.5")
		})
	})

	Convey("Given a logger writing JSON", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithJSON(true), WithLevel("warn")), ShouldBeNil)

		Convey("When logging an error", func() {
			Get().Error(context.Background(), "store failed", Error(errors.New("full")), Bool("retry", false))

			Convey("Then a JSON record is written", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "store failed")
				So(rec["error"], ShouldEqual, "full")
				So(rec["retry"], ShouldEqual, false)
			})
		})

		Convey("When logging below the level", func() {
			Get().Info(context.Background(), "quiet")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"", "debug", "INFO", " warn ", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
