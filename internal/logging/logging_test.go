package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	Convey("ParseLevel accepts zap level names", t, func() {
		lvl, err := ParseLevel("")
		So(err, ShouldBeNil)
		So(lvl, ShouldEqual, zapcore.InfoLevel)

		lvl, err = ParseLevel("debug")
		So(err, ShouldBeNil)
		So(lvl, ShouldEqual, zapcore.DebugLevel)

		_, err = ParseLevel("chatty")
		So(err, ShouldNotBeNil)
	})
}

func TestNew(t *testing.T) {
	Convey("Log lines carry a timestamp, level, message and fields", t, func() {
		var buf bytes.Buffer
		log := New(&buf, zapcore.InfoLevel)
		log.Debug("hidden")
		log.Warn("Retrying due to error", zap.String("bucket", "b1"))

		out := buf.String()
		So(out, ShouldNotContainSubstring, "hidden")
		So(out, ShouldContainSubstring, " - WARN - Retrying due to error")
		So(out, ShouldContainSubstring, `"bucket": "b1"`)
		So(out, ShouldStartWith, "20")
	})
}

func TestFileLogger(t *testing.T) {
	Convey("A file logger writes to its file and closes cleanly", t, func() {
		path := filepath.Join(t.TempDir(), "in_output.log")
		log, err := NewFileLogger(path, zapcore.InfoLevel)
		So(err, ShouldBeNil)
		So(log.Path(), ShouldEqual, path)

		log.Info("Migrated bucket", zap.String("project", "p1"))
		So(log.Close(), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, "INFO - Migrated bucket")
	})

	Convey("An unwritable path is an error", t, func() {
		_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.log"), zapcore.InfoLevel)
		So(err, ShouldNotBeNil)
	})
}
