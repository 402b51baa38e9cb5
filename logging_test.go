package lmg

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewLogger(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer

		Convey("It should hide debug lines unless verbose", func() {
			logger := NewLogger(&buf, false)
			So(logger.GetLevel(), ShouldEqual, log.InfoLevel)

			logger.Debug("hidden")
			logger.Info("shown", "qubits", 2)
			So(buf.String(), ShouldNotContainSubstring, "hidden")
			So(buf.String(), ShouldContainSubstring, "qubits=2")
			So(buf.String(), ShouldContainSubstring, "lmg")
		})

		Convey("Verbose should enable debug lines", func() {
			logger := NewLogger(&buf, true)
			logger.Debug("visible")
			So(buf.String(), ShouldContainSubstring, "visible")
		})
	})
}
