package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBatchCommand(t *testing.T) {
	Convey("Given a config with two grid qubits", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "lmg.yaml")
		So(os.WriteFile(path, []byte(
			"results_dir: "+filepath.Join(dir, "results")+"\nbackend: emulator\ngrid_qubits: 2\n",
		), 0o644), ShouldBeNil)

		Convey("batch without --qubits should use the configured width", func() {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"batch", "--config", path})

			So(rootCmd.Execute(), ShouldBeNil)
			So(strings.TrimSpace(out.String()), ShouldEqual, filepath.Join(dir, "results", "batch", "2"))

			_, err := os.Stat(filepath.Join(dir, "results", "batch", "2", "clique3.jaqal"))
			So(err, ShouldBeNil)
		})
	})
}
