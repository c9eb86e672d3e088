package main

import (
	"os"
	"testing"

	"github.com/kr/pretty"
	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain registers mapyrusMain as an in-process fake "mapyrus" binary,
// avoiding a real executable build per test run.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"mapyrus": mapyrusMain,
	}))
}

// TestScripts runs the §8 end-to-end scenarios as golden testscript
// fixtures: hello-world SVG, arithmetic/string concat, and regex match.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

func TestUsageString(t *testing.T) {
	got := usageString()
	want := "usage: mapyrus FILE...  |  mapyrus -  |  mapyrus server PORT [scriptdir]\n"
	if got != want {
		t.Fatalf("usage mismatch: %s", pretty.Sprint(got))
	}
}
