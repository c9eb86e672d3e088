// Command mapyrus is the CLI entry point: run a list of script files
// (or stdin), start an HTTP front end with `server PORT`, or print usage
// when launched with no arguments (a swing GUI front end is out of
// scope here). Flat dispatch-with-alias-table shape; no flags library
// is imported.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"mapyrus/internal/dataset"
	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/httpfront"
	"mapyrus/internal/interp"
	"mapyrus/internal/output"
	"mapyrus/internal/preprocess"
)

var stderrIsTTY = isatty.IsTerminal(os.Stderr.Fd())

func main() {
	os.Exit(mapyrusMain())
}

// mapyrusMain is main()'s body split out as an int-returning function so
// the testscript harness in main_test.go can register it as a fake
// "mapyrus" binary without forking a real subprocess per script.
func mapyrusMain() int {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageString())
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usageString())
		return 0
	case "server":
		if len(args) < 2 {
			return reportFatal(mapyruserr.New(mapyruserr.WrongParameters, "server requires a PORT argument"))
		}
		return runServer(args[1], args[2:])
	default:
		return runFiles(args)
	}
}

func usageString() string {
	return "usage: mapyrus FILE...  |  mapyrus -  |  mapyrus server PORT [scriptdir]\n"
}

func fatalStyle(msg string) string {
	if stderrIsTTY {
		return "\x1b[31m" + msg + "\x1b[0m"
	}
	return msg
}

func reportFatal(err error) int {
	fmt.Fprintln(os.Stderr, fatalStyle(err.Error()))
	return 1
}

// runFiles implements §6 CLI mode (a): run each named script in turn
// against one Interpreter, "-" meaning stdin, exiting 1 on the first
// error encountered in any of them.
func runFiles(files []string) int {
	it := interp.New(output.NewRecording(), os.Stdin, os.Stdout)
	it.SetDatasetOpener(dataset.Open)
	defer it.Close()

	start := time.Now()
	for _, name := range files {
		if err := runOne(it, name); err != nil {
			return reportFatal(mapyruserr.Located(name, 0, err))
		}
	}
	log.Printf("rendered %d script(s) in %s", len(files), humanize.RelTime(start, time.Now(), "", ""))
	return 0
}

func runOne(it *interp.Interpreter, name string) error {
	var r io.Reader
	if name == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return mapyruserr.Wrap(mapyruserr.Io, err, "open script")
		}
		defer f.Close()
		r = f
	}
	pp := preprocess.New(name, r, func(inc string) (io.ReadCloser, error) {
		return os.Open(inc)
	})
	defer pp.Close()
	return it.RunSource(pp)
}

// runServer implements §6 CLI mode (b): an HTTP front end that clones a
// template Interpreter per request, serving scripts out of scriptdir
// (defaulting to the working directory).
func runServer(port string, rest []string) int {
	scriptDir := "."
	if len(rest) > 0 {
		scriptDir = rest[0]
	}
	tmpl := httpfront.NewTemplate(scriptDir, dataset.Open)
	srv := httpfront.NewServer(tmpl)
	if secret := os.Getenv("MAPYRUS_SECRET"); secret != "" {
		if err := srv.RequireSecret(secret); err != nil {
			return reportFatal(mapyruserr.Wrap(mapyruserr.Io, err, "hash MAPYRUS_SECRET"))
		}
	}

	addr := ":" + port
	log.Printf("mapyrus server listening on %s, scripts from %s", addr, scriptDir)
	if err := http.ListenAndServe(addr, srv); err != nil {
		return reportFatal(mapyruserr.Wrap(mapyruserr.Io, err, "http server"))
	}
	return 0
}
