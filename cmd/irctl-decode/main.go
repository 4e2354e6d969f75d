// Command irctl-decode is a minimal illustrative shell over remote.Decoder:
// it loads a remote configuration (lircd.conf or TOML keymap, auto-detected
// by file extension unless overridden) and reports which key a captured
// raw-ir or mode2 signal corresponds to.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
	"github.com/mdlayher/irctl/remote"
)

func main() {
	var (
		format = pflag.StringP("format", "f", "rawir", "input format: rawir or mode2")
		kind   = pflag.StringP("kind", "k", "", "remote file kind: lircd or keymap (default: guess from extension)")
	)
	pflag.Parse()

	log := irlog.Default()

	if pflag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: irctl-decode [-f rawir|mode2] [-k lircd|keymap] <remote-file> <signal>")
		os.Exit(2)
	}

	remotePath, signal := pflag.Arg(0), pflag.Arg(1)

	remotes, err := loadRemotes(remotePath, *kind, log)
	if err != nil {
		log.Error("loading remote file", "err", err)
		os.Exit(1)
	}

	var msg irp.Message
	switch *format {
	case "rawir":
		msg.Raw, err = irp.ParseRawIR(signal)
	case "mode2":
		msg, err = irp.ParseMode2(signal)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		log.Error("parsing signal", "err", err)
		os.Exit(1)
	}

	samples := irp.InfraredDataFromRaw(msg.Raw)

	for _, rem := range remotes {
		dec, err := rem.Decoder(irp.MatcherOptions{})
		if err != nil {
			log.Error("building decoder", "remote", rem.Name, "err", err)
			continue
		}
		for _, s := range samples {
			name, code, ok := dec.Feed(s)
			if !ok {
				continue
			}
			if name != "" {
				fmt.Printf("%s: %s (code=%#x)\n", rem.Name, name, code)
			} else {
				fmt.Printf("%s: unmapped (code=%#x)\n", rem.Name, code)
			}
		}
	}
}

func loadRemotes(path, kind string, log irlog.Logger) ([]*remote.Remote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if kind == "" {
		switch {
		case strings.HasSuffix(path, ".toml"):
			kind = "keymap"
		default:
			kind = "lircd"
		}
	}

	switch kind {
	case "lircd":
		return remote.ParseLircd(f, log)
	case "keymap":
		return remote.ParseKeymap(f, log)
	default:
		return nil, fmt.Errorf("unknown remote file kind %q", kind)
	}
}
