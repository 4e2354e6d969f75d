// Command irctl-encode is a minimal illustrative shell over irp.Encode:
// it renders one IRP definition plus a set of parameter bindings to a
// raw-ir text line on stdout. It is not a general CLI for this module's
// other front-ends (Pronto, lircd.conf, TOML keymaps); those are library
// entry points meant for embedding.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
)

func main() {
	var (
		params  = pflag.StringP("params", "p", "", "comma-separated NAME=VALUE parameter bindings")
		repeats = pflag.IntP("repeats", "r", 0, "number of repeats to encode")
	)
	pflag.Parse()

	log := irlog.Default()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: irctl-encode [-p NAME=VALUE,...] [-r repeats] <irp-string>")
		os.Exit(2)
	}

	ir, err := irp.Parse(pflag.Arg(0))
	if err != nil {
		log.Error("parsing irp", "err", err)
		os.Exit(1)
	}

	vars, err := parseParams(*params)
	if err != nil {
		log.Error("parsing params", "err", err)
		os.Exit(1)
	}

	msg, err := irp.Encode(ir, vars, *repeats)
	if err != nil {
		log.Error("encoding", "err", err)
		os.Exit(1)
	}

	fmt.Println(irp.FormatRawIR(msg.Raw))
}

func parseParams(s string) (irp.Vartable, error) {
	vars := irp.NewVartable()
	if s == "" {
		return vars, nil
	}
	for _, kv := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed binding %q, expected NAME=VALUE", kv)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(value), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		vars.Set(strings.TrimSpace(name), v, 32)
	}
	return vars, nil
}
