// Command mpk inspects and converts MessagePack data.
//
//	mpk decode [-c] [-s] [--hex] [file]    MessagePack to JSON
//	mpk encode [--hex-out] [file]          JSON or YAML to MessagePack
//	mpk diag [-s] [--hex] [file]           diagnostic notation
//	mpk validate [--hex] [file]            report values not at their minimal encoding
//	mpk cbor [-s] [--hex] [--hex-out] [file] MessagePack to CBOR
//
// Input is read from file when it names a regular file, and from stdin otherwise.
// MPK_HEX, MPK_COMPACT and MPK_VERBOSE set the defaults of --hex, --compact and --verbose.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	env "github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	Hex     bool `env:"MPK_HEX"`
	Compact bool `env:"MPK_COMPACT"`
	Verbose bool `env:"MPK_VERBOSE"`
}

// invocation is what a command runs with.
type invocation struct {
	config
	Slurp  bool
	HexOut bool
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Logger *zap.Logger
}

type command struct {
	summary string
	slurp   bool
	hexIn   bool
	hexOut  bool
	run     func(inv *invocation) error
}

var commands = map[string]command{
	"decode":   {summary: "convert MessagePack to JSON", slurp: true, hexIn: true, run: runDecode},
	"encode":   {summary: "convert JSON or YAML to MessagePack", hexOut: true, run: runEncode},
	"diag":     {summary: "print MessagePack in diagnostic notation", slurp: true, hexIn: true, run: runDiag},
	"validate": {summary: "report values not written at their minimal encoding", hexIn: true, run: runValidate},
	"cbor":     {summary: "convert MessagePack to CBOR", slurp: true, hexIn: true, hexOut: true, run: runCBOR},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitCoder is an error that sets the exit status.
type exitCoder interface {
	ExitCode() int
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		if name != "-h" && name != "--help" && name != "help" {
			fmt.Fprintf(stderr, "mpk: unknown command %q\n", name)
		}
		usage(stderr)
		return 2
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stderr, "mpk: %v\n", err)
		return 2
	}

	inv := &invocation{config: cfg, Stdin: stdin, Stdout: stdout}
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVarP(&inv.Verbose, "verbose", "v", cfg.Verbose, "log debug output to stderr")
	if cmd.slurp {
		flagSet.BoolVarP(&inv.Slurp, "slurp", "s", false, "read a sequence of values instead of exactly one")
	}
	if cmd.hexIn {
		flagSet.BoolVarP(&inv.Hex, "hex", "x", cfg.Hex, "treat input as hex")
	}
	if cmd.hexOut {
		flagSet.BoolVar(&inv.HexOut, "hex-out", false, "write output as hex")
	}
	if name == "decode" {
		flagSet.BoolVarP(&inv.Compact, "compact", "c", cfg.Compact, "write JSON on a single line")
	}
	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	inv.Args = flagSet.Args()
	inv.Logger = newLogger(inv.Verbose, stderr)
	defer func() { _ = inv.Logger.Sync() }()

	inv.Logger.Debug("running command", zap.String("command", name), zap.Strings("args", inv.Args))
	if err := cmd.run(inv); err != nil {
		fmt.Fprintf(stderr, "mpk %s: %v\n", name, err)
		var coder exitCoder
		if errors.As(err, &coder) {
			return coder.ExitCode()
		}
		return 1
	}
	return 0
}

// newLogger returns a logger writing to w. Only warnings are logged unless verbose is set.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	level := zapcore.WarnLevel
	if verbose {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), level)
	return zap.New(core)
}

func usage(w io.Writer) {
	names := lo.Keys(commands)
	sort.Strings(names)

	fmt.Fprintln(w, "usage: mpk <command> [flags] [file]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
}
