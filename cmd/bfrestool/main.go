// bfrestool is a CLI utility for inspecting and converting BFRES model
// containers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// command runs one subcommand with its own flag set.
type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"info":  cmdInfo,
	"json":  cmdJSON,
	"obj":   cmdOBJ,
	"gltf":  cmdGLTF,
	"dump":  cmdDump,
	"serve": cmdServe,
}

// env carries the output streams so commands can be run from tests.
type env struct {
	stdout io.Writer
	stderr io.Writer
	create func(path string) (io.WriteCloser, error) // nil means os.Create
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	name := args[0]
	switch name {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		printUsage(stderr)
		return 1
	}

	if err := cmd(ctx, &env{stdout: stdout, stderr: stderr}, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bfrestool - BFRES model container utility

Usage:
  bfrestool <command> [options]

Commands:
  info <file>             Show container, model, shape and material names
  json <file>             Write the flattened container as JSON
  obj <file>              Write every shape as a Wavefront OBJ object
  gltf <file> [model]     Write a model as glTF (all models with -out)
  dump <file>             Dump the decoded structures
  serve [dir]             Browse a directory of containers over HTTP

Common options:
  -config <path>          Config file (default ./bfrestool.yaml)
  -debug                  Enable debug logging
  -out <dir>              Write files to dir instead of stdout
  -addr <host:port>       Listen address for serve

Yaz0-compressed files (.szs) are decompressed transparently.

Examples:
  bfrestool info Mario.bfres
  bfrestool obj -out exports Mario.bfres
  bfrestool gltf -binary Mario.szs Mario
  bfrestool serve -addr :8000 ./models`)
}
