package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/bfres-decoder/internal/config"
	"github.com/Faultbox/bfres-decoder/internal/logger"
	"github.com/Faultbox/bfres-decoder/internal/server"
	"github.com/Faultbox/bfres-decoder/pkg/bfres"
	"github.com/Faultbox/bfres-decoder/pkg/gltfexport"
	"github.com/Faultbox/bfres-decoder/pkg/view"
	"github.com/Faultbox/bfres-decoder/pkg/wavefront"
	"github.com/Faultbox/bfres-decoder/pkg/yaz0"
)

func (e *env) flagSet(name string) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs, config.RegisterFlags(fs)
}

// parse parses args, loads the config and initializes logging.
func (e *env) parse(fs *flag.FlagSet, flags *config.Flags, args []string) (*config.Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}

// readContainer reads and decodes path, decompressing Yaz0 first.
func readContainer(path string) (*bfres.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if yaz0.IsCompressed(data) {
		logger.Debug("decompressing", zap.String("file", path))
	}
	data, err = yaz0.Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	ct, err := bfres.Decode(data, bfres.WithLogger(logger.Named("bfres")))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ct, nil
}

// write runs fn on name inside the configured output directory, or on
// stdout when none is set. A failed Close is reported when fn succeeds.
func (e *env) write(cfg *config.Config, name string, fn func(io.Writer) error) (err error) {
	if cfg.Export.OutDir == "" {
		return fn(e.stdout)
	}
	if err := os.MkdirAll(cfg.Export.OutDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Export.OutDir, name)
	logger.Info("writing", zap.String("path", path))

	create := e.create
	if create == nil {
		create = func(p string) (io.WriteCloser, error) { return os.Create(p) }
	}
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return fn(f)
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func singleArg(fs *flag.FlagSet, usage string) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("usage: bfrestool %s", usage)
	}
	return fs.Arg(0), nil
}

func cmdInfo(_ context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("info")
	if _, err := e.parse(fs, flags, args); err != nil {
		return err
	}
	path, err := singleArg(fs, "info <file>")
	if err != nil {
		return err
	}
	ct, err := readContainer(path)
	if err != nil {
		return err
	}

	w := e.stdout
	fmt.Fprintf(w, "Container: %s\n", ct.Header.Name)
	fmt.Fprintf(w, "Version:   %s\n", ct.Header.VersionString())
	fmt.Fprintf(w, "Alignment: %#x\n", ct.Header.Alignment)
	fmt.Fprintf(w, "Models:    %d\n", len(ct.Models))

	for _, m := range ct.Models {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Model %s (%d vertices)\n", m.Name(), m.TotalVertexCount())
		fmt.Fprintf(w, "  shapes:    %s\n", strings.Join(m.Header.ShapeDict.Names(), ", "))
		fmt.Fprintf(w, "  materials: %s\n", strings.Join(m.Header.MaterialDict.Names(), ", "))
		if m.Skeleton != nil {
			names := make([]string, len(m.Skeleton.Bones))
			for i, b := range m.Skeleton.Bones {
				names[i] = b.Name
			}
			fmt.Fprintf(w, "  bones:     %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

func cmdJSON(_ context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("json")
	cfg, err := e.parse(fs, flags, args)
	if err != nil {
		return err
	}
	path, err := singleArg(fs, "json <file>")
	if err != nil {
		return err
	}
	ct, err := readContainer(path)
	if err != nil {
		return err
	}
	f, err := view.Build(ct)
	if err != nil {
		return err
	}

	return e.write(cfg, baseName(path)+".json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		if cfg.Export.IndentJSON {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(f)
	})
}

func cmdOBJ(_ context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("obj")
	cfg, err := e.parse(fs, flags, args)
	if err != nil {
		return err
	}
	path, err := singleArg(fs, "obj <file>")
	if err != nil {
		return err
	}
	ct, err := readContainer(path)
	if err != nil {
		return err
	}
	f, err := view.Build(ct)
	if err != nil {
		return err
	}

	return e.write(cfg, baseName(path)+".obj", func(w io.Writer) error {
		return wavefront.Write(w, f)
	})
}

func cmdGLTF(_ context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("gltf")
	binary := fs.Bool("binary", false, "Write GLB instead of JSON glTF")
	cfg, err := e.parse(fs, flags, args)
	if err != nil {
		return err
	}
	path, err := singleArg(fs, "gltf <file> [model]")
	if err != nil {
		return err
	}
	ct, err := readContainer(path)
	if err != nil {
		return err
	}
	asGLB := *binary || cfg.Export.Binary

	var models []*bfres.Model
	switch {
	case fs.NArg() > 1:
		m := ct.Model(fs.Arg(1))
		if m == nil {
			return fmt.Errorf("model %q not found in %s", fs.Arg(1), path)
		}
		models = append(models, m)
	case cfg.Export.OutDir != "" || len(ct.Models) == 1:
		models = ct.Models
	default:
		return fmt.Errorf("%s has %d models; name one or use -out", path, len(ct.Models))
	}

	ext := ".gltf"
	if asGLB {
		ext = ".glb"
	}
	for _, m := range models {
		doc, err := gltfexport.Build(m, gltfexport.WithLogger(logger.Named("gltf")))
		if err != nil {
			return fmt.Errorf("model %s: %w", m.Name(), err)
		}
		err = e.write(cfg, m.Name()+ext, func(w io.Writer) error {
			return gltfexport.Encode(w, doc, asGLB)
		})
		if err != nil {
			return fmt.Errorf("model %s: %w", m.Name(), err)
		}
	}
	return nil
}

func cmdDump(_ context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("dump")
	depth := fs.Int("depth", 0, "Maximum nesting depth (0 = unlimited)")
	if _, err := e.parse(fs, flags, args); err != nil {
		return err
	}
	path, err := singleArg(fs, "dump <file>")
	if err != nil {
		return err
	}
	ct, err := readContainer(path)
	if err != nil {
		return err
	}

	cs := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                *depth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	cs.Fdump(e.stdout, ct)
	return nil
}

func cmdServe(ctx context.Context, e *env, args []string) error {
	fs, flags := e.flagSet("serve")
	cfg, err := e.parse(fs, flags, args)
	if err != nil {
		return err
	}
	dir := cfg.Server.DataDir
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	defer logger.Sync()

	s := server.New(dir,
		server.WithLogger(logger.Named("server")),
		server.WithBinaryGLTF(cfg.Export.Binary),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	)
	return s.ListenAndServe(ctx, cfg.Server.Addr, logger.Writer())
}
