package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/bfres-decoder/internal/fixture"
)

// setup isolates the run from any real config file and writes the sample
// container into a fresh working directory.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	path := filepath.Join(dir, "sample.bfres")
	if err := os.WriteFile(path, fixture.Sample(), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	if code, _, stderr := runCmd(t); code != 1 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("expected usage and code 1, got %d %q", code, stderr)
	}
	if code, stdout, _ := runCmd(t, "help"); code != 0 || !strings.Contains(stdout, "Commands:") {
		t.Errorf("expected help on stdout, got %d %q", code, stdout)
	}
	if code, _, stderr := runCmd(t, "frobnicate"); code != 1 || !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Errorf("expected unknown command error, got %d %q", code, stderr)
	}
}

func TestInfo(t *testing.T) {
	path := setup(t)

	code, stdout, stderr := runCmd(t, "info", path)
	if code != 0 {
		t.Fatalf("info failed: %s", stderr)
	}
	for _, want := range []string{
		"Container: sample",
		"Version:   3.4.0.4",
		"Alignment: 0x2000",
		"Model tri (3 vertices)",
		"materials: mat",
		"bones:     root, arm",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestInfo_Errors(t *testing.T) {
	setup(t)

	if code, _, stderr := runCmd(t, "info"); code != 1 || !strings.Contains(stderr, "usage: bfrestool info") {
		t.Errorf("expected usage error, got %d %q", code, stderr)
	}
	if code, _, _ := runCmd(t, "info", "absent.bfres"); code != 1 {
		t.Errorf("expected failure for missing file, got %d", code)
	}
	if err := os.WriteFile("junk.bfres", []byte("JUNKJUNKJUNK"), 0644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCmd(t, "info", "junk.bfres"); code != 1 || !strings.Contains(stderr, "decoding") {
		t.Errorf("expected decode error, got %d %q", code, stderr)
	}
}

func TestJSON(t *testing.T) {
	path := setup(t)

	code, stdout, stderr := runCmd(t, "json", path)
	if code != 0 {
		t.Fatalf("json failed: %s", stderr)
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(stdout), &generic); err != nil {
		t.Fatalf("expected JSON on stdout: %v", err)
	}
	if _, ok := generic["models"]; !ok {
		t.Error("expected models key")
	}
}

func TestOBJ_OutDir(t *testing.T) {
	path := setup(t)

	code, stdout, stderr := runCmd(t, "obj", "-out", "exports", path)
	if code != 0 {
		t.Fatalf("obj failed: %s", stderr)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	data, err := os.ReadFile(filepath.Join("exports", "sample.obj"))
	if err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
	if !strings.HasPrefix(string(data), "o tri\n") {
		t.Errorf("unexpected OBJ content %q", data)
	}
}

func TestGLTF(t *testing.T) {
	path := setup(t)

	code, _, stderr := runCmd(t, "gltf", "-binary", "-out", "exports", path)
	if code != 0 {
		t.Fatalf("gltf failed: %s", stderr)
	}
	data, err := os.ReadFile(filepath.Join("exports", "tri.glb"))
	if err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("glTF")) {
		t.Errorf("expected GLB magic, got %q", data[:4])
	}

	code, stdout, stderr := runCmd(t, "gltf", path, "tri")
	if code != 0 {
		t.Fatalf("gltf failed: %s", stderr)
	}
	if !json.Valid([]byte(stdout)) {
		t.Error("expected JSON glTF on stdout")
	}

	if code, _, stderr := runCmd(t, "gltf", path, "nope"); code != 1 || !strings.Contains(stderr, `model "nope" not found`) {
		t.Errorf("expected missing model error, got %d %q", code, stderr)
	}
}

func TestDump(t *testing.T) {
	path := setup(t)

	code, stdout, stderr := runCmd(t, "dump", path)
	if code != 0 {
		t.Fatalf("dump failed: %s", stderr)
	}
	for _, want := range []string{"bfres.Container", `Name: (string) (len=6) "sample"`, "turbo_uber_xlu"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in dump", want)
		}
	}
}

func TestConfigFile(t *testing.T) {
	path := setup(t)

	if err := os.WriteFile("bfrestool.yaml", []byte("export:\n  out_dir: fromconfig\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCmd(t, "obj", path); code != 0 {
		t.Fatalf("obj failed: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join("fromconfig", "sample.obj")); err != nil {
		t.Errorf("expected config out_dir to be used: %v", err)
	}
}

type failingClose struct{ bytes.Buffer }

func (*failingClose) Close() error { return errors.New("disk quota exceeded") }

func TestOBJ_ReportsCloseError(t *testing.T) {
	path := setup(t)

	var stdout, stderr bytes.Buffer
	e := &env{
		stdout: &stdout,
		stderr: &stderr,
		create: func(string) (io.WriteCloser, error) { return &failingClose{}, nil },
	}
	err := cmdOBJ(context.Background(), e, []string{"-out", "exports", path})
	if err == nil || !strings.Contains(err.Error(), "disk quota exceeded") {
		t.Errorf("expected close error, got %v", err)
	}
}
