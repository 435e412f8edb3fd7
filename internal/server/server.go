// Package server serves a directory of model containers as JSON, OBJ and
// glTF over HTTP.
package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bfres-decoder/pkg/bfres"
	"github.com/Faultbox/bfres-decoder/pkg/view"
	"github.com/Faultbox/bfres-decoder/pkg/yaz0"
)

// Extensions lists the file name suffixes served from the data directory.
var Extensions = []string{".bfres", ".sbfres", ".szs"}

// Errors mapped to HTTP status codes by the handlers.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid file name")
)

// entry is one decoded file. Both forms are kept since the JSON routes walk
// the view while the exporters need the decoded model.
type entry struct {
	ct   *bfres.Container
	file *view.File
}

// Server decodes and serves the containers of one directory.
type Server struct {
	dir          string
	log          *zap.Logger
	binaryGLTF   bool
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.Mutex
	cache map[string]*entry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for decoding and request errors.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBinaryGLTF makes the glTF route answer GLB unless the request asks
// otherwise.
func WithBinaryGLTF(binary bool) Option {
	return func(s *Server) { s.binaryGLTF = binary }
}

// WithTimeouts sets the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// New serves the containers found directly inside dir.
func New(dir string, opts ...Option) *Server {
	s := &Server{
		dir:   dir,
		log:   zap.NewNop(),
		cache: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes wrapped in panic recovery and access logging
// written to accessLog.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/json/files", s.handleFiles).Methods(http.MethodGet)
	r.HandleFunc("/json/files/{file}", s.handleFile).Methods(http.MethodGet)
	r.HandleFunc("/json/files/{file}/models/{model}", s.handleModel).Methods(http.MethodGet)
	r.HandleFunc("/obj/{file}", s.handleOBJ).Methods(http.MethodGet)
	r.HandleFunc("/gltf/{file}/{model}", s.handleGLTF).Methods(http.MethodGet)

	h := handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(r)
	return handlers.LoggingHandler(accessLog, h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, accessLog io.Writer) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(accessLog),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr), zap.String("dir", s.dir))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// List returns the sorted names of the servable files in the data directory.
func (s *Server) List() ([]string, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading data directory")
	}
	var files []string
	for _, e := range ents {
		if e.IsDir() || !servable(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func servable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, x := range Extensions {
		if ext == x {
			return true
		}
	}
	return false
}

// load decodes name on first use and caches the result. Decode failures are
// not cached.
func (s *Server) load(name string) (*entry, error) {
	if name != filepath.Base(name) || name == ".." || !servable(name) {
		return nil, errors.Wrapf(ErrInvalidName, "%q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache[name]; ok {
		return e, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "file %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", name)
	}
	data, err = yaz0.Unwrap(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %q", name)
	}

	ct, err := bfres.Decode(data, bfres.WithLogger(s.log.With(zap.String("file", name))))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", name)
	}
	f, err := view.Build(ct)
	if err != nil {
		return nil, errors.Wrapf(err, "flattening %q", name)
	}

	e := &entry{ct: ct, file: f}
	s.cache[name] = e
	s.log.Debug("cached file", zap.String("file", name), zap.Int("models", len(ct.Models)))
	return e, nil
}
