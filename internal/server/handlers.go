package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bfres-decoder/pkg/gltfexport"
	"github.com/Faultbox/bfres-decoder/pkg/wavefront"
)

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	s.writeJSON(w, files)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	e, err := s.load(mux.Vars(r)["file"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, e.file)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	e, err := s.load(vars["file"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	m := e.file.Model(vars["model"])
	if m == nil {
		s.writeError(w, errors.Wrapf(ErrNotFound, "model %q", vars["model"]))
		return
	}
	s.writeJSON(w, m)
}

func (s *Server) handleOBJ(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	e, err := s.load(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := wavefront.Write(&buf, e.file); err != nil {
		s.writeError(w, err)
		return
	}
	writeFile(w, "text/plain; charset=utf-8", name+".obj", buf.Bytes())
}

// handleGLTF answers GLB or JSON glTF. The binary query parameter overrides
// the server default.
func (s *Server) handleGLTF(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	e, err := s.load(vars["file"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	m := e.ct.Model(vars["model"])
	if m == nil {
		s.writeError(w, errors.Wrapf(ErrNotFound, "model %q", vars["model"]))
		return
	}

	binary := s.binaryGLTF
	if v := r.URL.Query().Get("binary"); v != "" {
		if binary, err = strconv.ParseBool(v); err != nil {
			http.Error(w, "binary must be a boolean", http.StatusBadRequest)
			return
		}
	}

	doc, err := gltfexport.Build(m, gltfexport.WithLogger(s.log))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := gltfexport.Encode(&buf, doc, binary); err != nil {
		s.writeError(w, err)
		return
	}

	if binary {
		writeFile(w, "model/gltf-binary", vars["model"]+".glb", buf.Bytes())
	} else {
		writeFile(w, "model/gltf+json", vars["model"]+".gltf", buf.Bytes())
	}
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, errors.Wrap(err, "marshal"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.log.Warn("error writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidName):
		status = http.StatusBadRequest
	}
	s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))

	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
