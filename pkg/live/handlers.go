package live

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/msig-dev/msig/internal/errors"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of error responses.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	me := errors.FromError(err, "E202")
	body := errorBody{Code: me.Code, Message: me.Message, Detail: me.Detail}
	if me.Wrapped != nil && body.Detail == "" {
		body.Detail = me.Wrapped.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	data, _ := json.Marshal(s.Names())
	writeJSON(w, data)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("E200").WithDetail(name))
		return
	}

	data, err := s.snapshot(r.Context(), e)
	if err != nil {
		s.logger.Error("snapshot failed", "store", name, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("E200").WithDetail(name))
		return
	}
	if e.decode == nil {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("E201").WithDetail(name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("E203").Wrap(err))
		return
	}
	apply, err := e.decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("E203").Wrap(err))
		return
	}

	var (
		data    []byte
		snapErr error
	)
	err = s.call(r.Context(), func() {
		apply()
		data, snapErr = e.snapshot()
	})
	if err == nil {
		err = snapErr
	}
	if err != nil {
		s.logger.Error("write failed", "store", name, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, data)
}
