package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/algo-theremin/synth"
	"github.com/cwbudde/algo-theremin/tracking"
)

// frameRequest is a HandFrame plus how long the detector spent on it.
type frameRequest struct {
	tracking.HandFrame
	ProcessTimeMS float64 `json:"process_time_ms,omitempty"`
}

// waveRequest selects a waveform by name or advances to the next one.
type waveRequest struct {
	Wave string `json:"wave,omitempty"`
	Next bool   `json:"next,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.synth.Info())
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.synth.GuideNotes())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ProcessTimeMS < 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("process_time_ms must be >= 0"))
		return
	}
	processTime := time.Duration(req.ProcessTimeMS * float64(time.Millisecond))
	s.writeJSON(w, http.StatusOK, s.session.Process(req.HandFrame, processTime))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var u synth.ParameterUpdate
	if err := s.decode(w, r, &u); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.synth.UpdateParameters(u)
	s.writeJSON(w, http.StatusOK, s.synth.Info())
}

func (s *Server) handleWave(w http.ResponseWriter, r *http.Request) {
	var req waveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	switch {
	case req.Next:
		s.synth.NextWaveType()
	case req.Wave != "":
		wt, err := synth.ParseWaveType(req.Wave)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.synth.SetWaveType(wt)
	default:
		s.writeError(w, http.StatusBadRequest, errors.New(`expected "wave" or "next"`))
		return
	}
	info := s.synth.Info()
	s.logger.Info("waveform changed", slog.String("wave", info.WaveType))
	s.writeJSON(w, http.StatusOK, info)
}

// decode reads one JSON object, rejecting unknown fields and oversized bodies.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
