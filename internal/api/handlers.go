// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
)

type powerRequest struct {
	Power *escvp.Power `json:"power"`
}

type sourceRequest struct {
	Source *escvp.Source `json:"source"`
}

type keyRequest struct {
	Key *escvp.Key `json:"key"`
}

type powerStatusResponse struct {
	Status escvp.PowerStatus `json:"status"`
	Code   string            `json:"code"`
	Power  escvp.Power       `json:"power"`
}

type sourceResponse struct {
	Source escvp.Source `json:"source"`
	Code   string       `json:"code"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st, err := s.projector.Status()
	if err != nil {
		writeProjectorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePowerStatus(w http.ResponseWriter, _ *http.Request) {
	status, err := s.projector.PowerStatus()
	if err != nil {
		writeProjectorError(w, err)
		return
	}
	code, _ := status.Code()
	writeJSON(w, http.StatusOK, powerStatusResponse{
		Status: status,
		Code:   fmt.Sprintf("%02X", code),
		Power:  status.Power(),
	})
}

func (s *Server) handleGetPower(w http.ResponseWriter, _ *http.Request) {
	p, err := s.projector.Power()
	if err != nil {
		writeProjectorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]escvp.Power{"power": p})
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Power == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, `"power" is required`)
		return
	}

	if err := s.projector.SetPower(*req.Power); err != nil {
		writeProjectorError(w, err)
		return
	}
	s.notify()
	writeJSON(w, http.StatusOK, map[string]escvp.Power{"power": *req.Power})
}

func (s *Server) handleGetSource(w http.ResponseWriter, _ *http.Request) {
	src, err := s.projector.Source()
	if err != nil {
		writeProjectorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSourceResponse(src))
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Source == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, `"source" is required`)
		return
	}

	if err := s.projector.SetSource(*req.Source); err != nil {
		writeProjectorError(w, err)
		return
	}
	s.notify()
	writeJSON(w, http.StatusOK, newSourceResponse(*req.Source))
}

// handleListSources lists the selectable inputs. It does not touch the link.
func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	sources := escvp.Sources()
	out := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		out = append(out, newSourceResponse(src))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) handleSendKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Key == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, `"key" is required`)
		return
	}

	if err := s.projector.SendKey(*req.Key); err != nil {
		writeProjectorError(w, err)
		return
	}
	s.notify()
	w.WriteHeader(http.StatusNoContent)
}

func newSourceResponse(src escvp.Source) sourceResponse {
	code, _ := src.Code()
	return sourceResponse{Source: src, Code: fmt.Sprintf("%02X", code)}
}
