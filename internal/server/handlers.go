package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
	"github.com/amishk599/priceask/internal/relay"
)

type askResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAsk relays one question. Every failure, including a body that does
// not parse, is a 500 carrying the error text.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	reply, err := s.ask(w, r)
	if err != nil {
		s.logger.Error("ask failed",
			"request_id", RequestIDFrom(r.Context()),
			"kind", model.ErrorKind(err),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Reply: reply})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) (string, error) {
	req, err := relay.DecodeRequest(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return "", err
	}
	return s.relay.Ask(r.Context(), req)
}

// handlePrices serves one day of prices for one bidding zone. The date is
// YYYY-MM-DD, "today" or "tomorrow".
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	region, err := prices.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	points, err := s.prices.FetchDay(r.Context(), day, region)
	if err != nil {
		status := http.StatusBadGateway
		if prices.IsNotPublished(err) {
			status = http.StatusNotFound
		}
		s.logger.Warn("price fetch failed",
			"request_id", RequestIDFrom(r.Context()),
			"date", model.DateKey(day),
			"region", region,
			"status", status,
			"error", err,
		)
		writeJSON(w, status, errorResponse{Error: fmt.Sprintf("prices for %s %s: %v", region, model.DateKey(day), err)})
		return
	}
	if points == nil {
		points = []model.PricePoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) parseDay(param string) (time.Time, error) {
	if strings.TrimSpace(param) == "" {
		return time.Time{}, errors.New("date is required")
	}
	return prices.ParseDate(param, s.now())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
