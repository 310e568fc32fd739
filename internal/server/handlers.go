package server

import (
	"net/http"
	"strconv"

	"github.com/julianstephens/weeklit/internal/errors"
	"github.com/julianstephens/weeklit/internal/models"
	"github.com/julianstephens/weeklit/internal/tracker"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Timezone  string `json:"timezone"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cal := s.svc.Calendar()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: cal.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Timezone:  cal.Location().String(),
	})
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var in tracker.NewHabit
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	h, err := s.svc.CreateHabit(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Failed to create habit")
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Habit created successfully", Habit: h})
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	habits, err := s.svc.ListHabits(r.Context(), includeInactive)
	if err != nil {
		writeError(w, r, err, "Failed to fetch habits")
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var patch models.HabitPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "")
		return
	}
	h, err := s.svc.UpdateHabit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err, "Failed to update habit")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Habit updated successfully", Habit: h})
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabit(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Failed to delete habit")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Habit deleted successfully"})
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.CurrentWeek(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch current week")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type toggleRequest struct {
	HabitID string `json:"habitId"`
	Day     string `json:"day"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if req.HabitID == "" || req.Day == "" {
		writeError(w, r, errors.InvalidInput("habitId and day are required"), "")
		return
	}
	res, err := s.svc.Toggle(r.Context(), req.HabitID, req.Day)
	if err != nil {
		writeError(w, r, err, "Failed to toggle habit completion")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(r.PathValue("year"))
	month, merr := strconv.Atoi(r.PathValue("month"))
	if yerr != nil || merr != nil {
		writeError(w, r, errors.InvalidInput("invalid year or month"), "")
		return
	}
	view, err := s.svc.Month(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err, "Failed to fetch calendar data")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Date(r.Context(), r.PathValue("date"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch habits for date")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Unparseable values fall back to the defaults.
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := s.svc.History(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, err, "Failed to fetch week history")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := s.svc.Week(r.Context(), r.PathValue("weekId"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch week")
		return
	}
	writeJSON(w, http.StatusOK, week)
}
