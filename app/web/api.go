package web

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/timeblock/timeblock/app/action"
	"github.com/timeblock/timeblock/app/persistence"
)

// APIActionsResponse is the JSON response for GET /api/v1/actions
type APIActionsResponse struct {
	Actions   []APIAction `json:"actions"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIAction represents an action in JSON API response
type APIAction struct {
	Desc        string    `json:"desc"`
	EstDuration int64     `json:"est_duration,omitempty"` // seconds
	Start       time.Time `json:"start,omitzero"`
	End         time.Time `json:"end,omitzero"`
}

// maxEstSeconds is the largest estimated duration in seconds that fits time.Duration
const maxEstSeconds = int64(math.MaxInt64 / int64(time.Second))

// APIAddActionRequest is the JSON body for POST /api/v1/actions
type APIAddActionRequest struct {
	Desc        string `json:"desc"`
	EstDuration int64  `json:"est_duration"` // seconds
}

// APIAddActionResponse is the JSON response for a stored action
type APIAddActionResponse struct {
	ID int64 `json:"id"`
}

// toAPIAction converts action.Action to APIAction
func toAPIAction(a action.Action) APIAction {
	return APIAction{
		Desc:        a.Desc,
		EstDuration: int64(a.EstDuration() / time.Second),
		Start:       a.Start(),
		End:         a.End(),
	}
}

// handleAPIListActions returns all stored actions as JSON
func (s *Server) handleAPIListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.store.ListActions(r.Context())
	if err != nil {
		log.Printf("[WARN] failed to list actions: %v", err)
		s.writeJSONError(w, errorStatus(err), "failed to list actions")
		return
	}

	resp := APIActionsResponse{Actions: make([]APIAction, 0, len(actions)), Timestamp: s.now()}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, toAPIAction(a))
	}
	rest.RenderJSON(w, resp)
}

// handleAPIAddAction stores an action from JSON body. Unlike the form handler
// it reports storage failures to the caller.
func (s *Server) handleAPIAddAction(w http.ResponseWriter, r *http.Request) {
	var req APIAddActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EstDuration > maxEstSeconds || req.EstDuration < -maxEstSeconds {
		s.writeJSONError(w, http.StatusBadRequest, "est_duration out of range")
		return
	}

	a := action.New(req.Desc)
	a.SetEstDuration(time.Duration(req.EstDuration) * time.Second)
	if err := a.Validate(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid action: "+err.Error())
		return
	}

	key, err := s.store.AddAction(r.Context(), a)
	if err != nil {
		log.Printf("[WARN] failed to add action %q: %v", a.Desc, err)
		s.writeJSONError(w, errorStatus(err), errorMessage(err))
		return
	}

	s.writeJSON(w, http.StatusCreated, APIAddActionResponse{ID: key.Int64})
}

// errorMessage maps storage error kinds to client messages, details stay in the log
func errorMessage(err error) string {
	switch {
	case persistence.IsKind(err, persistence.KindInvalid), persistence.IsKind(err, persistence.KindParams):
		return "invalid action"
	case persistence.IsKind(err, persistence.KindExecution):
		return "action can't be stored, description may already exist"
	case persistence.IsKind(err, persistence.KindPrecondition), persistence.IsKind(err, persistence.KindConnection):
		return "storage unavailable"
	default:
		return "failed to add action"
	}
}

// errorStatus maps storage error kinds to http status codes
func errorStatus(err error) int {
	switch {
	case persistence.IsKind(err, persistence.KindInvalid), persistence.IsKind(err, persistence.KindParams):
		return http.StatusBadRequest
	case persistence.IsKind(err, persistence.KindExecution):
		return http.StatusConflict
	case persistence.IsKind(err, persistence.KindPrecondition), persistence.IsKind(err, persistence.KindConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
