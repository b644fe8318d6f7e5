package web

import (
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/timeblock/timeblock/app/action"
)

// handleIndex renders the actions page with all stored actions
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	actions, err := s.store.ListActions(r.Context())
	if err != nil {
		// the page is still rendered, storage failures show up as an empty list
		log.Printf("[WARN] failed to list actions: %v", err)
	}

	data := TemplateData{
		Actions:     actions,
		CurrentYear: s.now().Year(),
		BaseURL:     s.baseURL,
		Version:     shortVersion(s.version),
		FullVersion: s.version,
	}
	s.render(w, "actions.html", "base", data)
}

// handleAddAction stores a new action from the submitted form and redirects back to the page.
// The redirect happens regardless of the storage outcome, failures are only logged.
func (s *Server) handleAddAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["action"]; !ok {
		http.Error(w, "Missing action field", http.StatusBadRequest)
		return
	}

	a := action.New(r.PostForm.Get("action"))
	if est := strings.TrimSpace(r.PostForm.Get("duration")); est != "" {
		d, err := time.ParseDuration(est)
		if err != nil {
			log.Printf("[WARN] ignoring invalid duration %q for %q: %v", est, a.Desc, err)
		} else {
			a.SetEstDuration(d)
		}
	}

	if _, err := s.store.AddAction(r.Context(), a); err != nil {
		log.Printf("[WARN] failed to add action %q: %v", a.Desc, err)
	}
	http.Redirect(w, r, s.url("/"), http.StatusFound)
}
