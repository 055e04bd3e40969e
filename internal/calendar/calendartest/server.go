// Package calendartest provides an in-process fake of the Google Calendar events API.
package calendartest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	calendar "google.golang.org/api/calendar/v3"
)

// Request is a call received by the fake.
type Request struct {
	Method     string
	CalendarID string
	Query      map[string]string
	Auth       string
}

// Server fakes POST and GET on /calendars/{id}/events.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	inserted []*calendar.Event
	listed   []*calendar.Event
	failCode int
	failMsg  string
	block    chan struct{}
}

// NewServer starts a fake. Close it when done.
func NewServer() *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint returns the base URL to pass to option.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// SetEvents sets the events returned by list calls.
func (s *Server) SetEvents(events ...*calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed = events
}

// Fail makes every following call fail with code and message. A zero code clears it.
func (s *Server) Fail(code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCode, s.failMsg = code, message
}

// Block holds every following call until the returned function is called.
func (s *Server) Block() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.block = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.block = nil
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Inserted returns the events created so far.
func (s *Server) Inserted() []*calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*calendar.Event(nil), s.inserted...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "calendars" || parts[2] != "events" {
		http.NotFound(w, r)
		return
	}

	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		query[k] = v[0]
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:     r.Method,
		CalendarID: parts[1],
		Query:      query,
		Auth:       r.Header.Get("Authorization"),
	})
	block := s.block
	failCode, failMsg := s.failCode, s.failMsg
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	w.Header().Set("Content-Type", "application/json")
	if failCode != 0 {
		w.WriteHeader(failCode)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": failCode, "message": failMsg},
		})
		return
	}

	switch r.Method {
	case http.MethodPost:
		var ev calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ev.Status = "confirmed"
		s.mu.Lock()
		s.inserted = append(s.inserted, &ev)
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(&ev)
	case http.MethodGet:
		s.mu.Lock()
		items := s.listed
		s.mu.Unlock()
		if items == nil {
			items = []*calendar.Event{}
		}
		_ = json.NewEncoder(w).Encode(&calendar.Events{Items: items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
