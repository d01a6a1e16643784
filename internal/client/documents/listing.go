// Package documents holds the client-side document listing: the current page
// of processing jobs, the document being viewed and the latest status fetched
// for each job.
package documents

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Service is the document part of the remote API.
type Service interface {
	GetDocuments(ctx context.Context, page, limit int) (*api.Response[models.Page[models.Document]], error)
	GetDocument(ctx context.Context, id int64) (*api.Response[models.Document], error)
	GetProcessingStatus(ctx context.Context, id int64) (*api.Response[models.ProcessingStatus], error)
	DeleteDocument(ctx context.Context, id int64) (*api.Response[json.RawMessage], error)
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*api.Response[models.UploadResponse], error)
}

// State is a copy of the listing.
type State struct {
	Documents   []models.Document
	Current     *models.Document
	Statuses    map[int64]models.ProcessingStatus
	Total       int
	Page        int
	Limit       int
	HasMore     bool
	IsLoading   bool
	IsUploading bool
	Error       string
}

func (s State) clone() State {
	c := s
	if s.Documents != nil {
		c.Documents = append([]models.Document(nil), s.Documents...)
	}
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	c.Statuses = make(map[int64]models.ProcessingStatus, len(s.Statuses))
	for k, v := range s.Statuses {
		c.Statuses[k] = v
	}
	return c
}

type Listener func(State)

// Listing owns the document state. All mutations go through update.
type Listing struct {
	svc Service
	log logging.Logger

	mu      sync.Mutex
	state   State
	version uint64

	notifyMu  sync.Mutex
	notified  uint64
	listeners []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Listener
}

func NewListing(svc Service, log logging.Logger) *Listing {
	return &Listing{
		svc: svc,
		log: log.With("component", "documents"),
		state: State{
			Page:     common.DefaultPage,
			Limit:    common.DocumentsPerPage,
			Statuses: map[int64]models.ProcessingStatus{},
		},
	}
}

func (l *Listing) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Subscribe registers fn and returns a function that removes it. Listeners
// must not mutate the listing.
func (l *Listing) Subscribe(fn Listener) (unsubscribe func()) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	l.nextSubID++
	id := l.nextSubID
	l.listeners = append(l.listeners, subscription{id: id, fn: fn})

	return func() {
		l.notifyMu.Lock()
		defer l.notifyMu.Unlock()
		for i, s := range l.listeners {
			if s.id == id {
				l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
				return
			}
		}
	}
}

func (l *Listing) update(fn func(*State)) {
	l.mu.Lock()
	fn(&l.state)
	l.version++
	v := l.version
	snap := l.state.clone()
	l.mu.Unlock()

	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	if v <= l.notified {
		return
	}
	l.notified = v
	for _, s := range l.listeners {
		s.fn(snap.clone())
	}
}

func (l *Listing) ClearError() {
	l.update(func(s *State) { s.Error = "" })
}

func (l *Listing) SetCurrent(doc *models.Document) {
	l.update(func(s *State) {
		if doc == nil {
			s.Current = nil
			return
		}
		d := *doc
		s.Current = &d
	})
}

// Reset drops everything, as after a logout.
func (l *Listing) Reset() {
	l.update(func(s *State) {
		*s = State{
			Page:     common.DefaultPage,
			Limit:    common.DocumentsPerPage,
			Statuses: map[int64]models.ProcessingStatus{},
		}
	})
}

// NonTerminal returns the jobs still pending or processing, as of now.
func (l *Listing) NonTerminal() []models.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Document
	for _, d := range l.state.Documents {
		if !d.Status.Terminal() {
			out = append(out, d)
		}
	}
	return out
}

// UpdateStatus records a fetched status and moves the job's status forward.
// A status that would move a job backwards is ignored; the return value tells
// whether anything changed.
func (l *Listing) UpdateStatus(st models.ProcessingStatus) bool {
	var changed bool
	l.update(func(s *State) {
		if prev, seen := s.Statuses[st.ID]; seen && !prev.Status.CanAdvanceTo(st.Status) {
			return
		}
		var targets []*models.Document
		for i := range s.Documents {
			if s.Documents[i].ID == st.ID {
				targets = append(targets, &s.Documents[i])
			}
		}
		if s.Current != nil && s.Current.ID == st.ID {
			targets = append(targets, s.Current)
		}
		for _, d := range targets {
			if !d.Status.CanAdvanceTo(st.Status) {
				return
			}
		}
		for _, d := range targets {
			applyStatus(d, st)
		}
		s.Statuses[st.ID] = st
		changed = true
	})
	return changed
}

func applyStatus(d *models.Document, st models.ProcessingStatus) {
	d.Status = st.Status
	d.Progress = st.Progress
	if st.LineCount > 0 {
		d.LineCount = st.LineCount
	}
	d.ProcessedLines = st.ProcessedLines
	if st.ErrorMessage != "" {
		d.ErrorMessage = st.ErrorMessage
	}
	if st.CompletedAt != "" {
		d.ProcessedAt = st.CompletedAt
	}
}
