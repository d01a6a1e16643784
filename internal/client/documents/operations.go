package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/docdesk/internal/client/api"
	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/client/session"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

func (l *Listing) pending() {
	l.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
}

func (l *Listing) fail(ctx context.Context, op string, err error, fallback string) error {
	msg := session.ExtractMessage(err, fallback)
	l.log.Warn(ctx, "document operation failed", "op", op, "error", err)
	l.update(func(s *State) {
		s.IsLoading = false
		s.IsUploading = false
		s.Error = msg
	})
	return &session.Rejection{Op: op, Message: msg, Err: err}
}

// Fetch replaces the listing with one page.
func (l *Listing) Fetch(ctx context.Context, page, limit int) error {
	l.pending()
	resp, err := l.svc.GetDocuments(ctx, page, limit)
	if err == nil && (!resp.Success || resp.Data == nil) {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		return l.fail(ctx, "fetch-documents", err, common.MsgFetchDocsFailed)
	}

	data := resp.Data
	l.update(func(s *State) {
		s.IsLoading = false
		s.Documents = append([]models.Document{}, data.Items...)
		s.Total = data.Total
		s.Page = data.Page
		s.Limit = limit
		s.HasMore = data.HasMore
	})
	return nil
}

// Refresh re-fetches the page currently shown.
func (l *Listing) Refresh(ctx context.Context) error {
	s := l.Snapshot()
	return l.Fetch(ctx, s.Page, s.Limit)
}

// FetchByID loads one document as the current one.
func (l *Listing) FetchByID(ctx context.Context, id int64) (*models.Document, error) {
	l.pending()
	resp, err := l.svc.GetDocument(ctx, id)
	if err == nil && (!resp.Success || resp.Data == nil) {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		return nil, l.fail(ctx, "fetch-document", err, common.MsgFetchDocFailed)
	}

	doc := *resp.Data
	l.update(func(s *State) {
		s.IsLoading = false
		d := doc
		s.Current = &d
	})
	return &doc, nil
}

// Delete removes a document on the service and from the listing.
func (l *Listing) Delete(ctx context.Context, id int64) error {
	l.pending()
	resp, err := l.svc.DeleteDocument(ctx, id)
	if err == nil && !resp.Success {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		return l.fail(ctx, "delete-document", err, common.MsgDeleteDocFailed)
	}

	l.update(func(s *State) {
		s.IsLoading = false
		kept := s.Documents[:0]
		removed := false
		for _, d := range s.Documents {
			if d.ID == id {
				removed = true
				continue
			}
			kept = append(kept, d)
		}
		s.Documents = kept
		if removed && s.Total > 0 {
			s.Total--
		}
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
		delete(s.Statuses, id)
	})
	return nil
}

// Upload sends the file at path and refreshes the listing, where the new job
// shows up.
func (l *Listing) Upload(ctx context.Context, path string) (*models.UploadResponse, error) {
	l.update(func(s *State) {
		s.IsUploading = true
		s.Error = ""
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, l.fail(ctx, "upload", fmt.Errorf("open %s: %w", path, err), common.MsgUploadFailed)
	}
	defer f.Close()

	resp, err := l.svc.UploadDocument(ctx, filepath.Base(path), f)
	if err == nil && (!resp.Success || resp.Data == nil) {
		err = &api.RejectedError{Message: resp.Message}
	}
	if err != nil {
		return nil, l.fail(ctx, "upload", err, common.MsgUploadFailed)
	}

	l.update(func(s *State) { s.IsUploading = false })
	if err := l.Refresh(ctx); err != nil {
		l.log.Warn(ctx, "refresh after upload", "error", err)
	}
	return resp.Data, nil
}

// FetchStatus asks the service for one job's processing status.
func (l *Listing) FetchStatus(ctx context.Context, id int64) (*models.ProcessingStatus, error) {
	resp, err := l.svc.GetProcessingStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, &api.RejectedError{Message: resp.Message}
	}
	return resp.Data, nil
}
