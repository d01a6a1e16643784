package session

import (
	"context"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

// GetUsers replaces the directory with one page of users. A response that is
// a bare list is taken as the whole directory.
func (m *Machine) GetUsers(ctx context.Context, page, limit int) error {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	listing, err := m.svc.GetUsers(ctx, page, limit)
	if err != nil {
		msg := ExtractMessage(err, common.MsgFetchUsersFailed)
		m.update(func(s *State) {
			s.IsLoading = false
			s.Error = msg
		})
		return &Rejection{Op: "get-users", Message: msg, Err: err}
	}

	dir := Directory{Items: append([]models.User{}, listing.Items...)}
	if listing.Paginated {
		dir.Total, dir.Page, dir.HasMore = listing.Total, listing.Page.Page, listing.HasMore
	} else {
		dir.Total, dir.Page, dir.HasMore = len(dir.Items), common.DefaultPage, false
	}

	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = ""
		s.Directory = dir
	})
	return nil
}

// LoadMoreUsers appends the next page to the directory.
//
// The caller must not issue it while another directory request is in flight
// (see State.IsLoading); overlapping calls for the same page append the same
// rows twice.
func (m *Machine) LoadMoreUsers(ctx context.Context, page, limit int) error {
	m.update(func(s *State) { s.IsLoading = true })

	listing, err := m.svc.GetUsers(ctx, page, limit)
	if err != nil {
		msg := ExtractMessage(err, common.MsgLoadMoreFailed)
		m.update(func(s *State) {
			s.IsLoading = false
			s.Error = msg
		})
		return &Rejection{Op: "load-more-users", Message: msg, Err: err}
	}

	m.update(func(s *State) {
		s.IsLoading = false
		// A plain array has no next page to append; the accumulated items
		// stay, the total is zeroed.
		if !listing.Paginated {
			s.Directory.Total = 0
			s.Directory.Page = page
			s.Directory.HasMore = false
			return
		}
		s.Directory.Items = append(s.Directory.Items, listing.Items...)
		s.Directory.Total = listing.Total
		s.Directory.Page = listing.Page.Page
		s.Directory.HasMore = listing.HasMore
	})
	return nil
}
