package cli

import (
	"context"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
)

// Users loads the first page of the user directory.
func (a *App) Users(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.core.Session.GetUsers(ctx, 1, a.config.PageSize); err != nil {
		a.report(err)
		return err
	}
	d := a.core.Session.Snapshot().Directory
	a.printUsers(d.Items)
	a.printDirectoryFooter(len(d.Items), d.Total, d.HasMore)
	return nil
}

// MoreUsers appends the next page of the directory.
func (a *App) MoreUsers(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	s := a.core.Session.Snapshot()
	if s.IsLoading {
		a.printf("Still loading, try again\n")
		return nil
	}
	if !s.Directory.HasMore {
		a.printf("No more users\n")
		return nil
	}

	before := len(s.Directory.Items)
	if err := a.core.Session.LoadMoreUsers(ctx, s.Directory.Page+1, a.config.PageSize); err != nil {
		a.report(err)
		return err
	}
	d := a.core.Session.Snapshot().Directory
	if before <= len(d.Items) {
		a.printUsers(d.Items[before:])
	}
	a.printDirectoryFooter(len(d.Items), d.Total, d.HasMore)
	return nil
}

func (a *App) printUsers(users []models.User) {
	for _, u := range users {
		a.printf("%6d  %-24s %-32s %s\n", u.ID, u.Name, u.Email, u.Provider)
	}
}

func (a *App) printDirectoryFooter(shown, total int, hasMore bool) {
	if hasMore {
		a.printf("Showing %d of %d users, type 'more' for the next page\n", shown, total)
		return
	}
	a.printf("Showing %d of %d users\n", shown, total)
}
