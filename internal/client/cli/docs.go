package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/common"
)

const previewLen = 400

// Docs lists the first page of the user's documents.
func (a *App) Docs(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.core.Documents.Fetch(ctx, 1, a.config.PageSize); err != nil {
		a.report(err)
		return err
	}
	a.Redirect(common.RouteDocuments)

	s := a.core.Documents.Snapshot()
	if len(s.Documents) == 0 {
		a.printf("No documents yet, use 'upload <path>'\n")
		return nil
	}
	for _, d := range s.Documents {
		a.printf("%6d  %-32s %-10s %s\n", d.ID, d.OriginalName, d.Status, progress(d))
	}
	a.printf("%d of %d documents\n", len(s.Documents), s.Total)
	return nil
}

// Upload sends a file for processing. The poller picks up the new job.
func (a *App) Upload(ctx context.Context, path string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	res, err := a.core.Documents.Upload(ctx, path)
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Uploaded #%d %s (%s)\n", res.ID, res.OriginalName, res.Status)
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	docID, err := parseID(id)
	if err != nil {
		a.printf("Invalid document id: %s\n", id)
		return err
	}
	d, err := a.core.Documents.FetchByID(ctx, docID)
	if err != nil {
		a.report(err)
		return err
	}

	a.printf("#%d %s\n", d.ID, d.OriginalName)
	a.printf("  type:     %s, %d bytes\n", d.MimeType, d.FileSize)
	a.printf("  status:   %s %s\n", d.Status, progress(*d))
	a.printf("  uploaded: %s\n", d.CreatedAt)
	if d.ProcessedAt != "" {
		a.printf("  done:     %s\n", d.ProcessedAt)
	}
	if d.ErrorMessage != "" {
		a.printf("  error:    %s\n", d.ErrorMessage)
	}
	if d.ExtractedText != "" {
		text := []rune(d.ExtractedText)
		if len(text) > previewLen {
			text = append(text[:previewLen], []rune("...")...)
		}
		a.printf("\n%s\n", string(text))
	}
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	docID, err := parseID(id)
	if err != nil {
		a.printf("Invalid document id: %s\n", id)
		return err
	}
	if err := a.core.Documents.Delete(ctx, docID); err != nil {
		a.report(err)
		return err
	}
	a.printf("Deleted #%d\n", docID)
	return nil
}

// Poll shows the jobs still being processed and whether the poller runs.
func (a *App) Poll(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	jobs := a.core.Documents.NonTerminal()
	if len(jobs) == 0 {
		a.printf("Nothing in progress\n")
	}
	for _, d := range jobs {
		a.printf("%6d  %-32s %-10s %s\n", d.ID, d.OriginalName, d.Status, progress(d))
	}
	state := "idle"
	if a.core.Poller.Running() {
		state = "running"
	}
	a.printf("poller %s, %d failed status checks\n", state, a.core.Poller.Failures())
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func progress(d models.Document) string {
	if d.LineCount > 0 {
		return fmt.Sprintf("%d/%d lines", d.ProcessedLines, d.LineCount)
	}
	if d.Progress > 0 {
		return fmt.Sprintf("%.0f%%", d.Progress)
	}
	return ""
}
