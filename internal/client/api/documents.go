package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
)

func (c *Client) GetDocuments(ctx context.Context, page, limit int) (*Response[models.Page[models.Document]], error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/documents", pageQuery(page, limit), nil)
	if err != nil {
		return nil, err
	}
	return decode[models.Page[models.Document]](env)
}

func (c *Client) GetDocument(ctx context.Context, id int64) (*Response[models.Document], error) {
	env, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/documents/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[models.Document](env)
}

func (c *Client) GetProcessingStatus(ctx context.Context, id int64) (*Response[models.ProcessingStatus], error) {
	env, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/documents/%d/status", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[models.ProcessingStatus](env)
}

func (c *Client) DeleteDocument(ctx context.Context, id int64) (*Response[json.RawMessage], error) {
	env, err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/documents/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[json.RawMessage](env)
}

// UploadDocument posts content as the multipart field "file".
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*Response[models.UploadResponse], error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	env, err := c.do(ctx, http.MethodPost, "/documents/upload", nil, &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decode[models.UploadResponse](env)
}
