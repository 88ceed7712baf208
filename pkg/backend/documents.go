package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"driverbot/pkg/models"
)

// DocumentSet is the single normalized shape of a driver-documents answer:
// the doc_type names the backend holds for the driver.
type DocumentSet struct {
	Uploaded []string
}

// UnmarshalJSON accepts both shapes the endpoint is known to return: an object
// with an uploadedDocuments list, or a bare array of document records. The
// server's own missingDocuments list is dropped; missing is always derived
// from Uploaded.
func (d *DocumentSet) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		d.Uploaded = nil
		return nil
	}

	if raw[0] == '[' {
		var records []struct {
			DocType string `json:"doc_type"`
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			return err
		}
		d.Uploaded = make([]string, 0, len(records))
		for _, r := range records {
			d.Uploaded = append(d.Uploaded, r.DocType)
		}
		return nil
	}

	var split struct {
		UploadedDocuments []string `json:"uploadedDocuments"`
	}
	if err := json.Unmarshal(raw, &split); err != nil {
		return err
	}
	d.Uploaded = split.UploadedDocuments
	return nil
}

func (c *Client) GetDriverDocuments(ctx context.Context, driverID int64) (*DocumentSet, error) {
	var out DocumentSet
	path := fmt.Sprintf("/api/driver-documents/%d", driverID)
	if err := c.doJSON(ctx, "get_driver_documents", http.MethodGet, path, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDocumentStatus sends the idempotency key so a repeated submission is a no-op server side.
func (c *Client) UpdateDocumentStatus(ctx context.Context, driverID int64, status, idempotencyKey string) (*models.StatusMessage, error) {
	var out models.StatusMessage
	path := fmt.Sprintf("/api/driver-documents/status/%d", driverID)
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	in := map[string]string{"status": status}
	if err := c.doJSON(ctx, "update_document_status", http.MethodPatch, path, in, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument posts both images and the document fields as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, up models.DocumentUpload) (map[string]any, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeFile(w, "front_image", up.FrontName, "frontImage.jpg", up.FrontImage); err != nil {
		return nil, err
	}
	if err := writeFile(w, "back_image", up.BackName, "backImage.jpg", up.BackImage); err != nil {
		return nil, err
	}
	fields := [][2]string{
		{"doc_type", up.DocType},
		{"doc_number", up.DocNumber},
		{"status", "false"},
		{"driver_id", strconv.FormatInt(up.DriverID, 10)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/driver-documents", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload_document request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	out := map[string]any{}
	if err := c.do(req, "upload_document", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeFile(w *multipart.Writer, field, name, fallback string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%s is empty", field)
	}
	if name == "" {
		name = fallback
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", field, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", field, err)
	}
	return nil
}
