package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

// UploadOptions controls UploadFile behavior.
type UploadOptions struct {
	Comment        string
	Text           string // initial wikitext of the file description page
	IgnoreWarnings bool   // proceed past duplicate/exists warnings
}

// UploadFile uploads file content under the given name via action=upload.
// The File: prefix is stripped from filename if present. Requires a prior
// Login.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader, opts UploadOptions) error {
	if c.csrfToken == "" {
		return fmt.Errorf("%w: not logged in", ErrUpload)
	}
	filename = strings.TrimPrefix(filename, "File:")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"action":   "upload",
		"format":   "json",
		"filename": filename,
		"comment":  opts.Comment,
		"text":     opts.Text,
		"token":    c.csrfToken,
	}
	if opts.IgnoreWarnings {
		fields["ignorewarnings"] = "1"
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("%w: %v", ErrUpload, err)
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("%w: read file content: %v", ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}

	headers := map[string]string{"Content-Type": mw.FormDataContentType()}
	body, err := c.request.PostWithHeaders(ctx, c.APIEndpoint, buf.Bytes(), headers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}

	var result struct {
		Upload struct {
			Result   string                     `json:"result"`
			Filename string                     `json:"filename"`
			Warnings map[string]json.RawMessage `json:"warnings"`
		} `json:"upload"`
		Error struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if result.Error.Code != "" {
		return fmt.Errorf("%w: %s: %s", ErrUpload, result.Error.Code, result.Error.Info)
	}
	if result.Upload.Result != "Success" {
		warnings := make([]string, 0, len(result.Upload.Warnings))
		for k := range result.Upload.Warnings {
			warnings = append(warnings, k)
		}
		return fmt.Errorf("%w: result %q (warnings: %s)", ErrUpload, result.Upload.Result, strings.Join(warnings, ", "))
	}

	c.Logger.Info("Uploaded file", "filename", result.Upload.Filename, "comment", opts.Comment)
	return nil
}
