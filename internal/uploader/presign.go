package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

// Part pairs a part number with the integrity tag the storage backend
// returned for it.
type Part struct {
	ETag       string `json:"etag"`
	PartNumber int64  `json:"partNumber"`
}

// Client speaks to the vitrine control plane, which holds the storage
// credentials and hands out presigned write URLs. The client itself never
// sees a credential.
type Client struct {
	host    url.URL
	hclient *http.Client
}

// NewClient returns a control-plane client for the given host.
func NewClient(host string, hclient *http.Client) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	if hclient == nil {
		hclient = &http.Client{}
	}
	return &Client{host: *u, hclient: hclient}, nil
}

// Initiate opens a multipart session for the object key and returns its
// upload ID.
func (c *Client) Initiate(ctx context.Context, key, contentType string) (string, error) {
	if key == "" || contentType == "" {
		return "", &ValidationError{Msg: "fileName and contentType are required"}
	}
	var out struct {
		UploadId string `json:"uploadId"`
	}
	err := c.post(ctx, "initiate", map[string]interface{}{
		"fileName":    key,
		"contentType": contentType,
	}, &out)
	return out.UploadId, err
}

// PresignPart returns a time-limited PUT URL for one part of an open
// multipart session.
func (c *Client) PresignPart(ctx context.Context, key, uploadId string, partNumber int64) (string, error) {
	var out struct {
		Url string `json:"url"`
	}
	err := c.post(ctx, "part", map[string]interface{}{
		"fileName":   key,
		"uploadId":   uploadId,
		"partNumber": partNumber,
	}, &out)
	return out.Url, err
}

// Complete finalizes a multipart session and returns the public URL of the
// assembled object. Parts may be supplied in any order; they are sorted by
// part number before submission. Every part must carry an etag.
func (c *Client) Complete(ctx context.Context, key, uploadId, contentType string, size int64, parts []Part) (string, error) {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	slices.SortFunc(sorted, func(a, b Part) int {
		return int(a.PartNumber - b.PartNumber)
	})
	for _, part := range sorted {
		if part.ETag == "" {
			return "", &ValidationError{Msg: fmt.Sprintf("part %d has no etag", part.PartNumber)}
		}
	}
	var out struct {
		PublicUrl string `json:"publicUrl"`
		Location  string `json:"location"`
	}
	err := c.post(ctx, "complete", map[string]interface{}{
		"fileName":    key,
		"uploadId":    uploadId,
		"contentType": contentType,
		"size":        size,
		"parts":       sorted,
	}, &out)
	return out.PublicUrl, err
}

// Abort discards a multipart session and any parts stored for it.
func (c *Client) Abort(ctx context.Context, key, uploadId string) error {
	return c.post(ctx, "abort", map[string]interface{}{
		"fileName": key,
		"uploadId": uploadId,
	}, &struct{}{})
}

// PresignDirect returns a time-limited PUT URL and the eventual public URL
// for a single-shot upload. The size is reported so the control plane can
// record the object without seeing its bytes.
func (c *Client) PresignDirect(ctx context.Context, key, contentType string, size int64) (string, string, error) {
	if key == "" || contentType == "" {
		return "", "", &ValidationError{Msg: "fileName and contentType are required"}
	}
	var out struct {
		Url       string `json:"url"`
		PublicUrl string `json:"publicUrl"`
	}
	err := c.post(ctx, "presign", map[string]interface{}{
		"fileName":    key,
		"contentType": contentType,
		"size":        size,
	}, &out)
	return out.Url, out.PublicUrl, err
}

func (c *Client) post(ctx context.Context, route string, in, out interface{}) error {
	u := c.host
	u.Path = path.Join(u.Path, "vitrine/v1/uploads", route)

	body, err := json.Marshal(in)
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("cannot encode %s request: %v", route, err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("invalid %s request: %v", route, err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hclient.Do(req)
	if err != nil {
		return &TransportError{StatusText: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp.StatusCode, decodeErrorMessage(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Status: resp.StatusCode, StatusText: fmt.Sprintf("cannot decode %s response: %v", route, err)}
	}
	return nil
}

// responseError maps a control-plane failure status to the error taxonomy.
func responseError(status int, msg string) error {
	switch {
	case status == http.StatusBadRequest:
		return &ValidationError{Msg: msg}
	case status == http.StatusNotFound:
		return &NotFoundError{Msg: msg}
	case status >= http.StatusInternalServerError && strings.Contains(strings.ToLower(msg), "config"):
		return &ConfigError{Msg: msg}
	}
	return &TransportError{Status: status, StatusText: msg}
}

func decodeErrorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return http.StatusText(resp.StatusCode)
	}
	return body.Error
}
