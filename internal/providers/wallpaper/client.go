package wallpaper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"wallclient/internal/domain"
	"wallclient/internal/infra"
)

// ErrMissingBaseURL indicates that the client was configured without a backend address.
var ErrMissingBaseURL = errors.New("wallpaper: base url is required")

const (
	createPath  = "/api/create"
	statusPath  = "/api/status/"
	galleryPath = "/api/gallery"

	requestIDHeader = "X-Request-ID"
)

// Options configures the wallpaper backend client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the wallpaper generation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// StatusError is returned when the backend answers with a non-success status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Code, http.StatusText(e.Code))
}

type createResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client. A zero RequestTimeout leaves individual
// calls unbounded, matching the platform default.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if parsed, err := url.Parse(baseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("wallpaper: invalid base url %q", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.RequestTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Create uploads the light and dark images as one multipart request and
// returns the job the backend created.
func (c *Client) Create(ctx context.Context, light, dark *domain.ImageFile) (*domain.Job, error) {
	if err := domain.ValidatePair(light, dark); err != nil {
		return nil, err
	}
	body, contentType, err := encodeImages(light, dark)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: encode upload: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, createPath, body, contentType)
	if err != nil {
		return nil, err
	}
	var decoded createResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("wallpaper: decode create response: %w", err)
	}
	id := strings.TrimSpace(decoded.ID)
	if id == "" {
		return nil, errors.New("wallpaper: create response has no job id")
	}
	c.logger.Debug().Str("job_id", id).Msg("wallpaper: job created")
	return &domain.Job{ID: id, Status: domain.JobStatusPending}, nil
}

// Status fetches the current snapshot of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("wallpaper: job id is required")
	}
	raw, err := c.do(ctx, http.MethodGet, statusPath+url.PathEscape(jobID), nil, "")
	if err != nil {
		return nil, err
	}
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("wallpaper: decode status response: %w", err)
	}
	if job.ID == "" {
		job.ID = jobID
	}
	job.Status = domain.ParseJobStatus(string(job.Status))
	if !job.Status.Valid() {
		return nil, fmt.Errorf("wallpaper: unknown job status %q", job.Status)
	}
	return &job, nil
}

// Gallery lists completed wallpapers. An empty list is a valid answer.
func (c *Client) Gallery(ctx context.Context) ([]domain.Wallpaper, error) {
	raw, err := c.do(ctx, http.MethodGet, galleryPath, nil, "")
	if err != nil {
		return nil, err
	}
	var out []domain.Wallpaper
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("wallpaper: decode gallery response: %w", err)
	}
	if out == nil {
		out = []domain.Wallpaper{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	raw, _, err := c.send(req)
	return raw, err
}

// Download fetches a wallpaper file. Relative URLs, as returned by the
// backend, are resolved against the base URL.
func (c *Client) Download(ctx context.Context, rawURL string) (*domain.ImageFile, error) {
	target, err := c.resolve(rawURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: build request: %w", err)
	}
	raw, contentType, err := c.send(req)
	if err != nil {
		return nil, err
	}
	name := path.Base(target.Path)
	if name == "/" || name == "." {
		name = ""
	}
	return &domain.ImageFile{Name: name, ContentType: contentType, Data: raw}, nil
}

func (c *Client) resolve(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("wallpaper: download url is required")
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: invalid download url %q: %w", rawURL, err)
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("wallpaper: invalid base url: %w", err)
	}
	target := base.ResolveReference(ref)
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("wallpaper: unsupported download scheme %q", target.Scheme)
	}
	return target, nil
}

func (c *Client) send(req *http.Request) ([]byte, string, error) {
	rid := uuid.NewString()
	req.Header.Set(requestIDHeader, rid)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("wallpaper: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("wallpaper: read response: %w", err)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", rid).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("wallpaper: backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("wallpaper: %w", statusError(resp.StatusCode, raw))
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

func statusError(code int, raw []byte) *StatusError {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		if msg := strings.TrimSpace(detail.Error); msg != "" {
			return &StatusError{Code: code, Message: msg}
		}
		if msg := strings.TrimSpace(detail.Message); msg != "" {
			return &StatusError{Code: code, Message: msg}
		}
	}
	return &StatusError{Code: code}
}

func encodeImages(light, dark *domain.ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, part := range []struct {
		field string
		file  *domain.ImageFile
	}{{"light", light}, {"dark", dark}} {
		if err := writeFilePart(mw, part.field, part.file); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFilePart(mw *multipart.Writer, field string, file *domain.ImageFile) error {
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = field
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	header.Set("Content-Type", file.MIMEType())
	w, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = w.Write(file.Data)
	return err
}
