package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"wallclient/internal/domain"
	"wallclient/internal/gallery"
	"wallclient/internal/jobclient"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type stubBackend struct {
	mu        sync.Mutex
	createErr error
	creates   int
	status    *domain.Job
}

func (b *stubBackend) Create(ctx context.Context, light, dark *domain.ImageFile) (*domain.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &domain.Job{ID: "job-1", Status: domain.JobStatusPending}, nil
}

func (b *stubBackend) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	if b.status != nil {
		job := *b.status
		return &job, nil
	}
	return &domain.Job{ID: jobID, Status: domain.JobStatusProcessing}, nil
}

type stubGallery struct {
	items []domain.Wallpaper
	err   error
}

func (s stubGallery) Gallery(ctx context.Context) ([]domain.Wallpaper, error) {
	return s.items, s.err
}

func newTestApp(t *testing.T, backend *stubBackend, src gallery.Source) *App {
	t.Helper()
	loader := gallery.NewLoader(src, nil)
	ctrl, err := jobclient.NewController(jobclient.Options{
		Backend: backend,
		Gallery: loader,
		NewTicker: func(time.Duration) jobclient.Ticker {
			return jobclient.NewTimeTicker(5 * time.Millisecond)
		},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	t.Cleanup(ctrl.Close)
	return NewApp(ctrl, loader, nil, nil)
}

func multipartBody(t *testing.T, fields map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range fields {
		fw, err := mw.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestSubmitJobRequiresBothImages(t *testing.T) {
	backend := &stubBackend{}
	app := newTestApp(t, backend, stubGallery{})

	body, ct := multipartBody(t, map[string][]byte{"light": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/ui/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	app.SubmitJob(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var got errorBody
	decode(t, rec, &got)
	if got.Error != "validation" || got.Message != "Please select both a light and a dark image." {
		t.Fatalf("unexpected body: %+v", got)
	}
	if backend.creates != 0 {
		t.Fatalf("backend called %d times on validation failure", backend.creates)
	}
	if s := app.Jobs.Snapshot().State; s != jobclient.StateIdle {
		t.Fatalf("state = %s, want idle", s)
	}
}

func TestSubmitJobStartsPolling(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{})

	body, ct := multipartBody(t, map[string][]byte{"light": pngHeader, "dark": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/ui/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	app.SubmitJob(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var got stateView
	decode(t, rec, &got)
	if got.State != jobclient.StatePolling || got.JobID != "job-1" || !got.Busy {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.Message != "Processing... this may take a moment." || got.ButtonLabel != "Generating..." {
		t.Fatalf("unexpected labels: %+v", got)
	}
	if n := app.Jobs.ActiveTimers(); n != 1 {
		t.Fatalf("active timers = %d, want 1", n)
	}
}

func TestSubmitJobReportsBackendFailure(t *testing.T) {
	backend := &stubBackend{createErr: errors.New("Server error: Bad Gateway")}
	app := newTestApp(t, backend, stubGallery{})

	body, ct := multipartBody(t, map[string][]byte{"light": pngHeader, "dark": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/ui/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	app.SubmitJob(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var got errorBody
	decode(t, rec, &got)
	if got.Error != "submission" || !strings.HasPrefix(got.Message, "Error: ") {
		t.Fatalf("unexpected body: %+v", got)
	}
	if got.State == nil || got.State.State != jobclient.StateErrored || !got.State.SubmitEnabled {
		t.Fatalf("unexpected state: %+v", got.State)
	}
	if n := app.Jobs.ActiveTimers(); n != 0 {
		t.Fatalf("active timers = %d, want 0", n)
	}
}

func TestSubmitJobRejectsOversizedBody(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{})
	app.MaxUploadBytes = 16

	body, ct := multipartBody(t, map[string][]byte{"light": bytes.Repeat(pngHeader, 8), "dark": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/ui/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	app.SubmitJob(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 413 or 400", rec.Code)
	}
}

func TestGalleryFragment(t *testing.T) {
	tests := []struct {
		name string
		src  stubGallery
		want string
	}{
		{name: "empty", src: stubGallery{}, want: "No wallpapers have been created yet."},
		{name: "unavailable", src: stubGallery{err: errors.New("boom")}, want: "Could not load the gallery. Please try again later."},
		{name: "items", src: stubGallery{items: []domain.Wallpaper{{PreviewURL: "/p/1.png", FinalURL: "/w/1.heic"}}}, want: `href="/w/1.heic" download`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &stubBackend{}, tc.src)
			rec := httptest.NewRecorder()
			app.GalleryFragment(rec, httptest.NewRequest(http.MethodGet, "/ui/gallery", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestIndexRendersFormAndGallery(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{})
	rec := httptest.NewRecorder()
	app.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{`name="light"`, `name="dark"`, "Generate", `id="gallery-grid"`, "No wallpapers have been created yet."} {
		if !strings.Contains(out, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Contains(out, " disabled>") {
		t.Fatalf("submit button disabled on idle page")
	}
}

func TestStaticServesAssets(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "WebSocket") {
		t.Fatalf("unexpected static response: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{})
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var got map[string]any
	decode(t, rec, &got)
	if got["status"] != "ok" || got["state"] != "idle" {
		t.Fatalf("unexpected health: %v", got)
	}
}

func TestEventsStreamsStateAndGallery(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{items: []domain.Wallpaper{{FinalURL: "/w/9.heic"}}})
	srv := httptest.NewServer(http.HandlerFunc(app.Events))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first wsMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if first.Type != eventTypeState || first.State == nil || first.State.State != jobclient.StateIdle {
		t.Fatalf("unexpected initial message: %+v", first)
	}

	deadline := time.Now().Add(2 * time.Second)
	for app.Hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	app.Gallery.Refresh(context.Background())

	var next wsMessage
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read gallery: %v", err)
	}
	if next.Type != eventTypeGallery || !strings.Contains(next.HTML, "/w/9.heic") {
		t.Fatalf("unexpected gallery message: %+v", next)
	}
}

func TestNewStateView(t *testing.T) {
	tests := []struct {
		name         string
		snap         jobclient.Snapshot
		wantDisabled bool
		wantDownload string
		wantLabel    string
	}{
		{
			name:      "idle",
			snap:      jobclient.Snapshot{State: jobclient.StateIdle, SubmitEnabled: true},
			wantLabel: "Generate",
		},
		{
			name:         "polling",
			snap:         jobclient.Snapshot{State: jobclient.StatePolling, Notice: jobclient.NoticeProcessing},
			wantDisabled: true,
			wantLabel:    "Generating...",
		},
		{
			name:         "poll error keeps submit disabled",
			snap:         jobclient.Snapshot{State: jobclient.StateErrored, Notice: jobclient.NoticePollError},
			wantDisabled: true,
			wantLabel:    "Generate",
		},
		{
			name:      "submission error allows retry",
			snap:      jobclient.Snapshot{State: jobclient.StateErrored, Notice: jobclient.NoticeSubmissionError, SubmitEnabled: true},
			wantLabel: "Generate",
		},
		{
			name:      "processing failure allows retry",
			snap:      jobclient.Snapshot{State: jobclient.StateFailed, Notice: jobclient.NoticeProcessingFailed, SubmitEnabled: true},
			wantLabel: "Generate",
		},
		{
			name:         "completed exposes download",
			snap:         jobclient.Snapshot{State: jobclient.StateCompleted, Notice: jobclient.NoticeReady, FinalURL: "/w/42.png"},
			wantDisabled: true,
			wantDownload: "/w/42.png",
			wantLabel:    "Generate",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newStateView(language.English, tc.snap)
			if v.ButtonDisabled != tc.wantDisabled {
				t.Fatalf("ButtonDisabled = %v, want %v", v.ButtonDisabled, tc.wantDisabled)
			}
			if v.DownloadURL != tc.wantDownload {
				t.Fatalf("DownloadURL = %q, want %q", v.DownloadURL, tc.wantDownload)
			}
			if v.ButtonLabel != tc.wantLabel || v.DownloadLabel != "Download" {
				t.Fatalf("labels = %q / %q", v.ButtonLabel, v.DownloadLabel)
			}
		})
	}
}

func TestIndexShowsDownloadLinkAfterCompletion(t *testing.T) {
	backend := &stubBackend{status: &domain.Job{ID: "42", Status: domain.JobStatusCompleted, FinalURL: "/w/42.png"}}
	app := newTestApp(t, backend, stubGallery{})

	light := &domain.ImageFile{Name: "light.png", Data: pngHeader}
	dark := &domain.ImageFile{Name: "dark.png", Data: pngHeader}
	if _, err := app.Jobs.Submit(context.Background(), light, dark); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := app.Jobs.Wait(ctx)
	if err != nil || snap.State != jobclient.StateCompleted {
		t.Fatalf("Wait = %+v, %v", snap, err)
	}

	rec := httptest.NewRecorder()
	app.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	page := rec.Body.String()
	if !strings.Contains(page, `href="/w/42.png" download>Download</a>`) {
		t.Fatalf("page has no download link for the finished wallpaper:\n%s", page)
	}
	if !strings.Contains(page, `id="submit-button" disabled hidden>`) {
		t.Fatalf("submit button should be replaced by the download link:\n%s", page)
	}

	rec = httptest.NewRecorder()
	app.JobState(rec, httptest.NewRequest(http.MethodGet, "/ui/state", nil))
	var got stateView
	decode(t, rec, &got)
	if got.DownloadURL != "/w/42.png" || !got.ButtonDisabled {
		t.Fatalf("unexpected state view: %+v", got)
	}
}

func TestIndexRendersPreviewSlots(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, stubGallery{})
	rec := httptest.NewRecorder()
	app.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, want := range []string{`id="light-preview"`, `id="dark-preview"`, `data-preview="light-preview"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestHubJoinStartsFromLatestState(t *testing.T) {
	h := NewHub()
	published := jobclient.Snapshot{State: jobclient.StateCompleted, Generation: 2, FinalURL: "/w/2.png"}
	h.PublishState(published)

	c := &wsClient{send: make(chan Event, wsSendBuffer)}
	h.add(c, jobclient.Snapshot{State: jobclient.StatePolling, Generation: 2})

	select {
	case ev := <-c.send:
		if ev.Type != eventTypeState || ev.Snapshot != published {
			t.Fatalf("first event = %+v, want latest published state", ev)
		}
	default:
		t.Fatalf("joining client received no state")
	}

	h.PublishState(jobclient.Snapshot{State: jobclient.StateIdle, Generation: 3})
	if ev := <-c.send; ev.Snapshot.Generation != 3 {
		t.Fatalf("later publish not delivered: %+v", ev)
	}
}

func TestHubJoinBeforeAnyPublishUsesFallback(t *testing.T) {
	h := NewHub()
	c := &wsClient{send: make(chan Event, wsSendBuffer)}
	fallback := jobclient.Snapshot{State: jobclient.StateIdle, SubmitEnabled: true}
	h.add(c, fallback)
	if ev := <-c.send; ev.Snapshot != fallback {
		t.Fatalf("first event = %+v, want fallback", ev)
	}
}
