package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"wallclient/internal/domain"
	"wallclient/internal/i18n"
	"wallclient/internal/jobclient"
	"wallclient/internal/middleware"
)

type stateView struct {
	jobclient.Snapshot
	Message        string `json:"message"`
	Busy           bool   `json:"busy"`
	ButtonLabel    string `json:"button_label"`
	ButtonDisabled bool   `json:"button_disabled"`
	DownloadURL    string `json:"download_url,omitempty"`
	DownloadLabel  string `json:"download_label"`
}

// newStateView renders a snapshot for the page. A completed job replaces the
// submit button with a download link.
func newStateView(tag language.Tag, snap jobclient.Snapshot) stateView {
	busy := snap.State == jobclient.StateSubmitting || snap.State == jobclient.StatePolling
	label := i18n.Text(tag, i18n.Generate)
	if busy {
		label = i18n.Text(tag, i18n.Generating)
	}
	view := stateView{
		Snapshot:       snap,
		Message:        snap.Message(tag),
		Busy:           busy,
		ButtonLabel:    label,
		ButtonDisabled: !snap.SubmitEnabled,
		DownloadLabel:  i18n.Text(tag, i18n.Download),
	}
	if snap.State == jobclient.StateCompleted {
		view.DownloadURL = snap.FinalURL
	}
	return view
}

// SubmitJob accepts the light/dark upload from the page and starts a job.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form data")
		return
	}
	light, err := formImage(r, "light")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	dark, err := formImage(r, "dark")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	jobID, err := a.Jobs.Submit(r.Context(), light, dark)
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation", jobclient.Message(tag, jobclient.NoticeValidation, ""))
		return
	case errors.Is(err, jobclient.ErrSuperseded):
		a.error(w, http.StatusConflict, "superseded", "a newer submission replaced this one")
		return
	case err != nil:
		view := newStateView(tag, a.Jobs.Snapshot())
		a.json(w, http.StatusBadGateway, errorBody{Error: "submission", Message: view.Message, State: &view})
		return
	}
	a.Logger.Info().
		Str("job_id", jobID).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("ui: job submitted")
	a.json(w, http.StatusAccepted, newStateView(tag, a.Jobs.Snapshot()))
}

// JobState returns the current snapshot.
func (a *App) JobState(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, newStateView(tag, a.Jobs.Snapshot()))
}

// formImage reads an optional file field; a missing field yields nil so the
// controller reports the validation error.
func formImage(r *http.Request, field string) (*domain.ImageFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return readPart(files[0])
}

func readPart(fh *multipart.FileHeader) (*domain.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &domain.ImageFile{Name: fh.Filename, ContentType: ct, Data: data}, nil
}
