package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/quizup/applications/uploader"
	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
)

const (
	successFormat = "✅ File uploaded. %d questions loaded."
	failureFormat = "❌ Upload failed: %s"
)

var (
	ErrNoFileSelected = errors.New("no file selected")
	errUnknown        = errors.New("unknown error")
)

type handler struct {
	input    interfaces.FileInput
	client   interfaces.UploadClient
	notifier interfaces.Notifier
	logger   log.Logger
	inFlight sync.WaitGroup
}

func NewHandler(
	input interfaces.FileInput,
	client interfaces.UploadClient,
	notifier interfaces.Notifier,
	logger log.Logger,
) uploader.UploadHandler {
	return &handler{
		input:    input,
		client:   client,
		notifier: notifier,
		logger:   logger,
	}
}

// Bind attaches a new handler to the form's submit events. Call it once per
// form from the composition root.
func Bind(
	form interfaces.Form,
	input interfaces.FileInput,
	client interfaces.UploadClient,
	notifier interfaces.Notifier,
	logger log.Logger,
) uploader.UploadHandler {
	h := NewHandler(input, client, notifier, logger)
	form.OnSubmit(h.HandleSubmit)

	level.Info(logger).Log("msg", "upload handler bound",
		"form", form.ID(),
		"input", input.ID(),
	)

	return h
}

// HandleSubmit prevents the default action and reads the selection right
// away; the upload and the notification happen in the background.
func (h *handler) HandleSubmit(ctx context.Context, event *domain.SubmitEvent) {
	event.PreventDefault()

	logger := log.With(h.logger, "submission_id", event.ID)
	files, err := h.selectedFiles(ctx)

	h.inFlight.Add(1)
	go func() {
		defer h.inFlight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				level.Error(logger).Log("msg", "submission panicked",
					"err", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
				)
			}
		}()

		n := h.upload(ctx, logger, files, err)
		n.SubmissionID = event.ID

		if err := h.notifier.Notify(ctx, n); err != nil {
			level.Error(logger).Log("msg", "can't notify", "err", err)
		}
	}()
}

// selectedFiles turns a panicking input into an error.
func (h *handler) selectedFiles(ctx context.Context) (files []domain.SelectedFile, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			files, err = nil, fmt.Errorf("unexpected error: %v", rec)
		}
	}()

	return h.input.SelectedFiles(ctx)
}

func (h *handler) Wait() {
	h.inFlight.Wait()
}

func (h *handler) upload(ctx context.Context, logger log.Logger, files []domain.SelectedFile, selectErr error) (n domain.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			level.Error(logger).Log("msg", "upload panicked",
				"err", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
			n = failure(fmt.Errorf("unexpected error: %v", rec))
		}
	}()

	if selectErr != nil {
		level.Error(logger).Log("msg", "can't read selected files", "err", selectErr)
		return failure(fmt.Errorf("can't read selected file: %w", selectErr))
	}

	if len(files) == 0 {
		level.Warn(logger).Log("msg", "submission without file")
		return failure(ErrNoFileSelected)
	}

	file := files[0]
	level.Info(logger).Log("msg", "uploading quiz file",
		"file", file.Name,
		"size", humanize.Bytes(uint64(file.Size)),
	)

	result, err := h.client.Upload(ctx, file)
	if err != nil {
		level.Error(logger).Log("msg", "upload error",
			"file", file.Name,
			"err", err,
		)
		return failure(err)
	}

	if !result.Success {
		reason := errUnknown
		if result.Error != "" {
			reason = errors.New(result.Error)
		}
		level.Warn(logger).Log("msg", "upload rejected",
			"file", file.Name,
			"err", reason,
		)
		return failure(reason)
	}

	level.Info(logger).Log("msg", "quiz loaded",
		"file", file.Name,
		"questions", len(result.Questions),
	)

	return domain.Notification{
		Success: true,
		Message: fmt.Sprintf(successFormat, len(result.Questions)),
	}
}

func failure(err error) domain.Notification {
	return domain.Notification{
		Success: false,
		Message: fmt.Sprintf(failureFormat, err),
	}
}
