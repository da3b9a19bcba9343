package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/quizup/applications/uploader/config"
	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
)

// FileField is the multipart part name the upload endpoint reads.
const FileField = "file"

const maxResponseSize = 32 << 20 // 32 MB

// ErrDecodeResponse is returned when the endpoint answers with a body that is
// not a JSON upload result.
var ErrDecodeResponse = errors.New("can't decode upload response")

type client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	logger  log.Logger
}

func NewClient(conf config.Endpoint, httpClient *http.Client, logger log.Logger) interfaces.UploadClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &client{
		url:     conf.URL(),
		timeout: conf.Timeout,
		http:    httpClient,
		logger:  logger,
	}
}

func (c *client) Upload(ctx context.Context, file domain.SelectedFile) (domain.UploadResult, error) {
	if file.Open == nil {
		return domain.UploadResult{}, fmt.Errorf("file %q has no contents", file.Name)
	}

	body, err := file.Open()
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("can't open file %q: %w", file.Name, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer body.Close()
		pw.CloseWithError(writeFilePart(mw, file.Name, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		pr.CloseWithError(err)
		return domain.UploadResult{}, fmt.Errorf("can't create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	level.Debug(c.logger).Log("msg", "uploading file",
		"url", c.url,
		"file", file.Name,
		"size", humanize.Bytes(uint64(file.Size)),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return domain.UploadResult{}, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("can't read upload response: %w", err)
	}

	// The whole body must be a single JSON object; success has to be a boolean.
	var result domain.UploadResult
	if err = json.Unmarshal(data, &result); err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w (status %d, %s): %v",
			ErrDecodeResponse, resp.StatusCode, resp.Header.Get("Content-Type"), err)
	}

	level.Info(c.logger).Log("msg", "upload completed",
		"file", file.Name,
		"status", resp.StatusCode,
		"success", result.Success,
		"questions", len(result.Questions),
		"took", time.Since(start),
	)

	return result, nil
}

func writeFilePart(mw *multipart.Writer, name string, body io.Reader) error {
	part, err := mw.CreateFormFile(FileField, name)
	if err != nil {
		return fmt.Errorf("can't create file part: %w", err)
	}

	if _, err = io.Copy(part, body); err != nil {
		return fmt.Errorf("can't copy file part: %w", err)
	}

	return mw.Close()
}
