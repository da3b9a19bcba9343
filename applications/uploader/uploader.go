package uploader

import (
	"context"

	"github.com/donmikel/quizup/applications/uploader/domain"
)

type UploadHandler interface {
	HandleSubmit(ctx context.Context, event *domain.SubmitEvent)
	Wait()
}
