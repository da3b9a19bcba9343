package interfaces

import (
	"context"

	"github.com/donmikel/quizup/applications/uploader/domain"
)

type UploadClient interface {
	Upload(ctx context.Context, file domain.SelectedFile) (domain.UploadResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
