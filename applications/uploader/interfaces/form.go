package interfaces

import (
	"context"

	"github.com/donmikel/quizup/applications/uploader/domain"
)

type SubmitListener func(ctx context.Context, event *domain.SubmitEvent)

type Form interface {
	ID() string
	OnSubmit(listener SubmitListener)
}

type FileInput interface {
	ID() string
	SelectedFiles(ctx context.Context) ([]domain.SelectedFile, error)
}
