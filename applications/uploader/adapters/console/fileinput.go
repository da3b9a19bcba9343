package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
)

// FileInput holds the files currently picked from the local filesystem.
type FileInput struct {
	id       string
	selected []domain.SelectedFile
	mutex    sync.RWMutex
}

var _ interfaces.FileInput = (*FileInput)(nil)

func NewFileInput(id string) *FileInput {
	return &FileInput{id: id}
}

func (i *FileInput) ID() string {
	return i.id
}

// Select replaces the selection with the given paths. Nothing is selected if
// any path can't be used.
func (i *FileInput) Select(paths ...string) error {
	selected := make([]domain.SelectedFile, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			i.Clear()
			return fmt.Errorf("can't select %q: %w", path, err)
		}
		if info.IsDir() {
			i.Clear()
			return fmt.Errorf("can't select %q: is a directory", path)
		}

		selected = append(selected, diskFile(path, info.Size()))
	}

	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.selected = selected

	return nil
}

func (i *FileInput) Clear() {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.selected = nil
}

func (i *FileInput) SelectedFiles(ctx context.Context) ([]domain.SelectedFile, error) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	result := make([]domain.SelectedFile, len(i.selected))
	copy(result, i.selected)

	return result, nil
}

func diskFile(path string, size int64) domain.SelectedFile {
	return domain.SelectedFile{
		Name: filepath.Base(path),
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
