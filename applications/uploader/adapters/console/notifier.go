package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
)

type notifier struct {
	w     io.Writer
	mutex sync.Mutex
}

// NewNotifier writes one line per notification to w. Notify returns once the
// line is written and never interleaves with another notification.
func NewNotifier(w io.Writer) interfaces.Notifier {
	return &notifier{w: w}
}

func (n *notifier) Notify(ctx context.Context, msg domain.Notification) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if _, err := fmt.Fprintln(n.w, msg.Message); err != nil {
		return fmt.Errorf("can't write notification: %w", err)
	}

	return nil
}
