package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
)

// Form is a line oriented form: every line read by Run picks a file into the
// form's input and submits the form.
type Form struct {
	id        string
	input     *FileInput
	listeners []interfaces.SubmitListener
	mutex     sync.RWMutex
	logger    log.Logger
}

var _ interfaces.Form = (*Form)(nil)

func NewForm(id string, input *FileInput, logger log.Logger) *Form {
	return &Form{
		id:     id,
		input:  input,
		logger: logger,
	}
}

func (f *Form) ID() string {
	return f.id
}

func (f *Form) OnSubmit(listener interfaces.SubmitListener) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.listeners = append(f.listeners, listener)
}

// Submit dispatches a new submit event to every listener and returns it.
func (f *Form) Submit(ctx context.Context) *domain.SubmitEvent {
	event := domain.NewSubmitEvent()

	f.mutex.RLock()
	listeners := make([]interfaces.SubmitListener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mutex.RUnlock()

	level.Debug(f.logger).Log("msg", "form submitted",
		"form", f.id,
		"submission_id", event.ID,
		"listeners", len(listeners),
	)

	for _, l := range listeners {
		l(ctx, event)
	}

	return event
}

// Run reads file paths from r until EOF or ctx is done. A blank line clears
// the input before submitting. Submissions outlive ctx so that stopping the
// form does not abort uploads already in flight.
func (f *Form) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			// Input that already ended wins over cancellation; both stop the form.
			select {
			case err := <-errc:
				return err
			default:
				return ctx.Err()
			}
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			f.submitLine(context.WithoutCancel(ctx), strings.TrimSpace(line))
		}
	}
}

func (f *Form) submitLine(ctx context.Context, path string) {
	if path == "" {
		f.input.Clear()
	} else if err := f.input.Select(path); err != nil {
		level.Warn(f.logger).Log("msg", "file not selected",
			"form", f.id,
			"input", f.input.ID(),
			"err", err,
		)
	}

	f.Submit(ctx)
}
