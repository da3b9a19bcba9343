package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/donmikel/quizup/applications/uploader"
	"github.com/donmikel/quizup/applications/uploader/adapters/console"
	"github.com/donmikel/quizup/applications/uploader/adapters/httpclient"
	"github.com/donmikel/quizup/applications/uploader/config"
	"github.com/donmikel/quizup/applications/uploader/domain"
	"github.com/donmikel/quizup/applications/uploader/interfaces"
	"github.com/donmikel/quizup/applications/uploader/services"
)

var (
	errUploadFailed = errors.New("upload failed")
	errInputClosed  = errors.New("input closed")
	errSignal       = errors.New("signal received")
)

type options struct {
	configPath  string
	showVersion bool
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdin: stdin, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "quizup",
		Short:         "Quiz file upload client",
		Long:          "Uploads quiz files to the quiz master /upload endpoint and reports how many questions were loaded",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				if version == "" {
					return errors.New("version not set")
				}
				fmt.Fprintf(opts.stdout, "Version: %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the config file")
	cmd.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "Show version")

	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newConsoleCmd(opts))

	return cmd
}

type app struct {
	logger   log.Logger
	form     *console.Form
	input    *console.FileInput
	handler  uploader.UploadHandler
	outcomes *outcomeNotifier
}

func (o *options) bootstrap() (*app, error) {
	cfg, err := config.Parse(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger := newLogger(o.stderr, cfg.Log)
	level.Debug(logger).Log("configPath", o.configPath, "endpoint", cfg.Endpoint.URL())

	var input *console.FileInput
	{
		input = console.NewFileInput(cfg.Form.FileInputID)
	}

	var form *console.Form
	{
		form = console.NewForm(cfg.Form.ID, input, logger)
	}

	var client interfaces.UploadClient
	{
		client = httpclient.NewClient(cfg.Endpoint, &http.Client{}, logger)
	}

	outcomes := &outcomeNotifier{next: console.NewNotifier(o.stdout)}

	return &app{
		logger:   logger,
		form:     form,
		input:    input,
		handler:  services.Bind(form, input, client, outcomes, logger),
		outcomes: outcomes,
	}, nil
}

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a single quiz file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap()
			if err != nil {
				return err
			}

			if err = a.input.Select(args[0]); err != nil {
				level.Warn(a.logger).Log("msg", "file not selected", "err", err)
			}

			a.form.Submit(cmd.Context())
			a.handler.Wait()

			if a.outcomes.failures.Load() > 0 {
				return errUploadFailed
			}

			return nil
		},
	}
}

func newConsoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Read quiz file paths from stdin and upload each one",
		Long:  "Every line read from stdin selects that file and submits the form. An empty line submits without a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap()
			if err != nil {
				return err
			}

			return runConsole(cmd.Context(), a, opts.stdin)
		},
	}
}

func runConsole(ctx context.Context, a *app, stdin io.Reader) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-sig:
			level.Info(a.logger).Log("msg", fmt.Sprintf("signal received: %v", s))
			return fmt.Errorf("%w: %s", errSignal, s)
		}
	})

	group.Go(func() error {
		if err := a.form.Run(ctx, stdin); err != nil {
			return fmt.Errorf("form stopped: %w", err)
		}
		return errInputClosed
	})

	err := group.Wait()

	level.Info(a.logger).Log("msg", "waiting for in-flight uploads")
	a.handler.Wait()

	if errors.Is(err, errInputClosed) || errors.Is(err, errSignal) {
		level.Info(a.logger).Log("msg", "console stopped", "reason", err)
		return nil
	}

	return err
}

// outcomeNotifier counts failed submissions before passing notifications on.
type outcomeNotifier struct {
	next     interfaces.Notifier
	failures atomic.Int64
}

func (n *outcomeNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	if !msg.Success {
		n.failures.Add(1)
	}

	return n.next.Notify(ctx, msg)
}
