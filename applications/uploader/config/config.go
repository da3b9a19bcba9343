package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v2"
)

const (
	defaultFormID      = "uploadForm"
	defaultFileInputID = "quizFile"
	defaultBaseURL     = "http://localhost:5000"
	defaultUploadPath  = "/upload"
	defaultTimeout     = 30 * time.Second
)

// Environment variables overriding values from the config file.
const (
	EnvBaseURL  = "QUIZUP_BASE_URL"
	EnvTimeout  = "QUIZUP_TIMEOUT"
	EnvLogLevel = "QUIZUP_LOG_LEVEL"
)

type Uploader struct {
	Form     Form     `yaml:"form"`
	Endpoint Endpoint `yaml:"endpoint"`
	Log      Log      `yaml:"log"`
}

type Form struct {
	ID          string `yaml:"id"`
	FileInputID string `yaml:"file_input_id"`
}

type Endpoint struct {
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

func Default() Uploader {
	return Uploader{
		Form: Form{
			ID:          defaultFormID,
			FileInputID: defaultFileInputID,
		},
		Endpoint: Endpoint{
			BaseURL: defaultBaseURL,
			Path:    defaultUploadPath,
			Timeout: defaultTimeout,
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
	}
}

// Parse reads the config file on top of the defaults and applies environment
// overrides. An empty path yields the defaults.
func Parse(path string) (Uploader, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Uploader{}, fmt.Errorf("can't read config file: %w", err)
		}

		if err = yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Uploader{}, fmt.Errorf("can't unmarshal config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Uploader{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Uploader) error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Endpoint.BaseURL = v
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Endpoint.Timeout = d
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	return nil
}

// URL is the absolute upload endpoint.
func (e Endpoint) URL() string {
	return e.BaseURL + e.Path
}

func (c Uploader) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Form),
		validation.Field(&c.Endpoint),
		validation.Field(&c.Log),
	)
}

func (f Form) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.FileInputID, validation.Required),
	)
}

func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&e.Path,
			validation.Required,
			validation.Match(regexp.MustCompile(`^/`)).Error("path must start with a slash"),
		),
		validation.Field(&e.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.Required, validation.In("json", "logfmt")),
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}

	return nil
}
