package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donmikel/quizup/applications/uploader/config"
)

// quizEndpoint answers like the quiz master: one question per line of the
// uploaded file, or an error when the file is empty.
func quizEndpoint(t *testing.T) *httptest.Server {
	t.Helper()

	r := mux.NewRouter()
	r.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": err.Error()})
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "no file part"})
			return
		}
		defer file.Close()

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(file)
		content := strings.TrimSpace(buf.String())
		if content == "" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "empty quiz file"})
			return
		}

		questions := strings.Split(content, "\n")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "questions": questions})
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvBaseURL, srv.URL)
	t.Setenv(config.EnvLogLevel, "error")

	return srv
}

func writeQuiz(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestUploadCommandSuccess(t *testing.T) {
	quizEndpoint(t)
	path := writeQuiz(t, "quiz.csv", "q1\nq2\nq3\n")

	out, err := execute(t, "", "upload", path)

	require.NoError(t, err)
	assert.Equal(t, "✅ File uploaded. 3 questions loaded.\n", out)
}

func TestUploadCommandApplicationFailure(t *testing.T) {
	quizEndpoint(t)
	path := writeQuiz(t, "empty.csv", "")

	out, err := execute(t, "", "upload", path)

	assert.ErrorIs(t, err, errUploadFailed)
	assert.Equal(t, "❌ Upload failed: empty quiz file\n", out)
}

func TestUploadCommandMissingFile(t *testing.T) {
	quizEndpoint(t)

	out, err := execute(t, "", "upload", filepath.Join(t.TempDir(), "missing.csv"))

	assert.ErrorIs(t, err, errUploadFailed)
	assert.Equal(t, "❌ Upload failed: no file selected\n", out)
}

func TestUploadCommandEndpointDown(t *testing.T) {
	srv := quizEndpoint(t)
	srv.Close()
	path := writeQuiz(t, "quiz.csv", "q1\n")

	out, err := execute(t, "", "upload", path)

	assert.ErrorIs(t, err, errUploadFailed)
	assert.True(t, strings.HasPrefix(out, "❌ Upload failed: "), out)
}

func TestUploadCommandRequiresOneArg(t *testing.T) {
	quizEndpoint(t)

	_, err := execute(t, "", "upload")

	assert.Error(t, err)
}

func TestUploadCommandInvalidConfig(t *testing.T) {
	quizEndpoint(t)
	t.Setenv(config.EnvBaseURL, "not a url")

	_, err := execute(t, "", "upload", writeQuiz(t, "quiz.csv", "q1\n"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, errUploadFailed)
}

func TestConsoleCommand(t *testing.T) {
	quizEndpoint(t)
	round1 := writeQuiz(t, "round1.csv", "q1\nq2\n")
	round2 := writeQuiz(t, "round2.csv", "q1\nq2\nq3\nq4\n")

	out, err := execute(t, round1+"\n\n"+round2+"\n", "console")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.ElementsMatch(t, []string{
		"✅ File uploaded. 2 questions loaded.",
		"❌ Upload failed: no file selected",
		"✅ File uploaded. 4 questions loaded.",
	}, lines)
}

func TestVersionFlag(t *testing.T) {
	version = "v1.2.3"
	defer func() { version = "" }()

	out, err := execute(t, "", "-v")

	require.NoError(t, err)
	assert.Equal(t, "Version: v1.2.3\n", out)
}

func TestVersionNotSet(t *testing.T) {
	_, err := execute(t, "", "--version")

	assert.Error(t, err)
}
