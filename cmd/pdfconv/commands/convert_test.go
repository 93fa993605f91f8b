package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/storage"
)

type fakeRunner struct {
	outcome  domain.Outcome
	files    []string
	progress domain.ProgressReporter
}

func (f *fakeRunner) RunWithProgress(ctx context.Context, tool domain.Tool, files []domain.FileHandle, progress domain.ProgressReporter) domain.Outcome {
	for _, fh := range files {
		f.files = append(f.files, fh.Name())
	}
	f.progress = progress
	progress.Update(50, "Halfway...")
	return f.outcome
}

func withoutBar(t *testing.T) {
	t.Helper()
	prev := noBar
	noBar = true
	t.Cleanup(func() { noBar = prev })
}

func TestConvert_WritesRetainedArtifact(t *testing.T) {
	withoutBar(t)
	dir := filepath.Join(t.TempDir(), "out")
	r := &fakeRunner{outcome: domain.Outcome{
		Status:   domain.OutcomeCompleted,
		Artifact: &domain.Artifact{Filename: "converted-file.txt", Data: []byte("hello")},
	}}

	var out, errOut bytes.Buffer
	err := convert(context.Background(), r, domain.ToolPDFToText, []string{"/tmp/in/report.pdf"}, dir, &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, []string{"report.pdf"}, r.files)
	want := filepath.Join(dir, "converted-file.txt")
	assert.Equal(t, want, strings.TrimSpace(out.String()))
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestConvert_ImmediateIsNotWrittenTwice(t *testing.T) {
	withoutBar(t)
	dir := t.TempDir()
	r := &fakeRunner{outcome: domain.Outcome{
		Status:    domain.OutcomeCompleted,
		AutoSaved: true,
		Message:   "split-pages.zip saved.",
		Artifact:  &domain.Artifact{Filename: "split-pages.zip", Data: []byte("PK")},
	}}

	var out, errOut bytes.Buffer
	require.NoError(t, convert(context.Background(), r, domain.ToolSplitPDF, []string{"a.pdf"}, dir, &out, &errOut))
	assert.Equal(t, "split-pages.zip saved.", strings.TrimSpace(out.String()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvert_ImmediateSaveFailed(t *testing.T) {
	withoutBar(t)
	r := &fakeRunner{outcome: domain.Outcome{
		Status:   domain.OutcomeCompleted,
		Artifact: &domain.Artifact{Filename: "split-pages.zip"},
	}}

	var out, errOut bytes.Buffer
	err := convert(context.Background(), r, domain.ToolSplitPDF, []string{"a.pdf"}, t.TempDir(), &out, &errOut)
	assert.Error(t, err)
}

func TestConvert_Cancelled(t *testing.T) {
	withoutBar(t)
	r := &fakeRunner{outcome: domain.Outcome{Status: domain.OutcomeCancelled, Err: domain.ErrCancelled}}

	var out, errOut bytes.Buffer
	err := convert(context.Background(), r, domain.ToolPDFToJPG, []string{"a.pdf"}, t.TempDir(), &out, &errOut)
	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 130, ExitCode(err))
}

func TestConvert_Failed(t *testing.T) {
	withoutBar(t)
	cause := &domain.ParseError{File: "a.pdf", Err: errors.New("bad xref")}
	r := &fakeRunner{outcome: domain.Outcome{Status: domain.OutcomeFailed, Err: cause, Message: cause.Error()}}

	var out, errOut bytes.Buffer
	err := convert(context.Background(), r, domain.ToolPDFToWord, []string{"a.pdf"}, t.TempDir(), &out, &errOut)
	require.ErrorAs(t, err, &cause)
	assert.Equal(t, 1, ExitCode(err))
}

func TestPrintTools(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printTools(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(domain.AllTools())+1)
	assert.Contains(t, lines[1], "pdf-to-word")
	assert.Contains(t, lines[1], "converted-file.docx")
	assert.Contains(t, out.String(), "merge-pdf")
}

func TestBarReporter(t *testing.T) {
	var out bytes.Buffer
	r := newBarReporter(&out, "Converting")
	r.Update(40, "Processing page 1 of 2...")
	r.Update(100, "")
	r.Finish()

	assert.Contains(t, out.String(), "Processing page 1 of 2...")
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

func TestCLIConfig_SavesLocallyEvenWithSupabaseSet(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	dir := t.TempDir()

	cfg, err := cliConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.GetOutputDir())
	assert.Empty(t, cfg.GetSupabaseURL())
	assert.Empty(t, cfg.GetSupabaseKey())

	container := config.NewContainerWithConfig(cfg, nopLogger{})
	local, ok := container.Saver.(*storage.LocalSaver)
	require.True(t, ok, "saver is %T", container.Saver)
	assert.Equal(t, dir, local.Dir())
	assert.Nil(t, container.SupabaseClient)
}
