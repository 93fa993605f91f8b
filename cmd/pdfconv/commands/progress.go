package commands

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"pdf-toolkit/internal/domain"
)

// barReporter shows job progress on a terminal bar scaled to 100.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func newBarReporter(out io.Writer, title string) *barReporter {
	bar := progressbar.NewOptions64(
		100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &barReporter{bar: bar}
}

func (r *barReporter) Update(percent float64, message string) {
	if message != "" {
		r.bar.Describe(message)
	}
	_ = r.bar.Set64(int64(percent))
}

func (r *barReporter) Finish() {
	_ = r.bar.Finish()
}

var _ domain.ProgressReporter = (*barReporter)(nil)
