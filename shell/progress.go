package shell

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar matches core.ProgressFactory.
func NewProgressBar(output io.Writer) func(size int64, description string) io.WriteCloser {
	return func(size int64, description string) io.WriteCloser {
		if size <= 0 {
			size = -1
		}
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(output),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		return &progressWriter{bar: bar}
	}
}

type progressWriter struct {
	bar *progressbar.ProgressBar
}

func (this *progressWriter) Write(p []byte) (int, error) {
	return this.bar.Write(p)
}

func (this *progressWriter) Close() error {
	return this.bar.Finish()
}
