package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samvaad-live/samvaad/pkg/core"
)

// FFmpegTranscoder shells out to ffmpeg for containers the native
// path cannot decode, WebM in particular. The container is staged in
// a scoped temporary file that is removed on every exit path; output
// streams back over stdout.
type FFmpegTranscoder struct {
	// Path is the ffmpeg binary to run. Empty means "ffmpeg" on PATH.
	Path string
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, container []byte) (*Clip, error) {
	bin := t.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	in, err := os.CreateTemp("", "samvaad-audio-*.webm")
	if err != nil {
		return nil, core.NewDecodeError("create temp input", err)
	}
	name := in.Name()
	defer os.Remove(name)

	if _, err := in.Write(container); err != nil {
		in.Close()
		return nil, core.NewDecodeError("write temp input", err)
	}
	if err := in.Close(); err != nil {
		return nil, core.NewDecodeError("close temp input", err)
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-loglevel", "error",
		"-i", name,
		"-f", "wav",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := firstLine(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, core.NewDecodeError(fmt.Sprintf("ffmpeg: %s", detail), err)
	}

	clip, err := DecodeWAV(stdout.Bytes())
	if err != nil {
		return nil, core.NewDecodeError("parse ffmpeg output", err)
	}
	return clip, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
