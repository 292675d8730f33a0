package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageRef identifies a built candidate image. The evaluation session creates
// one ref per run, holds it for the session's lifetime, and releases it on
// every exit path.
type ImageRef struct {
	Tag string
}

// NewImageRef derives a uniquely tagged ref for a repository name, so
// concurrent sessions never collide on image names.
func NewImageRef(repo string) ImageRef {
	uid := uuid.New().String()[:8]
	return ImageRef{Tag: fmt.Sprintf("crucible-eval-%s:%s", sanitizeRepo(repo), uid)}
}

func (r ImageRef) String() string {
	return r.Tag
}

// sanitizeRepo lowers a repository name into the character set Docker accepts
// in image names.
func sanitizeRepo(repo string) string {
	lowered := strings.ToLower(repo)
	var b strings.Builder
	for _, c := range lowered {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-._")
	if out == "" {
		out = "candidate"
	}
	return out
}

// BuildInput describes one image build.
type BuildInput struct {
	// Recipe is the path to the candidate Dockerfile.
	Recipe string
	// ContextDir is the build context directory.
	ContextDir string
	// Tag is the image tag to assign; the session chooses it before building
	// so teardown works even when the build fails partway.
	Tag string
	// Timeout bounds the whole build.
	Timeout time.Duration
}

// ExecResult carries the observable effects of one probe run inside an image.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// CombinedOutput returns stdout and stderr concatenated, the stream checks
// match substrings against.
func (r *ExecResult) CombinedOutput() string {
	return r.Stdout + r.Stderr
}

// Prober runs shell probes inside a built image. It is the narrow surface
// checks see; they never touch the image lifecycle.
type Prober interface {
	// Probe runs `sh -c command` in a fresh container of the image and
	// reports the exit code and captured output. A probe that exceeds
	// timeout is killed and reported with TimedOut set rather than an
	// error; errors are reserved for faults reaching the environment.
	Probe(ctx context.Context, image ImageRef, command string, timeout time.Duration) (*ExecResult, error)
}

// Runtime is the full backend surface owned by the evaluation session:
// build a recipe into an image, probe inside it, remove it.
type Runtime interface {
	Prober

	// Build materializes in.Recipe into an image tagged in.Tag and returns
	// the ref. Failures return a BuildError.
	Build(ctx context.Context, in BuildInput) (ImageRef, error)

	// Remove deletes the image. Safe to call for images that never finished
	// building.
	Remove(ctx context.Context, image ImageRef) error
}
