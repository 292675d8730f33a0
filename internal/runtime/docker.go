package runtime

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/hollowbend/crucible/internal/logger"
	crucibleerrors "github.com/hollowbend/crucible/pkg/errors"
)

// DefaultBuildTimeout bounds image builds unless the caller overrides it.
const DefaultBuildTimeout = 10 * time.Minute

// maxBuildDetail caps how much build output a BuildError carries.
const maxBuildDetail = 2048

// DockerRuntime implements Runtime against a local Docker daemon. Builds
// shell out to the docker CLI, which reads the build context straight from
// disk; probes and image teardown go through the Engine API.
type DockerRuntime struct {
	log *logger.Logger
}

// NewDockerRuntime creates a Docker-backed runtime.
func NewDockerRuntime(log *logger.Logger) *DockerRuntime {
	return &DockerRuntime{log: log}
}

// Build runs `docker build -t tag -f recipe contextDir` under the build
// timeout and converts failures into BuildErrors carrying the output tail.
func (d *DockerRuntime) Build(ctx context.Context, in BuildInput) (ImageRef, error) {
	timeout := in.Timeout
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	buildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d.log.WithFields(map[string]any{
		"image":   in.Tag,
		"recipe":  in.Recipe,
		"context": in.ContextDir,
	}).Debug("building image")

	cmd := exec.CommandContext(buildCtx, "docker", "build", "-t", in.Tag, "-f", in.Recipe, in.ContextDir)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		switch {
		case buildCtx.Err() == context.DeadlineExceeded:
			return ImageRef{}, crucibleerrors.NewBuildError(in.Recipe, fmt.Sprintf("build timed out after %s", timeout), buildCtx.Err())
		case ctx.Err() != nil:
			return ImageRef{}, crucibleerrors.NewBuildError(in.Recipe, "build cancelled", ctx.Err())
		default:
			return ImageRef{}, crucibleerrors.NewBuildError(in.Recipe, tailOf(output.String(), maxBuildDetail), err)
		}
	}

	return ImageRef{Tag: in.Tag}, nil
}

// Probe runs `sh -c command` in a fresh container of the image. The container
// is force-removed afterwards; a probe exceeding timeout is SIGKILLed and
// reported with TimedOut set.
func (d *DockerRuntime) Probe(ctx context.Context, image ImageRef, command string, timeout time.Duration) (*ExecResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	containerCfg := &container.Config{
		Image:  image.Tag,
		Cmd:    []string{"sh", "-c", command},
		Labels: map[string]string{"crucible": "true"},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: containerCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	waitResult := cli.ContainerWait(waitCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				if ctxErr := ctx.Err(); ctxErr != nil {
					// Parent cancellation (operator interrupt), not a per-test timeout.
					return nil, ctxErr
				}
				stdout, stderr := d.collectLogs(cli, containerID)
				return &ExecResult{
					ExitCode: 124,
					Stdout:   stdout,
					Stderr:   stderr,
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			stdout, stderr := d.collectLogs(cli, containerID)
			return &ExecResult{
				ExitCode: int(status.StatusCode),
				Stdout:   stdout,
				Stderr:   stderr,
				Duration: time.Since(start),
			}, nil
		}
	}
}

// Remove deletes the image. Tolerates images that never finished building;
// the caller decides whether the error matters.
func (d *DockerRuntime) Remove(ctx context.Context, image ImageRef) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	if _, err := cli.ImageRemove(ctx, image.Tag, client.ImageRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("removing image %s: %w", image.Tag, err)
	}
	return nil
}

// collectLogs demultiplexes the container's combined log stream into stdout
// and stderr.
func (d *DockerRuntime) collectLogs(cli *client.Client, containerID string) (string, string) {
	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil || logReader == nil {
		return "", ""
	}
	defer logReader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logReader); err != nil {
		d.log.WithFields(map[string]any{"container": containerID}).Debug("demultiplexing container logs failed")
	}
	return stdout.String(), stderr.String()
}

// tailOf trims s to its final n bytes.
func tailOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
