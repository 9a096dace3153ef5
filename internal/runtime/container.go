package runtime

import (
	"context"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

func sinceUnix(created int64) time.Duration {
	return time.Since(time.Unix(created, 0))
}

// ContainerHandle is a reference to one container, carrying the inspect data
// from the most recent Reload.
type ContainerHandle struct {
	cli   *dockerclient.Client
	id    string
	attrs container.InspectResponse
}

// ID returns the full container id.
func (h *ContainerHandle) ID() string { return h.id }

// Name returns the container name without the leading slash.
func (h *ContainerHandle) Name() string {
	name := h.attrs.Name
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return name
}

// Attrs returns the inspect data captured at the last Reload.
func (h *ContainerHandle) Attrs() container.InspectResponse { return h.attrs }

// Reload refreshes the inspect data, guarding against the container having
// been restarted or recreated since the handle was obtained.
func (h *ContainerHandle) Reload(ctx context.Context) error {
	inspect, err := h.cli.ContainerInspect(ctx, h.id)
	if err != nil {
		return err
	}
	h.attrs = inspect
	return nil
}

// Exec runs a shell command inside the container with the given working
// directory, capturing stdout and stderr combined into one stream.
func (h *ContainerHandle) Exec(ctx context.Context, cmd, workdir string) ([]byte, error) {
	execCfg := container.ExecOptions{
		Cmd:          []string{"sh", "-c", cmd},
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := h.cli.ContainerExecCreate(ctx, h.id, execCfg)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, &APIError{Op: "exec create", Err: err}
	}

	resp, err := h.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, &APIError{Op: "exec attach", Err: err}
	}
	defer resp.Close()

	output, err := io.ReadAll(resp.Reader)
	if err != nil {
		return nil, &APIError{Op: "read exec output", Err: err}
	}

	// Output arrives in Docker's multiplexed stream format; flatten it.
	return []byte(demuxStream(output)), nil
}

func (h *ContainerHandle) Start(ctx context.Context) error {
	return h.cli.ContainerStart(ctx, h.id, container.StartOptions{})
}

func (h *ContainerHandle) Stop(ctx context.Context) error {
	timeout := 30
	return h.cli.ContainerStop(ctx, h.id, container.StopOptions{Timeout: &timeout})
}

func (h *ContainerHandle) Restart(ctx context.Context) error {
	timeout := 30
	return h.cli.ContainerRestart(ctx, h.id, container.StopOptions{Timeout: &timeout})
}

func (h *ContainerHandle) Remove(ctx context.Context, force bool) error {
	return h.cli.ContainerRemove(ctx, h.id, container.RemoveOptions{Force: force})
}

// Logs returns the last tail lines of the container's log, demultiplexed.
func (h *ContainerHandle) Logs(ctx context.Context, tail int, timestamps bool) ([]byte, error) {
	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
		Timestamps: timestamps,
	}
	rc, err := h.cli.ContainerLogs(ctx, h.id, opts)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, &APIError{Op: "container logs", Err: err}
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, &APIError{Op: "read logs", Err: err}
	}
	return []byte(demuxStream(raw)), nil
}

// PortCandidates derives the host ports worth probing for reachability from
// the container's port bindings. Port discovery is unreliable (bindings may
// be empty or list many candidates); callers rank and cap the result.
func (h *ContainerHandle) PortCandidates() []int {
	seen := make(map[int]bool)
	var out []int
	collect := func(ports nat.PortMap) {
		for _, bindings := range ports {
			for _, b := range bindings {
				port, err := strconv.Atoi(b.HostPort)
				if err != nil || port <= 0 {
					continue
				}
				if !seen[port] {
					seen[port] = true
					out = append(out, port)
				}
			}
		}
	}
	if h.attrs.NetworkSettings != nil {
		collect(h.attrs.NetworkSettings.Ports)
	}
	if h.attrs.HostConfig != nil {
		collect(h.attrs.HostConfig.PortBindings)
	}
	sort.Ints(out)
	return out
}
