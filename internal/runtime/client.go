// Package runtime wraps the Docker SDK behind the small surface the dashboard
// needs: list, inspect, exec-in-container, lifecycle actions and logs.
package runtime

import (
	"context"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-units"
)

// ContainerSummary is the dashboard's view of one container in a list call.
type ContainerSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Status  string `json:"status"`
	State   string `json:"state"`
	Created string `json:"created"`

	// HostPorts are the published host-side ports, ascending, deduplicated.
	HostPorts []int `json:"host_ports"`
}

// Client is one live connection to a Docker endpoint.
type Client struct {
	cli      *dockerclient.Client
	endpoint string
}

// Connect establishes a client for the given endpoint and verifies it with a
// ping. The caller bounds the handshake through ctx.
func Connect(ctx context.Context, endpoint string) (*Client, error) {
	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost(endpoint),
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	return &Client{cli: cli, endpoint: endpoint}, nil
}

// Endpoint returns the connection URL this client was established against.
func (c *Client) Endpoint() string { return c.endpoint }

// Ping performs the cheap liveness check used to validate cached clients.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error { return c.cli.Close() }

// List returns summaries for containers on the endpoint.
func (c *Client) List(ctx context.Context, all bool) ([]ContainerSummary, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, &APIError{Op: "list containers", Err: err}
	}

	result := make([]ContainerSummary, 0, len(containers))
	for _, ct := range containers {
		name := ""
		if len(ct.Names) > 0 {
			name = strings.TrimPrefix(ct.Names[0], "/")
		}
		result = append(result, ContainerSummary{
			ID:        ct.ID,
			Name:      name,
			Image:     ct.Image,
			Status:    ct.Status,
			State:     ct.State,
			Created:   units.HumanDuration(sinceUnix(ct.Created)) + " ago",
			HostPorts: publishedPorts(ct.Ports),
		})
	}
	return result, nil
}

// publishedPorts extracts the host-side published ports from a container's
// port list, ascending and deduplicated.
func publishedPorts(ports []container.Port) []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		port := int(p.PublicPort)
		if !seen[port] {
			seen[port] = true
			out = append(out, port)
		}
	}
	sort.Ints(out)
	return out
}

// Container fetches a handle for one container by id or name.
func (c *Client) Container(ctx context.Context, id string) (*ContainerHandle, error) {
	inspect, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContainerHandle{cli: c.cli, id: inspect.ID, attrs: inspect}, nil
}
