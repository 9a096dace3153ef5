package reachability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Task is one queued probe: try a container's candidate ports on a host and
// record the first reachable URL. Tasks are ephemeral and never persisted.
type Task struct {
	ContainerID string
	Host        string
	Ports       []int
}

// Prober runs probe tasks on a fixed-size worker pool. A task's failure or
// timeout never propagates to the caller that scheduled it; results only ever
// land in the cache.
type Prober struct {
	cache   *Cache
	tasks   chan Task
	timeout time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

func NewProber(cache *Cache, workers, queueSize int, timeout time.Duration) *Prober {
	if workers <= 0 {
		workers = 10
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	p := &Prober{
		cache:   cache,
		tasks:   make(chan Task, queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Schedule enqueues a background probe and returns immediately. A full queue
// makes the call a no-op: the dashboard shows "unknown" and retries on the
// next render. The return value reports whether the task was accepted.
func (p *Prober) Schedule(containerID, host string, ports []int) bool {
	ranked := RankPorts(ports)
	if len(ranked) == 0 || host == "" {
		return false
	}
	select {
	case p.tasks <- Task{ContainerID: containerID, Host: host, Ports: ranked}:
		return true
	case <-p.done:
		return false
	default:
		return false
	}
}

// Stop shuts the workers down. Tasks still queued are dropped; late
// Schedule calls become no-ops instead of panicking on a closed channel.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Prober) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

// run probes the task's ports in order and stops at the first reachable one.
// A fully negative result is still cached.
func (p *Prober) run(task Task) {
	for _, port := range task.Ports {
		if url, ok := probePair(context.Background(), task.Host, port, p.timeout); ok {
			p.cache.Store(task.ContainerID, url)
			return
		}
	}
	p.cache.Store(task.ContainerID, "")
}

// ProbeSync probes an explicit host and port list in ranked order and returns
// the first reachable URL. It blocks for up to timeout per (host, port) pair;
// callers use it when they want an immediate answer and accept the latency.
// Results are not cached: the caller supplied the ports, not a container's
// port mappings.
func ProbeSync(ctx context.Context, host string, ports []int, timeout time.Duration) (string, bool) {
	for _, port := range RankPorts(ports) {
		select {
		case <-ctx.Done():
			return "", false
		default:
		}
		if url, ok := probePair(ctx, host, port, timeout); ok {
			return url, true
		}
	}
	return "", false
}

// probePair checks one host:port for an HTTP responder: HEAD / with a short
// timeout, any status below 400 counts as reachable; on anything else a
// single GET / is tried. Timeouts, refused connections and DNS failures all
// mean "unreachable" for the pair and are swallowed.
func probePair(ctx context.Context, host string, port int, timeout time.Duration) (string, bool) {
	url := fmt.Sprintf("http://%s:%d/", host, port)
	client := &http.Client{Timeout: timeout}

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return "", false
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return url, true
		}
	}
	return "", false
}
