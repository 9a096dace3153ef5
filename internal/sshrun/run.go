// Package sshrun executes one-off commands on a server host over SSH. The
// dashboard uses it as the opaque command runner behind compose deploys.
package sshrun

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// Run connects to host as user with password auth, executes cmd and returns
// its combined output. The whole call is bounded by timeout.
func Run(ctx context.Context, host, user, password, cmd string, timeout time.Duration) (string, error) {
	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return "", fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case r := <-done:
		if r.err != nil {
			return string(r.out), fmt.Errorf("remote command: %w", r.err)
		}
		return string(r.out), nil
	case <-runCtx.Done():
		session.Close()
		return "", fmt.Errorf("remote command timed out after %s", timeout)
	}
}
