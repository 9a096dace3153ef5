package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/logging"
	"github.com/lightdock/lightdock/internal/runtime"
	"github.com/lightdock/lightdock/internal/terminal"
)

// TerminalWS upgrades the connection and runs one terminal session against
// the container named in the query string. Text frames in, text frames out,
// one frame per command and reply.
func TerminalWS(w http.ResponseWriter, r *http.Request) {
	containerID := r.URL.Query().Get("id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("Failed to accept terminal websocket: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	t := &wsTransport{conn: conn, ctx: ctx}

	if containerID == "" {
		t.SendLine("Error: no container id provided")
		return
	}

	client, _, err := dockerClient(ctx, true)
	if err != nil {
		t.SendLine(fmt.Sprintf("Error: %v", err))
		return
	}

	handle, err := client.Container(ctx, containerID)
	if err != nil {
		if runtime.IsNotFound(err) {
			t.SendLine(fmt.Sprintf("Error: container %s not found", shortID(containerID)))
		} else {
			t.SendLine(fmt.Sprintf("Error: %v", err))
		}
		return
	}

	sess := terminal.NewSession(t, handle, config.Cfg.ExecTimeout)
	log.Printf("Terminal session started: session=%s container=%s",
		sess.ID, logging.Sanitize(shortID(containerID)))

	sess.Run(ctx)

	log.Printf("Terminal session ended: session=%s", sess.ID)
	conn.Close(websocket.StatusNormalClosure, "")
}

// wsTransport adapts a coder/websocket connection to terminal.Transport.
type wsTransport struct {
	conn *websocket.Conn
	ctx  context.Context
}

func (t *wsTransport) ReceiveLine() (string, error) {
	_, data, err := t.conn.Read(t.ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *wsTransport) SendLine(s string) error {
	return t.conn.Write(t.ctx, websocket.MessageText, []byte(s))
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "session closed")
}
