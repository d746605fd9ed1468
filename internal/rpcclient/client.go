// Package rpcclient implements the CLI side of the control protocol.
package rpcclient

import (
	"bufio"
	"fmt"
	"net"

	"github.com/excludewatch/excludewatch/internal/rpcproto"
)

// Client sends one request per connection against the daemon's Unix
// domain socket.
type Client struct {
	socketPath string
}

// New returns a Client targeting socketPath.
func New(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

func (c *Client) call(req rpcproto.Request) (rpcproto.Response, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return rpcproto.Response{}, fmt.Errorf("rpcclient: dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{rpcproto.ProtocolVersion}); err != nil {
		return rpcproto.Response{}, err
	}
	if err := rpcproto.WriteFrame(conn, req); err != nil {
		return rpcproto.Response{}, err
	}

	versionBuf := make([]byte, 1)
	if _, err := conn.Read(versionBuf); err != nil {
		return rpcproto.Response{}, err
	}
	if versionBuf[0] != rpcproto.ProtocolVersion {
		return rpcproto.Response{}, fmt.Errorf("rpcclient: server protocol version mismatch: got %d", versionBuf[0])
	}

	var resp rpcproto.Response
	if err := rpcproto.ReadFrame(bufio.NewReader(conn), &resp); err != nil {
		return rpcproto.Response{}, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("rpcclient: daemon returned error: %s", resp.Error)
	}
	return resp, nil
}

func (c *Client) Pause() (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandPause})
}

func (c *Client) Reload() (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandReload})
}

func (c *Client) Restart() (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandRestart})
}

func (c *Client) Shutdown() (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandShutdown})
}

func (c *Client) Status() (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandStatus})
}

func (c *Client) Scan(dryRun bool) (rpcproto.Response, error) {
	return c.call(rpcproto.Request{Command: rpcproto.CommandScan, DryRun: dryRun})
}
