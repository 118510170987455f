package bridge

import (
	"context"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"gridauto/internal/simauto"
)

// Client provides RPC access to a bridge server. It implements
// simauto.Endpoint.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the bridge server at the given socket path.
func Dial(path string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Invoke sends one function call to the bridge. Calls are synchronous
// and not cancellable mid-flight; the context only guards against
// starting a call that the caller already abandoned.
func (c *Client) Invoke(ctx context.Context, function string, params []any) (simauto.Reply, error) {
	if err := ctx.Err(); err != nil {
		return simauto.Reply{}, err
	}

	var reply InvokeReply
	req := InvokeRequest{Function: function, Params: params}
	if err := c.client.Call("SimAuto.Invoke", req, &reply); err != nil {
		return simauto.Reply{}, err
	}
	return simauto.Reply{
		ErrorFlag:    reply.ErrorFlag,
		ErrorMessage: reply.ErrorMessage,
		Payload:      reply.Payload,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
