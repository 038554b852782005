package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Curator.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Curator.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload asks the daemon to re-read its configuration.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.client.Call("Curator.Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditList returns recent audit entries.
func (c *Client) AuditList(req AuditListRequest) (*AuditListResponse, error) {
	var resp AuditListResponse
	if err := c.client.Call("Curator.AuditList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditHistory returns the full audit trail of one operation.
func (c *Client) AuditHistory(operationID string) (*AuditHistoryResponse, error) {
	var resp AuditHistoryResponse
	if err := c.client.Call("Curator.AuditHistory", AuditHistoryRequest{OperationID: operationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditPrune removes audit entries past retention.
func (c *Client) AuditPrune() (*AuditPruneResponse, error) {
	var resp AuditPruneResponse
	if err := c.client.Call("Curator.AuditPrune", AuditPruneRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Routes returns the active routing snapshot.
func (c *Client) Routes() (*RoutesResponse, error) {
	var resp RoutesResponse
	if err := c.client.Call("Curator.Routes", RoutesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watches returns per-folder watcher status.
func (c *Client) Watches() (*WatchesResponse, error) {
	var resp WatchesResponse
	if err := c.client.Call("Curator.Watches", WatchesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PathTest probes a path or template without side effects.
func (c *Client) PathTest(path string) (*PathTestResponse, error) {
	var resp PathTestResponse
	if err := c.client.Call("Curator.PathTest", PathTestRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TargetTest probes a configured network target.
func (c *Client) TargetTest(name string) (*TargetTestResponse, error) {
	var resp TargetTestResponse
	if err := c.client.Call("Curator.TargetTest", TargetTestRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
