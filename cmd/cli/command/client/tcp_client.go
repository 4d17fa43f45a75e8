package client

// tcp_client.go = request/response client for the rcmd command server.

import (
	"fmt"
	"net"
	"sync"
	"time"

	"rcmd/internal/microservices/tcp"
)

// TCPClient holds one persistent connection. Calls are serialized because
// the protocol allows a single outstanding request per connection.
type TCPClient struct {
	serverAddr string
	token      string
	timeout    time.Duration
	conn       net.Conn
	framer     *tcp.Framer
	connected  bool
	stats      ConnectionStats
	mu         sync.Mutex
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	Uptime           time.Duration
	MessagesSent     int
	MessagesReceived int
	Errors           int
	ConnectedAt      time.Time
}

// NewTCPClient creates a new TCP client. An empty token sends no token field.
func NewTCPClient(serverAddr, token string, timeout time.Duration) *TCPClient {
	return &TCPClient{
		serverAddr: serverAddr,
		token:      token,
		timeout:    timeout,
	}
}

// Connect establishes connection to the server
func (c *TCPClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.serverAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.conn = conn
	c.framer = tcp.NewFramer(conn, tcp.MaxMessageSize*16)
	c.connected = true
	c.stats = ConnectionStats{ConnectedAt: time.Now()}
	return nil
}

// Send issues one command and waits for its response.
func (c *TCPClient) Send(command string, args map[string]any) (tcp.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return tcp.Response{}, fmt.Errorf("not connected")
	}

	req := tcp.Request{Command: command, Args: args}
	if c.token != "" {
		token := c.token
		req.Token = &token
	}

	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	if err := c.framer.WriteRequest(req); err != nil {
		c.closeLocked()
		return tcp.Response{}, fmt.Errorf("failed to send command: %w", err)
	}
	c.stats.MessagesSent++

	frame, err := c.framer.ReadFrame()
	if err != nil {
		c.closeLocked()
		return tcp.Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	resp, err := tcp.ParseResponse(frame)
	if err != nil {
		return tcp.Response{}, err
	}

	c.stats.MessagesReceived++
	if !resp.OK() {
		c.stats.Errors++
	}
	return resp, nil
}

// Disconnect asks the server to end the session and closes the socket.
func (c *TCPClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	// the server closes without replying to exit
	_ = c.framer.WriteRequest(tcp.Request{Command: tcp.ExitCommand})
	c.closeLocked()
	return nil
}

func (c *TCPClient) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
}

// IsConnected returns connection status
func (c *TCPClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// GetStats returns connection statistics
func (c *TCPClient) GetStats() ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	if c.connected {
		stats.Uptime = time.Since(c.stats.ConnectedAt)
	}
	return stats
}
