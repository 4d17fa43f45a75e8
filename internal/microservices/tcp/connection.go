package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientConnection is one accepted socket. It is owned by exactly one
// goroutine, which runs Listen until the session ends.
type ClientConnection struct {
	ID      string // unique identifier = key in the manager map
	IP      string
	Port    int
	conn    net.Conn
	framer  *Framer
	Limiter *rate.Limiter // nil = unlimited
	server  *TCPServer

	closeOnce sync.Once
}

// constructor for Connection
func NewClientConnection(conn net.Conn, server *TCPServer) *ClientConnection {
	ip, port := splitAddr(conn.RemoteAddr())
	c := &ClientConnection{
		ID:     uuid.NewString(),
		IP:     ip,
		Port:   port,
		conn:   conn,
		framer: NewFramer(conn, server.opts.MaxMessageSize),
		server: server,
	}
	if server.opts.RateLimit > 0 {
		// the limiter auto depletes tokens when Allow is called and refills over time
		c.Limiter = rate.NewLimiter(rate.Limit(server.opts.RateLimit), server.opts.RateBurst)
	}
	return c
}

// Listen runs the request/response loop until the peer disconnects, an I/O
// error occurs, the client sends "exit", or ctx is cancelled.
// Requests are handled strictly one at a time.
func (c *ClientConnection) Listen(ctx context.Context) {
	events := c.server.events

	for {
		if ctx.Err() != nil {
			return
		}
		if d := c.server.opts.IdleTimeout; d > 0 {
			c.conn.SetReadDeadline(time.Now().Add(d))
		}

		frame, err := c.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrFrameTooLarge) {
				events.Warn("message_too_large",
					"session_id", c.ID,
					"max_size", c.server.opts.MaxMessageSize,
				)
				if !c.reply(Failure(MsgMessageTooLarge)) {
					return
				}
				continue
			}
			c.handleReadError(err)
			return
		}

		// blank lines carry no request
		if len(strings.TrimSpace(string(frame))) == 0 {
			continue
		}

		if c.Limiter != nil && !c.Limiter.Allow() {
			c.server.metrics.RateLimitExceeded()
			events.Warn("rate_limit_exceeded",
				"session_id", c.ID,
			)
			if !c.reply(Failure(MsgRateLimitExceeded)) {
				return
			}
			continue
		}

		resp, exit := c.server.dispatcher.Handle(ctx, frame)
		if exit {
			events.Debug("client_requested_exit",
				"session_id", c.ID,
			)
			return
		}
		if !c.reply(resp) {
			return
		}
	}
}

// reply writes one response; false means the connection is unusable.
func (c *ClientConnection) reply(resp Response) bool {
	if err := c.framer.WriteResponse(resp); err != nil {
		if !isClosedConnError(err) {
			c.server.events.ClientError(c.IP, c.Port, c.ID, err)
		}
		return false
	}
	return true
}

func (c *ClientConnection) handleReadError(err error) {
	events := c.server.events
	switch {
	case errors.Is(err, io.EOF):
		// peer closed between requests
	case errors.Is(err, io.ErrUnexpectedEOF):
		events.Debug("client_closed_mid_request",
			"session_id", c.ID,
		)
	case isTimeout(err):
		events.Warn("client_idle_timeout",
			"session_id", c.ID,
			"idle_timeout", c.server.opts.IdleTimeout.String(),
		)
	case isClosedConnError(err):
		// closed locally during shutdown
	default:
		events.ClientError(c.IP, c.Port, c.ID, err)
	}
}

// Close releases the socket. Safe to call from any goroutine, any number of times.
func (c *ClientConnection) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isClosedConnError matches errors expected when a socket is torn down.
// On Windows: "wsarecv: An established connection was aborted by the software in your host machine."
//
//	"wsarecv: An existing connection was forcibly closed by the remote host."
//
// On Linux: "use of closed network connection", "connection reset by peer", "broken pipe"
func isClosedConnError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection was aborted") ||
		strings.Contains(msg, "forcibly closed")
}

func splitAddr(addr net.Addr) (string, int) {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String(), tcpAddr.Port
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
