package tcp

import (
	"log/slog"
	"sync"
)

// ConnectionManager tracks live connections so shutdown can close them.
// It never routes data between connections.
type ConnectionManager struct {
	clients map[string]*ClientConnection
	// key: session ID, value: the connection owned by one handling goroutine
	mu     sync.RWMutex // read-write mutex for concurrent access
	closed bool         // set by CloseAllConnections, rejects late arrivals
	logger *slog.Logger
}

// constructor for ConnectionManager
func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionManager{
		clients: make(map[string]*ClientConnection),
		logger:  logger,
	}
}

// AddConnection registers client. It returns false once shutdown has started;
// the caller must then close the connection itself.
func (m *ConnectionManager) AddConnection(client *ClientConnection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.clients[client.ID] = client
	m.logger.Debug("client_added",
		"session_id", client.ID,
	)
	return true
}

func (m *ConnectionManager) RemoveConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	delete(m.clients, client.ID)
	m.logger.Debug("client_removed",
		"session_id", client.ID,
	)
}

// CloseAllConnections closes every registered socket, unblocking their reads.
// The owning goroutines still emit their own disconnect events.
func (m *ConnectionManager) CloseAllConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, client := range m.clients {
		client.Close()
		m.logger.Debug("client_connection_closed",
			"session_id", id,
		)
	}
	m.clients = make(map[string]*ClientConnection)
}

// Count returns the number of live connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
