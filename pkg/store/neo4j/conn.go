package neo4j

import (
	"context"
	"sync"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Manager owns the single shared driver to the graph store for the
// process lifetime. It is constructed once at startup and passed by
// reference to every component that reads or writes the store; there is
// no package-global lookup.
//
// The driver is dialed lazily on the first Acquire and shared by every
// subsequent one. Release closes it exactly once and clears the slot,
// so a later Acquire in the same process re-dials.
type Manager struct {
	uri      string
	username string
	password string

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

// NewManagerParams defines the store coordinates for creating a Manager.
type NewManagerParams struct {
	URI      string
	Username string
	Password string
}

// NewManager creates a Manager. No connection is established until the
// first Acquire call.
func NewManager(params NewManagerParams) *Manager {
	return &Manager{
		uri:      params.URI,
		username: params.Username,
		password: params.Password,
	}
}

// Acquire returns the shared driver, dialing and verifying connectivity
// on first use. Concurrent callers never race into two drivers: the
// construction path holds the manager lock. A dial failure surfaces as
// ConnectionError and leaves the slot empty so the next Acquire retries.
func (m *Manager) Acquire(ctx context.Context) (neo4j.DriverWithContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.driver != nil {
		return m.driver, nil
	}

	driver, err := neo4j.NewDriverWithContext(
		m.uri,
		neo4j.BasicAuth(m.username, m.password, ""),
	)
	if err != nil {
		return nil, &common.ConnectionError{URI: m.uri, Err: err}
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, &common.ConnectionError{URI: m.uri, Err: err}
	}

	logger.Debug("[Store] Connected", "uri", m.uri)
	m.driver = driver
	return m.driver, nil
}

// Release closes the shared driver if one exists and clears the slot.
// It is safe to call on a Manager that never connected, and safe to
// call more than once.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.driver == nil {
		return nil
	}

	err := m.driver.Close(ctx)
	m.driver = nil
	if err != nil {
		return err
	}

	logger.Debug("[Store] Connection closed", "uri", m.uri)
	return nil
}
