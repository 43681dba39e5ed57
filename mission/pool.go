package mission

import (
	"fmt"
	"sync"
	"time"

	"haulcore/robot"
)

// Pool maps robot serial numbers to API clients. Registrations come
// from the robots table at startup and from the fleet admin endpoints
// at runtime.
type Pool struct {
	secret  string
	timeout time.Duration

	mu      sync.RWMutex
	clients map[string]*robot.Client
}

func NewPool(secret string, timeout time.Duration) *Pool {
	return &Pool{secret: secret, timeout: timeout, clients: make(map[string]*robot.Client)}
}

// Register adds a robot's client, or points an existing one at a new
// base URL so in-flight callers keep the same client value.
func (p *Pool) Register(sn, baseURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[sn]; ok {
		c.Reconfigure(baseURL, p.timeout)
		return
	}
	p.clients[sn] = robot.NewClient(baseURL, p.secret, p.timeout)
}

// Remove drops a robot's client, e.g. when it is disabled.
func (p *Pool) Remove(sn string) {
	p.mu.Lock()
	delete(p.clients, sn)
	p.mu.Unlock()
}

// ClientFor implements ClientPool.
func (p *Pool) ClientFor(robotSN string) (MoveClient, error) {
	p.mu.RLock()
	c, ok := p.clients[robotSN]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRobot, robotSN)
	}
	return c, nil
}

// SNs returns the registered serial numbers.
func (p *Pool) SNs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sns := make([]string, 0, len(p.clients))
	for sn := range p.clients {
		sns = append(sns, sn)
	}
	return sns
}
