package db

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/oxidb"
)

const (
	dialTimeout       = 5 * time.Second
	keepaliveInterval = 10 * time.Second
)

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	host    string
	port    int
	mu      sync.RWMutex
	clients []*oxidb.Client
	idx     uint64
	stop    chan struct{}
	once    sync.Once
}

// NewPool creates a pool of n OxiDB connections.
func NewPool(host string, port, size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		host:    host,
		port:    port,
		clients: make([]*oxidb.Client, size),
		stop:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(host, port, dialTimeout)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	// keepalive pings prevent the server's idle timeout
	go p.keepalive(keepaliveInterval)
	return p, nil
}

// Get returns the next client in round-robin order. A client dropped by a
// failed request is replaced first; if that fails the broken client is
// returned and its calls fail with oxidb.ErrBroken.
func (p *Pool) Get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))
	p.mu.RLock()
	c := p.clients[i]
	p.mu.RUnlock()
	if c.Broken() {
		return p.reconnect(i, c)
	}
	return c
}

// Size reports the number of connections.
func (p *Pool) Size() int {
	return len(p.clients)
}

// Ping checks every connection once.
func (p *Pool) Ping(ctx context.Context) error {
	for i := range p.clients {
		p.mu.RLock()
		c := p.clients[i]
		p.mu.RUnlock()
		if c.Broken() {
			c = p.reconnect(i, c)
		}
		if _, err := c.Ping(ctx); err != nil {
			return fmt.Errorf("pool: client %d: %w", i, err)
		}
	}
	return nil
}

// reconnect replaces old at index i and returns the client now in the slot.
// If another caller already replaced old, its client is kept.
func (p *Pool) reconnect(i int, old *oxidb.Client) *oxidb.Client {
	c, err := oxidb.Connect(p.host, p.port, dialTimeout)
	if err != nil {
		logger.Warnf("pool: reconnect client %d failed: %v", i, err)
		return old
	}
	p.mu.Lock()
	select {
	case <-p.stop:
		p.mu.Unlock()
		c.Close()
		return old
	default:
	}
	if cur := p.clients[i]; cur != old {
		p.mu.Unlock()
		c.Close()
		return cur
	}
	p.clients[i] = c
	p.mu.Unlock()
	old.Close()
	return c
}

func (p *Pool) keepalive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := 0; i < len(p.clients); i++ {
				p.mu.RLock()
				c := p.clients[i]
				p.mu.RUnlock()
				ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					logger.Warnf("pool: client %d ping failed, reconnecting: %v", i, err)
					p.reconnect(i, c)
				}
			}
		}
	}
}

// Close closes all connections.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.stop)
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, c := range p.clients {
			if c != nil {
				c.Close()
			}
		}
	})
}
