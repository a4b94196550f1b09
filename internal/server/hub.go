// Package server tracks live connections and their pump goroutines via the
// Hub type so the process can shut down cleanly.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// Hub owns every live Client. It starts their pumps on registration, closes
// their outbound queues on release, and closes all connections on shutdown.
// Room membership is not the hub's concern; sessions handle that.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub. Call Run in its own goroutine before registering
// clients.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands c to the hub, which starts its pumps. It returns false if
// the hub is shutting down, in which case the caller still owns c.
func (h *Hub) Register(c *Client) bool {
	if c == nil || c.handler == nil {
		log.Printf("Refusing to register client without a frame handler")
		return false
	}
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// release is called by a client's read pump once it is finished.
func (h *Hub) release(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run is the hub's event loop. It returns after Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			clientCount := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client registered from %s. Total clients: %d", client.addr, clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			clientCount := len(h.clients)
			h.mutex.Unlock()

			client.closeSend()
			if ok {
				log.Printf("Client unregistered from %s. Total clients: %d", client.addr, clientCount)
			}
		}
	}
}

// shutdownClients closes every outbound queue. Each write pump then sends a
// normal close frame and closes its connection, which ends the read pump.
// All queues are closed before any connection goes away, so the roster
// broadcasts caused by departing clients are not delivered.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, client := range clients {
		client.closeSend()
	}

	log.Printf("Closing %d client connections", len(clients))
}

// Shutdown stops the hub and waits for every pump goroutine to finish or for
// timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
