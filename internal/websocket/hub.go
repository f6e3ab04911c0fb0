package websocket

import "github.com/rs/zerolog/log"

type directMessage struct {
	userID  string
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and routes messages to them.
// All maps are owned by the Run goroutine; other goroutines talk to it
// through the methods below.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Messages addressed to one user's clients, or to a single client.
	direct chan directMessage

	// A map of user IDs to the set of that user's clients.
	subscriptions map[string]map[*Client]bool

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		direct:        make(chan directMessage, 64),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case dm := <-h.direct:
			if dm.client != nil {
				if h.clients[dm.client] {
					h.deliver(dm.client, dm.message)
				}
				continue
			}
			for client := range h.subscriptions[dm.userID] {
				h.deliver(client, dm.message)
			}
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Join registers a client with the hub. It reports false when the hub has
// stopped, in which case the client's send channel is never closed by the hub.
func (h *Hub) Join(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters a client and closes its send channel.
func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastTo sends a message to all clients of a specific user.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	select {
	case h.direct <- directMessage{userID: userID, message: message}:
	case <-h.done:
	}
}

// Reply sends a message to a single client if it is still registered.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.direct <- directMessage{client: client, message: message}:
	case <-h.done:
	}
}

// deliver hands message to client, dropping clients whose buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Warn().Str("user_id", client.UserID).Msg("Client send buffer full, dropping connection")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
