package hub

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cmsd2/woot/communication"
)

// Hub relays encoded operations between the editors connected to one
// document. Frames are decoded once to keep malformed input off the wire,
// then relayed verbatim to every client except the sender; integration is
// left to the replicas at the edges.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan frame
	register   chan *Client
	unregister chan *Client
}

type frame struct {
	sender string
	data   []byte
}

// Client is one websocket connection, identified independently of any
// site id so that observers without a replica can attach too.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ID returns the connection identifier assigned at registration.
func (c *Client) ID() string {
	return c.id
}

func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan frame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. It must be running before ServeWs accepts
// connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("hub: client %s joined, %d connected", client.id, len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("hub: client %s left, %d connected", client.id, len(h.clients))
			}
		case f := <-h.broadcast:
			for client := range h.clients {
				if client.id == f.sender {
					continue
				}
				select {
				case client.send <- f.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request to a websocket connection and attaches
// it to the hub.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade: %v", err)
		return
	}
	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if _, err := communication.Decode(message); err != nil {
			log.Printf("hub: dropping frame from %s: %v", c.id, err)
			continue
		}
		c.hub.broadcast <- frame{sender: c.id, data: message}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// ListenAndServe runs a hub on addr, upgrading websocket connections at
// /ws.
func ListenAndServe(addr string) error {
	h := New()
	go h.Run()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWs)
	log.Printf("hub: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
