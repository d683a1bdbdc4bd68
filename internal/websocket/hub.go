package websocket

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	ProfileID int64
}

// TipAlert is pushed to a profile's dashboard widget when a tip finishes
// distributing. Splits carries each member's credited cut.
type TipAlert struct {
	TargetProfileID int64        `json:"-"`
	DonorName       string       `json:"donor_name"`
	AmountCents     int64        `json:"amount_cents"`
	Message         string       `json:"message"`
	Splits          []AlertSplit `json:"splits"`
}

type AlertSplit struct {
	Alias string `json:"alias"`
	Cents int64  `json:"cents"`
}

type Hub struct {
	Clients        map[int64]*Client
	Register       chan *Client
	Unregister     chan *Client
	BroadcastAlert chan TipAlert
}

func NewHub() *Hub {
	return &Hub{
		Clients:        make(map[int64]*Client),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		BroadcastAlert: make(chan TipAlert),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.ProfileID] = client
			log.Printf("WebSocket client registered for profile %d", client.ProfileID)

		case client := <-h.Unregister:
			if _, ok := h.Clients[client.ProfileID]; ok {
				delete(h.Clients, client.ProfileID)
				close(client.Send)
				log.Printf("WebSocket client unregistered for profile %d", client.ProfileID)
			}

		case alert := <-h.BroadcastAlert:
			if client, ok := h.Clients[alert.TargetProfileID]; ok {
				jsonData, err := json.Marshal(alert)
				if err != nil {
					log.Println("Failed to marshal tip alert:", err)
					continue
				}

				select {
				case client.Send <- jsonData:
					log.Printf("Sent tip alert to profile %d", client.ProfileID)
				default:
					close(client.Send)
					delete(h.Clients, client.ProfileID)
				}
			}
		}
	}
}
