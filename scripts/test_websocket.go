//go:build ignore

// connects to a running gateway's entitlement stream and prints every message.
//
//	go run scripts/test_websocket.go [host]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type      string          `json:"type"`
	DeviceID  string          `json:"device_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func main() {
	host := "localhost:8080"
	if len(os.Args) > 1 {
		host = os.Args[1]
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/v1/entitlements/stream"}

	// keep the device cookie so a reconnect stays on the same device
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal("cookie jar:", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.Jar = jar

	header := http.Header{}
	header.Set("Origin", "http://"+host)

	fmt.Printf("Connecting to %s\n", u.String())

	c, _, err := dialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	fmt.Println("Connected to entitlement stream")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var msg Message
			if err := c.ReadJSON(&msg); err != nil {
				log.Println("read:", err)
				return
			}
			fmt.Printf("[%d] %s %s\n", msg.Sequence, msg.Type, msg.Payload)
		}
	}()

	// ask for an immediate reconciliation once connected
	time.Sleep(1 * time.Second)
	fmt.Println("Sending refresh")
	if err := c.WriteJSON(map[string]string{"type": "refresh"}); err != nil {
		log.Println("write:", err)
		return
	}

	select {
	case <-done:
		return
	case <-interrupt:
		fmt.Println("\nInterrupt received, closing connection...")

		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
