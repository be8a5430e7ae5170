// Command feedwatch connects to the realtime feed and prints the events it
// receives. It is a manual check for the websocket fan-out.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type counters struct {
	mu     sync.Mutex
	byType map[string]int
	total  atomic.Int64
}

func (c *counters) add(eventType string) {
	c.total.Add(1)
	c.mu.Lock()
	c.byType[eventType]++
	c.mu.Unlock()
}

func main() {
	host := flag.String("host", "localhost:8081", "API server host")
	login := flag.String("login", "", "Login name (anonymous when empty)")
	password := flag.String("password", "password123", "Password for -login")
	clients := flag.Int("clients", 1, "Number of concurrent feed connections")
	duration := flag.Duration("duration", 30*time.Second, "How long to listen")
	flag.Parse()

	header := http.Header{}
	if *login != "" {
		token, err := authenticate(*host, *login, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		header.Set("Authorization", "Bearer "+token)
		log.Printf("Logged in as %s", *login)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	stats := &counters{byType: make(map[string]int)}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := range *clients {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			listen(*host, header, id, stats, stop)
		}(i)
	}

	select {
	case <-time.After(*duration):
	case <-interrupt:
	}
	close(stop)
	wg.Wait()

	report(stats)
}

func authenticate(host, login, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"login_name": login, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func listen(host string, header http.Header, id int, stats *counters, stop <-chan struct{}) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/feed"}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		if resp != nil {
			log.Printf("[client %d] dial failed: %v (status %d)", id, err, resp.StatusCode)
		} else {
			log.Printf("[client %d] dial failed: %v", id, err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &event); err != nil {
				log.Printf("[client %d] undecodable message: %s", id, msg)
				continue
			}
			stats.add(event.Type)
			if id == 0 {
				log.Printf("[client %d] %s", id, msg)
			}
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		<-done
	case <-done:
	}
}

func report(stats *counters) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	types := make([]string, 0, len(stats.byType))
	for t := range stats.byType {
		types = append(types, t)
	}
	sort.Strings(types)

	log.Printf("Received %d events", stats.total.Load())
	for _, t := range types {
		log.Printf("  %-16s %d", t, stats.byType[t])
	}
}
