// Command smoke drives the register/login/inbox flow against a running
// server and reports what it saw.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL = flag.String("base", "http://localhost:8080", "server base URL")
	email   = flag.String("email", "ana@x.com", "account email")
	wait    = flag.Duration("wait", 3*time.Second, "how long to wait for the synthetic reply")
)

type authResponse struct {
	Token string `json:"access_token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

type conversation struct {
	ID              string `json:"id"`
	ParticipantName string `json:"participantName"`
	UnreadCount     int    `json:"unreadCount"`
	Messages        []struct {
		Content string `json:"content"`
	} `json:"messages"`
}

type inbox struct {
	ActiveID      string         `json:"activeId"`
	Conversations []conversation `json:"conversations"`
}

func main() {
	flag.Parse()

	// 1. Register twice: the second attempt must conflict.
	reg := map[string]string{"name": "Ana", "email": *email, "password": "secret1", "role": "student"}
	status := postJSON("/register", "", reg, nil)
	log.Printf("register: %d", status)
	reg["password"] = "secret2"
	expect("duplicate register", postJSON("/register", "", reg, nil), http.StatusConflict)

	// 2. Wrong password, then the right one.
	login := map[string]string{"email": *email, "password": "wrong", "role": "student"}
	expect("bad login", postJSON("/login", "", login, nil), http.StatusUnauthorized)
	login["password"] = "secret1"
	var auth authResponse
	expect("login", postJSON("/login", "", login, &auth), http.StatusOK)
	log.Printf("✅ logged in as %s", auth.User.ID)

	// 3. Notifications stream.
	wsURL := "ws" + strings.TrimPrefix(*baseURL, "http") + "/ws?token=" + auth.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("❌ WS connect: %v", err)
	}
	defer conn.Close()
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.Printf("🔔 %s", msg)
		}
	}()

	// 4. Send in the active conversation, switch away, wait for the reply.
	var box inbox
	expect("inbox", getJSON("/api/conversations", auth.Token, &box), http.StatusOK)
	if len(box.Conversations) < 2 {
		log.Fatalf("❌ need at least two conversations, got %d", len(box.Conversations))
	}
	origin, other := box.ActiveID, ""
	for _, c := range box.Conversations {
		if c.ID != origin {
			other = c.ID
			break
		}
	}
	expect("send", postJSON("/api/messages", auth.Token, map[string]string{"content": "Smoke test says hi"}, nil), http.StatusAccepted)
	expect("select", postJSON("/api/conversations/"+other+"/select", auth.Token, nil, nil), http.StatusOK)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		var c conversation
		getJSON("/api/conversations/"+origin, auth.Token, &c)
		if c.UnreadCount > 0 {
			log.Printf("✅ reply landed in %s: %q", c.ParticipantName, c.Messages[len(c.Messages)-1].Content)
			expect("logout", postJSON("/logout", auth.Token, nil, nil), http.StatusNoContent)
			log.Println("✅ SMOKE TEST COMPLETE")
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Fatal("❌ no synthetic reply arrived")
}

func expect(step string, got, want int) {
	if got != want {
		log.Fatalf("❌ %s: status %d, want %d", step, got, want)
	}
}

func postJSON(endpoint, token string, body, out any) int {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(http.MethodPost, *baseURL+endpoint, &buf)
	req.Header.Set("Content-Type", "application/json")
	return do(req, token, out)
}

func getJSON(endpoint, token string, out any) int {
	req, _ := http.NewRequest(http.MethodGet, *baseURL+endpoint, nil)
	return do(req, token, out)
}

func do(req *http.Request, token string, out any) int {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("❌ %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Printf("decode %s: %v", req.URL.Path, err)
		}
	}
	return resp.StatusCode
}
