// Command sendmail posts a fake SNS-wrapped inbound email to a running
// wetter-bericht instance, for exercising the inbound endpoint locally without
// SES or SNS.
//
// Usage:
//
//	go run ./cmd/sendmail \
//	  -url http://localhost:8080/inbound \
//	  -from alice@example.com \
//	  -body $'ADD Charlotte, NC\nLIST'
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	url := flag.String("url", "http://localhost:8080/inbound", "inbound endpoint URL")
	from := flag.String("from", "alice@example.com", "sender address")
	subject := flag.String("subject", "weather commands", "email subject")
	body := flag.String("body", "LIST", "email body, one command per line")
	flag.Parse()

	if err := run(*url, *from, *subject, *body); err != nil {
		log.Fatal(err)
	}
}

func run(url, from, subject, body string) error {
	mime := strings.Join([]string{
		"From: " + from,
		"To: weather@inbound.geistdevelopment.com",
		"Subject: " + subject,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
		"",
	}, "\r\n")

	message, err := json.Marshal(map[string]any{
		"mail": map[string]any{
			"source": from,
			"commonHeaders": map[string]any{
				"subject": subject,
			},
		},
		"content": base64.StdEncoding.EncodeToString([]byte(mime)),
	})
	if err != nil {
		return fmt.Errorf("marshal ses notification: %w", err)
	}

	envelope, err := json.Marshal(map[string]any{
		"Type":      "Notification",
		"MessageId": fmt.Sprintf("local-%d", time.Now().UnixNano()),
		"Message":   string(message),
	})
	if err != nil {
		return fmt.Errorf("marshal sns envelope: %w", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(envelope))
	if err != nil {
		return fmt.Errorf("post to %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inbound endpoint returned %s", resp.Status)
	}
	return nil
}
