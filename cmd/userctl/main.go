// userctl is a small operator tool for the call-routing backend user
// registry: list records, fetch-or-create a user, delete a user.
//
// Usage:
//
//	userctl list
//	userctl get <upn>
//	userctl delete <upn>
//
// The backend address comes from BACKEND_URL (default http://localhost:8080).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

func main() {
	base := os.Getenv("BACKEND_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	if len(os.Args) < 2 {
		usage()
	}

	var path string
	switch os.Args[1] {
	case "list":
		path = "/api/users"
	case "get":
		if len(os.Args) < 3 {
			usage()
		}
		path = "/api/users/" + url.PathEscape(os.Args[2])
	case "delete":
		if len(os.Args) < 3 {
			usage()
		}
		path = "/api/users/delete/" + url.PathEscape(os.Args[2])
	default:
		usage()
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(base + path)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("backend returned %d: %s", resp.StatusCode, body)
	}

	// pretty-print whatever came back
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: userctl list | get <upn> | delete <upn>")
	os.Exit(2)
}
