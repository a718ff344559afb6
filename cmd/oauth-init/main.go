// Command oauth-init runs the one-time OAuth consent flow for the Google
// Sheets mirror and saves the resulting user token where the worker reads
// it (GOOGLE_OAUTH_TOKEN_FILE, default token.json).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

func main() {
	cfg, err := oauthConfig()
	if err != nil {
		log.Fatal(err)
	}

	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	// The OAuth client must list this URI among its authorized redirects.
	cfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: ":" + redirectPort}
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		codeCh <- r.URL.Query().Get("code")
		fmt.Fprintln(w, "Authorized. You may close this window and return to the terminal.")
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	fmt.Printf("Open this URL to authorize access to the spreadsheet:\n%s\n",
		cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case code := <-codeCh:
		token, err := cfg.Exchange(context.Background(), code)
		if err != nil {
			log.Fatalf("token exchange: %v", err)
		}
		if err := saveToken(token); err != nil {
			log.Fatal(err)
		}
	case <-time.After(5 * time.Minute):
		log.Fatal("authorization timed out")
	case <-interrupt:
		log.Fatal("interrupted")
	}
}

func oauthConfig() (*oauth2.Config, error) {
	var b []byte
	var err error
	switch {
	case os.Getenv("GOOGLE_OAUTH_CLIENT_JSON") != "":
		b = []byte(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	case os.Getenv("GOOGLE_OAUTH_CLIENT_FILE") != "":
		b, err = os.ReadFile(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
	default:
		return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
}

func saveToken(token *oauth2.Token) error {
	outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if outFile == "" {
		outFile = "token.json"
	}
	f, err := os.OpenFile(outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	fmt.Printf("Saved token to %s\n", outFile)
	return nil
}
