package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hupe1980/jwksauth"
	"github.com/hupe1980/jwksauth/keyring"
)

func main() {
	jwksPath := flag.String("jwks", "jwks.json", "path to the JWKS document")
	issuer := flag.String("issuer", "", "expected iss claim (optional)")
	audience := flag.String("audience", "", "expected aud claim (optional)")
	flag.Parse()

	store, err := loadKeyStore(*jwksPath)
	if err != nil {
		log.Fatalf("Failed to load key store: %v", err)
	}

	ring := keyring.New(store)

	validator := jwksauth.New(ring, func(o *jwksauth.ValidatorOptions) {
		o.ExpectedIssuer = *issuer
		o.ExpectedAudience = *audience
	})

	// Define the /validate route
	http.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Parse the JSON payload
		var payload struct {
			Token string `json:"token"`
		}

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, fmt.Sprintf("Invalid JSON payload: %v", err), http.StatusBadRequest)
			return
		}

		if payload.Token == "" {
			http.Error(w, "Missing token", http.StatusBadRequest)
			return
		}

		claims, err := validator.Validate(payload.Token)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, jwksauth.ErrMalformedToken) {
				status = http.StatusBadRequest
			}

			http.Error(w, err.Error(), status)

			return
		}

		// Return the validated claims
		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(claims); err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode claims: %v", err), http.StatusInternalServerError)
			return
		}
	})

	// Define the /reload route: re-read the JWKS document and rotate the keys
	http.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		store, err := loadKeyStore(*jwksPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to reload key store: %v", err), http.StatusInternalServerError)
			return
		}

		ring.Replace(store)

		log.Printf("Reloaded %d keys from %s", store.Len(), *jwksPath)
		w.WriteHeader(http.StatusNoContent)
	})

	// Start the HTTP server
	log.Println("Starting server on :8080")

	server := &http.Server{
		Addr:         ":8080",
		Handler:      nil,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

func loadKeyStore(path string) (*jwksauth.KeyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS document: %w", err)
	}

	return jwksauth.NewKeyStore(data)
}
