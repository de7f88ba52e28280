package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

var (
	targetURL      string
	totalAccounts  int
	initialBalance string
	outFile        string
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API base URL")
	flag.IntVar(&totalAccounts, "accounts", 1000, "Number of accounts to create")
	flag.StringVar(&initialBalance, "balance", "100.00", "Initial balance per account")
	flag.StringVar(&outFile, "out", "", "Optional file to write the created account ids to (JSON array)")
}

func main() {
	flag.Parse()
	log.Println("--- Seeding Accounts ---")

	client := &http.Client{Timeout: 5 * time.Second}
	ids := make([]string, 0, totalAccounts)

	for i := 0; i < totalAccounts; i++ {
		payload := map[string]string{
			"first_name": fmt.Sprintf("Seed%d", i),
			"last_name":  "Account",
			"balance":    initialBalance,
		}
		body, _ := json.Marshal(payload)

		resp, err := client.Post(targetURL+"/api/v1/accounts", "application/json", bytes.NewBuffer(body))
		if err != nil {
			log.Fatalf("create account failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			resp.Body.Close()
			log.Fatalf("create account returned status %d", resp.StatusCode)
		}

		var acc struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
			resp.Body.Close()
			log.Fatalf("decode account response: %v", err)
		}
		resp.Body.Close()
		ids = append(ids, acc.ID)
	}

	log.Printf("Successfully seeded %d accounts with balance %s.", len(ids), initialBalance)

	if outFile != "" {
		if err := writeIDs(outFile, ids); err != nil {
			log.Fatalf("write ids file: %v", err)
		}
		log.Printf("Account ids written to %s", outFile)
	}
}

func writeIDs(path string, ids []string) error {
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
