package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	accounts    int
	hotspot     bool
)

// Metrics
var (
	totalRequests uint64
	completed     uint64 // Sync result returned within the wait window
	accepted      uint64 // Async accepted / sync still pending
	rejected      uint64 // Validation failures
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "sync", "Workload type: sync | async")
	flag.IntVar(&accounts, "accounts", 100, "Number of accounts to create before the run")
	flag.BoolVar(&hotspot, "hotspot", false, "Send 90% of traffic between two accounts")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	ids, err := seedAccounts()
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeded %d accounts", len(ids))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, ids)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func seedAccounts() ([]string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	ids := make([]string, 0, accounts)

	for i := 0; i < accounts; i++ {
		payload := map[string]string{
			"first_name": fmt.Sprintf("Bench%d", i),
			"last_name":  "Account",
			"balance":    "10000.00",
		}
		body, _ := json.Marshal(payload)

		resp, err := client.Post(targetURL+"/api/v1/accounts", "application/json", bytes.NewBuffer(body))
		if err != nil {
			return nil, err
		}
		var acc struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("create account returned status %d", resp.StatusCode)
		}
		ids = append(ids, acc.ID)
	}
	return ids, nil
}

func worker(wg *sync.WaitGroup, start time.Time, ids []string) {
	defer wg.Done()
	client := &http.Client{Timeout: 25 * time.Second}

	endpoint := targetURL + "/api/v1/transfers"
	if workload == "async" {
		endpoint = targetURL + "/api/v1/transfers/async"
	}

	for time.Since(start) < duration {
		from, to := pickAccounts(ids)

		payload := map[string]string{
			"from_id": from,
			"to_id":   to,
			"amount":  "1.00",
		}
		body, _ := json.Marshal(payload)

		resp, err := client.Post(endpoint, "application/json", bytes.NewBuffer(body))
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 200:
			atomic.AddUint64(&completed, 1)
		case 202:
			atomic.AddUint64(&accepted, 1)
		case 400, 422:
			atomic.AddUint64(&rejected, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickAccounts(ids []string) (string, string) {
	if hotspot && len(ids) >= 2 {
		// Hotspot: 90% of traffic bounces between the first two accounts
		if rand.Float32() < 0.90 {
			if rand.Float32() < 0.5 {
				return ids[0], ids[1]
			}
			return ids[1], ids[0]
		}
	}

	a := rand.Intn(len(ids))
	b := rand.Intn(len(ids))
	for a == b {
		b = rand.Intn(len(ids))
	}
	return ids[a], ids[b]
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	done := atomic.LoadUint64(&completed)
	acc := atomic.LoadUint64(&accepted)
	rej := atomic.LoadUint64(&rejected)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"workload":       workload,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": tps,
		"completed":      done,
		"accepted":       acc,
		"rejected":       rej,
		"errors":         fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
