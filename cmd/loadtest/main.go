package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Fires concurrent identical "successful" PATCHes at one SEPA deposit. The
// balance must move once no matter how many requests win the race.

var URL, _ = os.LookupEnv("API_URL")
var PORT, _ = os.LookupEnv("API_PORT")
var apiURL = fmt.Sprintf("http://%s:%s", URL, PORT)
var depositID, _ = os.LookupEnv("DEPOSIT_ID")
var adminToken, _ = os.LookupEnv("ADMIN_TOKEN")
var userToken, _ = os.LookupEnv("USER_TOKEN")

const (
	workers = 20
	rounds  = 5
)

type statusResponse struct {
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

func main() {
	if depositID == "" || adminToken == "" || userToken == "" {
		fmt.Println("DEPOSIT_ID, ADMIN_TOKEN and USER_TOKEN are required")
		os.Exit(1)
	}

	before, err := balance()
	if err != nil {
		fmt.Println("Error getting balance:", err)
		os.Exit(1)
	}
	fmt.Printf("Balance before: %s\n", before)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
		codes   = map[int]int{}
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				code, resp, err := markSuccessful()
				mu.Lock()
				codes[code]++
				if err == nil && resp.Changed {
					changed++
				}
				mu.Unlock()
				if err != nil {
					fmt.Println("Error sending status update:", err)
				}
			}
		}()
	}
	wg.Wait()

	after, err := balance()
	if err != nil {
		fmt.Println("Error getting balance:", err)
		os.Exit(1)
	}
	fmt.Printf("Status codes: %v\n", codes)
	fmt.Printf("Requests that changed the status: %d\n", changed)
	fmt.Printf("Balance after: %s (delta %s)\n", after, after.Sub(before))
	if changed > 1 {
		fmt.Println("FAIL: the deposit settled more than once")
		os.Exit(1)
	}
}

func markSuccessful() (int, *statusResponse, error) {
	data, _ := json.Marshal(map[string]string{"status": "successful"})
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/admin/deposits/sepa-%s", apiURL, depositID), bytes.NewBuffer(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, fmt.Errorf("wrong status code: %d", resp.StatusCode)
	}
	var out statusResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, &out, nil
}

func balance() (decimal.Decimal, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL+"/balance", nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Authorization", "Bearer "+userToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("wrong status code: %d", resp.StatusCode)
	}

	var balanceResponse struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&balanceResponse); err != nil {
		return decimal.Decimal{}, err
	}
	return balanceResponse.Balance, nil
}
