package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
)

type StressTest struct {
	baseURL string
	client  *http.Client
	rng     *rand.Rand
	rngMu   sync.Mutex
}

type TestResult struct {
	TestName   string
	Success    bool
	Error      string
	Duration   time.Duration
	StatusCode int
}

type ValidationResult struct {
	TotalTests  int
	PassedTests int
	FailedTests int
	Results     []TestResult
}

func NewStressTest(baseURL string) *StressTest {
	return &StressTest{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (st *StressTest) intn(n int) int {
	st.rngMu.Lock()
	defer st.rngMu.Unlock()
	return st.rng.Intn(n)
}

// randomStay returns a dropoff/pickup pair 1 to 14 days apart, starting next week
func (st *StressTest) randomStay() (string, string) {
	start := time.Now().UTC().AddDate(0, 0, 7+st.intn(30)).Truncate(time.Hour)
	end := start.Add(time.Duration(24*(1+st.intn(14))+st.intn(24)) * time.Hour)
	return start.Format("2006-01-02T15:04"), end.Format("2006-01-02T15:04")
}

func (st *StressTest) search(location string) (*models.SearchResponse, int, error) {
	dropoff, pickup := st.randomStay()
	q := url.Values{
		"location":     {location},
		"dropoff":      {dropoff},
		"pickup":       {pickup},
		"vehicles":     {fmt.Sprint(1 + st.intn(3))},
		"cancellation": {fmt.Sprint(st.intn(2) == 1)},
		"sort_by":      {[]string{"cheapest", "reviews"}[st.intn(2)]},
	}
	resp, err := st.client.Get(st.baseURL + "/api/parkings/search?" + q.Encode())
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	var out models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, resp.StatusCode, nil
}

func (st *StressTest) runSearchTest(location string, concurrentUsers int, duration time.Duration) ValidationResult {
	log.Printf("Starting search stress test with %d concurrent users for %v", concurrentUsers, duration)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []TestResult
	)
	endTime := time.Now().Add(duration)

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			for time.Now().Before(endTime) {
				testStart := time.Now()
				result := TestResult{TestName: fmt.Sprintf("Search User %d", userID)}

				out, status, err := st.search(location)
				result.StatusCode = status
				switch {
				case err != nil:
					result.Error = err.Error()
				case out.Count == 0:
					result.Error = "no parkings returned"
				default:
					result.Success = true
				}
				result.Duration = time.Since(testStart)

				mu.Lock()
				results = append(results, result)
				mu.Unlock()

				// Small delay between requests
				time.Sleep(time.Duration(st.intn(1000)) * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	return summarize("Search", results)
}

// runCheckoutTest opens concurrent checkouts against the sandbox gateway,
// so the service must run with SANDBOX_ENABLED=true.
// Every well-formed checkout must end with an order in a known state.
func (st *StressTest) runCheckoutTest(location string, concurrentUsers int) ValidationResult {
	log.Printf("Starting concurrent checkout test with %d users", concurrentUsers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []TestResult
		byStatus = map[models.OrderStatus]int{}
	)

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			testStart := time.Now()
			result := TestResult{TestName: fmt.Sprintf("Checkout User %d", userID)}

			found, _, err := st.search(location)
			if err != nil || found.Count == 0 {
				result.Error = fmt.Sprintf("search before checkout failed: %v", err)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
				return
			}

			req := models.CheckoutRequest{
				Intent: found.Quotes[st.intn(found.Count)].Intent,
				Customer: models.Customer{
					FirstName: "Load",
					LastName:  fmt.Sprintf("User%d", userID),
					Email:     fmt.Sprintf("load.user%d@example.com", userID),
				},
				Vehicles: []models.Vehicle{{Registration: models.Loose(fmt.Sprintf("LT%02d ABC", userID))}},
				Gateway:  "sandbox",
			}
			body, _ := json.Marshal(req)

			resp, err := st.client.Post(st.baseURL+"/api/checkout", "application/json", bytes.NewReader(body))
			if err != nil {
				result.Error = fmt.Sprintf("Request failed: %v", err)
			} else {
				var out models.CheckoutResponse
				decodeErr := json.NewDecoder(resp.Body).Decode(&out)
				resp.Body.Close()
				result.StatusCode = resp.StatusCode

				switch {
				case decodeErr != nil:
					result.Error = fmt.Sprintf("Failed to decode response: %v", decodeErr)
				case out.OrderID == "":
					result.Error = fmt.Sprintf("no order created (status %d)", resp.StatusCode)
				default:
					result.Success = true
					mu.Lock()
					byStatus[out.Status]++
					mu.Unlock()
				}
			}
			result.Duration = time.Since(testStart)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	log.Printf("Checkout outcomes: %v", byStatus)
	return summarize("Checkout", results)
}

func summarize(name string, results []TestResult) ValidationResult {
	v := ValidationResult{TotalTests: len(results), Results: results}
	var total time.Duration
	for _, r := range results {
		if r.Success {
			v.PassedTests++
		} else {
			v.FailedTests++
		}
		total += r.Duration
	}

	log.Printf("%s test completed:", name)
	log.Printf("  Total requests: %d", v.TotalTests)
	log.Printf("  Successful: %d", v.PassedTests)
	log.Printf("  Failed: %d", v.FailedTests)
	if v.TotalTests > 0 {
		log.Printf("  Success rate: %.2f%%", float64(v.PassedTests)/float64(v.TotalTests)*100)
		log.Printf("  Mean latency: %v", total/time.Duration(v.TotalTests))
	}
	return v
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "parking service base URL")
	location := flag.String("location", "LHR", "airport location to search")
	users := flag.Int("users", 10, "concurrent users")
	duration := flag.Duration("duration", 30*time.Second, "search test duration")
	flag.Parse()

	log.Println("Starting Parking Service Stress Tests...")
	st := NewStressTest(*baseURL)

	log.Println("=== Search Stress Test ===")
	searchResult := st.runSearchTest(*location, *users, *duration)

	log.Println("=== Concurrent Checkout Test ===")
	checkoutResult := st.runCheckoutTest(*location, *users)

	allResults := append(searchResult.Results, checkoutResult.Results...)
	totalTests := searchResult.TotalTests + checkoutResult.TotalTests
	totalFailed := searchResult.FailedTests + checkoutResult.FailedTests

	log.Println("=== Failed Requests ===")
	for _, result := range allResults {
		if !result.Success {
			log.Printf("%s: %s (Duration: %v, Status: %d)", result.TestName, result.Error, result.Duration, result.StatusCode)
		}
	}

	log.Println("=== Test Summary ===")
	log.Printf("Total Tests: %d", totalTests)
	log.Printf("Passed: %d", totalTests-totalFailed)
	log.Printf("Failed: %d", totalFailed)
	if totalFailed == 0 {
		log.Println("All tests passed")
	} else {
		log.Printf("%d tests failed", totalFailed)
	}
}
