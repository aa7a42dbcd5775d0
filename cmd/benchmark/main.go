// Benchmark tool for load testing Kestrel's receivable analysis pipeline.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -count 10000
//
// This tool:
//   1. Synthesizes a deterministic stream of trade finance invoices
//   2. Sends them to Kestrel in batches for analysis
//   3. Tallies recommendations, risk levels, and investment-grade rate
//   4. Reports latency and throughput figures
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Invoice mirrors the Kestrel API invoice shape.
type Invoice struct {
	ID              string    `json:"id"`
	SupplierID      string    `json:"supplierId"`
	DebtorID        string    `json:"debtorId"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	SupplierCountry string    `json:"supplierCountry,omitempty"`
	DebtorCountry   string    `json:"debtorCountry,omitempty"`
	Region          string    `json:"region,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	PaymentTerms    string    `json:"paymentTerms,omitempty"`
	IssueDate       time.Time `json:"issueDate"`
	DueDate         time.Time `json:"dueDate"`
}

// AnalyzeRequest is the Kestrel API request format.
type AnalyzeRequest struct {
	Invoices []Invoice `json:"invoices"`
}

// AnalyzeResponse is the envelope returned by Kestrel.
type AnalyzeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		TotalAnalyzed   int     `json:"totalAnalyzed"`
		InvestmentGrade int     `json:"investmentGrade"`
		AverageQuality  float64 `json:"averageQualityScore"`
		Results         []struct {
			InvoiceID      string  `json:"invoiceId"`
			QualityScore   float64 `json:"qualityScore"`
			Recommendation string  `json:"recommendation"`
			FraudRisk      *struct {
				RiskLevel string `json:"riskLevel"`
			} `json:"fraudRisk"`
		} `json:"results"`
	} `json:"data"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TotalInvoices   int64
	InvestmentGrade int64
	HighFraudRisk   int64
	TotalErrors     int64

	QualitySum int64 // quality scores x100, summed

	ProcessingTimeMs int64

	mu              sync.Mutex
	Recommendations map[string]int64
}

func main() {
	// Parse flags
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	count := flag.Int("count", 10000, "Number of invoices to generate")
	batchSize := flag.Int("batch", 25, "Invoices per analyze request")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Seed for deterministic invoice generation")
	verbose := flag.Bool("verbose", false, "Print each batch result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        KESTREL BENCHMARK - Receivable Analysis Pipeline       ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKestrel URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Invoices:    %d\n", *count)
	fmt.Printf("Batch Size:  %d\n", *batchSize)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Seed:        %d\n", *seed)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Generate invoices
	fmt.Printf("\nGenerating %d synthetic invoices...\n", *count)
	batches := generateBatches(*seed, *count, *batchSize)
	fmt.Printf("✓ Prepared %d batches\n", len(batches))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(batches, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

var (
	currencies = []string{"USD", "USD", "USD", "EUR", "GBP", "SGD"}
	corridors  = [][2]string{
		{"SG", "US"}, {"CN", "DE"}, {"IN", "GB"}, {"VN", "US"},
		{"BR", "NL"}, {"MX", "US"}, {"DE", "FR"}, {"US", "US"},
	}
	regions    = []string{"Asia-Pacific", "Europe", "North America", "Latin America"}
	industries = []string{"Manufacturing", "Technology", "Healthcare", "Retail", "Agriculture"}
	terms      = []string{"Net 30", "Net 30", "Net 45", "Net 60", "Net 90"}
)

// generateBatches builds a deterministic invoice stream split into
// analyze-sized batches. A small share of invoices get adversarial
// shapes (round amounts, weekend issue dates) to exercise fraud rules.
func generateBatches(seed int64, count, batchSize int) [][]Invoice {
	rnd := rand.New(rand.NewSource(seed))
	now := time.Now().UTC().Truncate(24 * time.Hour)

	var batches [][]Invoice
	batch := make([]Invoice, 0, batchSize)

	for i := 0; i < count; i++ {
		corridor := corridors[rnd.Intn(len(corridors))]
		amount := 5000 + rnd.Float64()*495000

		// Roughly 5% round amounts, a common structuring tell
		if rnd.Intn(20) == 0 {
			amount = float64((int(amount)/10000 + 1) * 10000)
		}

		issue := now.AddDate(0, 0, -rnd.Intn(45))
		if rnd.Intn(20) == 0 {
			// Shift onto a Saturday
			issue = issue.AddDate(0, 0, int(time.Saturday-issue.Weekday()))
		}

		term := terms[rnd.Intn(len(terms))]
		termDays := 30
		fmt.Sscanf(term, "Net %d", &termDays)

		batch = append(batch, Invoice{
			ID:              fmt.Sprintf("bench-inv-%06d", i+1),
			SupplierID:      fmt.Sprintf("supplier-%04d", rnd.Intn(200)+1),
			DebtorID:        fmt.Sprintf("debtor-%04d", rnd.Intn(500)+1),
			Amount:          float64(int(amount*100)) / 100,
			Currency:        currencies[rnd.Intn(len(currencies))],
			SupplierCountry: corridor[0],
			DebtorCountry:   corridor[1],
			Region:          regions[rnd.Intn(len(regions))],
			Industry:        industries[rnd.Intn(len(industries))],
			PaymentTerms:    term,
			IssueDate:       issue,
			DueDate:         issue.AddDate(0, 0, termDays),
		})

		if len(batch) == batchSize {
			batches = append(batches, batch)
			batch = make([]Invoice, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	return batches
}

func runBenchmark(batches [][]Invoice, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{Recommendations: make(map[string]int64)}

	work := make(chan []Invoice, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for batch := range work {
				start := time.Now()
				result, err := analyzeBatch(client, baseURL, tenantID, batch)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: batch of %d -> %v\n", len(batch), err)
					}
					continue
				}

				atomic.AddInt64(&metrics.TotalInvoices, int64(result.Data.TotalAnalyzed))
				atomic.AddInt64(&metrics.InvestmentGrade, int64(result.Data.InvestmentGrade))
				atomic.AddInt64(&metrics.QualitySum, int64(result.Data.AverageQuality*float64(result.Data.TotalAnalyzed)*100))

				metrics.mu.Lock()
				for _, assessment := range result.Data.Results {
					metrics.Recommendations[assessment.Recommendation]++
					if assessment.FraudRisk != nil && assessment.FraudRisk.RiskLevel == "HIGH" {
						metrics.HighFraudRisk++
					}
				}
				metrics.mu.Unlock()

				if verbose {
					fmt.Printf("✓ batch of %-3d | grade: %2d/%2d | avg quality: %5.1f | %4dms\n",
						result.Data.TotalAnalyzed,
						result.Data.InvestmentGrade,
						result.Data.TotalAnalyzed,
						result.Data.AverageQuality,
						elapsed,
					)
				}
			}
		}()
	}

	for _, batch := range batches {
		work <- batch
	}
	close(work)

	wg.Wait()

	return metrics
}

func analyzeBatch(client *http.Client, baseURL, tenantID string, batch []Invoice) (*AnalyzeResponse, error) {
	body, err := json.Marshal(AnalyzeRequest{Invoices: batch})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/api/receivables/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("analysis rejected: %s", result.Error)
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 PORTFOLIO STATISTICS\n")
	fmt.Printf("   Invoices Analyzed:  %d\n", m.TotalInvoices)
	fmt.Printf("   Investment Grade:   %d", m.InvestmentGrade)
	if m.TotalInvoices > 0 {
		fmt.Printf(" (%.2f%%)", 100*float64(m.InvestmentGrade)/float64(m.TotalInvoices))
	}
	fmt.Println()
	fmt.Printf("   High Fraud Risk:    %d\n", m.HighFraudRisk)
	fmt.Printf("   Failed Batches:     %d\n", m.TotalErrors)

	if m.TotalInvoices > 0 {
		fmt.Printf("   Avg Quality Score:  %.2f\n", float64(m.QualitySum)/float64(m.TotalInvoices)/100)
	}

	if len(m.Recommendations) > 0 {
		fmt.Printf("\n📈 RECOMMENDATION DISTRIBUTION\n")
		keys := make([]string, 0, len(m.Recommendations))
		for k := range m.Recommendations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n := m.Recommendations[k]
			fmt.Printf("   %-20s %8d  (%.2f%%)\n", k, n, 100*float64(n)/float64(m.TotalInvoices))
		}
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalInvoices > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalInvoices)
		ips := float64(m.TotalInvoices) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms/invoice\n", avgMs)
		fmt.Printf("   Throughput:       %.2f invoices/sec\n", ips)
	}

	fmt.Println()
}
