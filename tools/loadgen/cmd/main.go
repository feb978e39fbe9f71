// Package main provides the CLI entry point for the inventory load generator.
//
// The tool fires a weighted mix of stock operations (receipts, transfers,
// adjustments, reservations, deliveries) plus read traffic against a running
// inventory service. Identifiers produced by one request are fed back into a
// parameter pool so later requests reference live data instead of random
// UUIDs, which keeps the traffic shape close to a real dealer network.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dealerhub/inventory/tools/loadgen/internal/pool"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
)

// CLI flags
var (
	baseURL     string
	token       string
	tenantID    string
	duration    time.Duration
	concurrency int
	qps         float64
	dealers     int
	products    int
	verbose     bool
	dryRun      bool
	showVersion bool
)

func init() {
	flag.StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the inventory service")
	flag.StringVar(&token, "token", "", "Bearer token for the Authorization header")
	flag.StringVar(&tenantID, "tenant", "", "Tenant ID sent as X-Tenant-ID (random if empty)")
	flag.DurationVar(&duration, "duration", 1*time.Minute, "Test duration (e.g. 5m, 1h)")
	flag.DurationVar(&duration, "d", 1*time.Minute, "Test duration (shorthand)")
	flag.IntVar(&concurrency, "concurrency", 8, "Number of concurrent workers")
	flag.Float64Var(&qps, "qps", 20, "Target requests per second")
	flag.IntVar(&dealers, "dealers", 10, "Number of dealer IDs to seed")
	flag.IntVar(&products, "products", 25, "Number of product IDs to seed")
	flag.BoolVar(&verbose, "verbose", false, "Log every request")
	flag.BoolVar(&verbose, "v", false, "Log every request (shorthand)")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the execution plan without sending traffic")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Inventory Load Generator

USAGE:
    loadgen -base-url <url> -token <jwt> [options]

DESCRIPTION:
    Generates a weighted mix of stock operations against the inventory
    service: purchase order receipts, dealer-to-dealer transfers, manual
    adjustments, reservations, customer deliveries, and read traffic on
    the allocation, ledger and alert endpoints.

    All traffic stays inside one tenant. Dealer and product IDs are seeded
    up front; order and reference identifiers captured from responses are
    reused by subsequent requests via the parameter pool.

OPTIONS:
    -base-url <url>       Base URL of the inventory service (default http://localhost:8080)
    -token <jwt>          Bearer token for authenticated endpoints
    -tenant <uuid>        Tenant ID for the X-Tenant-ID header (random if empty)
    -duration, -d <dur>   Test duration (default 1m)
    -concurrency <n>      Concurrent workers (default 8)
    -qps <n>              Target requests per second (default 20)
    -dealers <n>          Dealer IDs to seed (default 10)
    -products <n>         Product IDs to seed (default 25)
    -dry-run              Show execution plan without running
    -verbose, -v          Log every request
    -version              Show version information

EXAMPLES:
    # One minute of default traffic
    loadgen -base-url http://localhost:8080 -token "$JWT"

    # Sustained 100 QPS for ten minutes with a wider catalog
    loadgen -token "$JWT" -qps 100 -duration 10m -products 200
`)
}

// operation is one entry in the weighted traffic mix.
type operation struct {
	name   string
	weight int
	run    func(g *generator, ctx context.Context) error
}

// operations defines the traffic mix. Weights are relative.
var operations = []operation{
	{name: "receive", weight: 25, run: (*generator).receive},
	{name: "transfer", weight: 15, run: (*generator).transfer},
	{name: "adjust", weight: 10, run: (*generator).adjust},
	{name: "reserve", weight: 8, run: (*generator).reserve},
	{name: "release", weight: 4, run: (*generator).release},
	{name: "deliver", weight: 13, run: (*generator).deliver},
	{name: "list_allocations", weight: 10, run: (*generator).listAllocations},
	{name: "list_ledger", weight: 6, run: (*generator).listLedger},
	{name: "ledger_by_reference", weight: 4, run: (*generator).ledgerByReference},
	{name: "alert_summary", weight: 5, run: (*generator).alertSummary},
}

func totalWeight() int {
	total := 0
	for _, op := range operations {
		total += op.weight
	}
	return total
}

// opStats tracks per-operation outcomes.
type opStats struct {
	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	rejected  atomic.Int64 // 4xx responses: expected domain rejections
}

// generator holds everything a worker needs to issue requests.
type generator struct {
	client  *http.Client
	baseURL string
	token   string
	tenant  string
	pool    pool.ParameterPool
	stats   map[string]*opStats
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("loadgen version %s (built %s)\n", version, buildTime)
		return
	}

	if tenantID == "" {
		tenantID = uuid.NewString()
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -tenant must be a UUID: %v\n", err)
		os.Exit(1)
	}

	if dryRun {
		printExecutionPlan()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printExecutionPlan() {
	fmt.Println("=== Execution Plan (Dry Run) ===")
	fmt.Printf("  Target:      %s\n", baseURL)
	fmt.Printf("  Tenant:      %s\n", tenantID)
	fmt.Printf("  Duration:    %v\n", duration)
	fmt.Printf("  Concurrency: %d\n", concurrency)
	fmt.Printf("  Target QPS:  %.1f\n", qps)
	fmt.Printf("  Seed data:   %d dealers, %d products\n", dealers, products)
	fmt.Println()
	fmt.Println("Traffic mix:")
	total := totalWeight()
	for _, op := range operations {
		fmt.Printf("  %-22s w:%-3d (%.1f%%)\n", op.name, op.weight,
			float64(op.weight)/float64(total)*100)
	}
	fmt.Println()
	fmt.Println("Remove -dry-run to start the load test.")
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCfg := pool.DefaultPoolConfig()
	poolCfg.DefaultTTL = 0 // seeded IDs stay valid for the whole run
	poolCfg.MaxValuesPerType = 5000
	p := pool.NewShardedParameterPool(poolCfg)
	defer p.Close()

	g := &generator{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
		tenant:  tenantID,
		pool:    p,
		stats:   make(map[string]*opStats, len(operations)),
	}
	for _, op := range operations {
		g.stats[op.name] = &opStats{}
	}

	if err := g.seed(ctx); err != nil {
		return fmt.Errorf("seeding parameter pool: %w", err)
	}

	fmt.Printf("Starting load test: %s for %v at %.1f QPS with %d workers (tenant %s)\n",
		baseURL, duration, qps, concurrency, tenantID)

	limiter := rate.NewLimiter(rate.Limit(qps), concurrency)
	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.worker(runCtx, limiter)
		}()
	}
	wg.Wait()

	g.printReport(ctx, time.Since(start))
	return nil
}

// seed fills the pool with the dealer and product IDs every worker draws from.
func (g *generator) seed(ctx context.Context) error {
	for i := 0; i < dealers; i++ {
		if _, err := g.pool.Add(ctx, pool.NewParameterValue(uuid.NewString(), pool.SemanticTypeDealerID, 0)); err != nil {
			return err
		}
	}
	for i := 0; i < products; i++ {
		if _, err := g.pool.Add(ctx, pool.NewParameterValue(uuid.NewString(), pool.SemanticTypeProductID, 0)); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) worker(ctx context.Context, limiter *rate.Limiter) {
	total := totalWeight()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		op := pickOperation(total)
		st := g.stats[op.name]
		st.attempts.Add(1)
		if err := op.run(g, ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			st.failures.Add(1)
			if verbose {
				fmt.Printf("  %-22s FAIL %v\n", op.name, err)
			}
			continue
		}
		if verbose {
			fmt.Printf("  %-22s ok\n", op.name)
		}
	}
}

func pickOperation(total int) operation {
	n := rand.Intn(total)
	for _, op := range operations {
		if n < op.weight {
			return op
		}
		n -= op.weight
	}
	return operations[len(operations)-1]
}

// randomValue draws a random pooled value for the semantic type, falling
// back to a fresh UUID when the pool has nothing yet.
func (g *generator) randomValue(ctx context.Context, st pool.SemanticType) string {
	pv, err := g.pool.GetRandom(ctx, st)
	if err != nil || pv == nil {
		return uuid.NewString()
	}
	s, ok := pv.Value.(string)
	if !ok {
		return uuid.NewString()
	}
	return s
}

// capture stores a response-produced identifier for later requests.
func (g *generator) capture(ctx context.Context, value string, st pool.SemanticType, endpoint string) {
	if value == "" {
		return
	}
	pv := pool.NewParameterValue(value, st, 10*time.Minute).WithSource(endpoint, "$.data")
	_, _ = g.pool.Add(ctx, pv)
}

// doJSON issues a request and decodes the envelope's data field into out
// (out may be nil). 4xx responses count as rejections, not failures: the
// mix intentionally produces insufficient-stock and duplicate conditions.
func (g *generator) doJSON(ctx context.Context, opName, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", g.tenant)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	st := g.stats[opName]
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		st.successes.Add(1)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		st.rejected.Add(1)
		st.successes.Add(1) // the service behaved correctly
		return nil
	default:
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil // tolerate non-envelope bodies
	}
	if len(envelope.Data) > 0 {
		_ = json.Unmarshal(envelope.Data, out)
	}
	return nil
}

func (g *generator) receive(ctx context.Context) error {
	poID := uuid.NewString()
	body := map[string]any{
		"purchase_order_id": poID,
		"dealer_id":         g.randomValue(ctx, pool.SemanticTypeDealerID),
		"product_id":        g.randomValue(ctx, pool.SemanticTypeProductID),
		"quantity":          fmt.Sprintf("%d", 1+rand.Intn(50)),
	}
	var result struct {
		ReferenceNumber string `json:"reference_number"`
	}
	if err := g.doJSON(ctx, "receive", http.MethodPost, "/api/v1/inventory/receipts", body, &result); err != nil {
		return err
	}
	g.capture(ctx, result.ReferenceNumber, pool.SemanticTypeReferenceNumber, "POST /inventory/receipts")
	g.capture(ctx, poID, pool.SemanticTypePurchaseOrderID, "POST /inventory/receipts")
	return nil
}

func (g *generator) transfer(ctx context.Context) error {
	body := map[string]any{
		"product_id":     g.randomValue(ctx, pool.SemanticTypeProductID),
		"from_dealer_id": g.randomValue(ctx, pool.SemanticTypeDealerID),
		"to_dealer_id":   g.randomValue(ctx, pool.SemanticTypeDealerID),
		"quantity":       fmt.Sprintf("%d", 1+rand.Intn(10)),
	}
	var result struct {
		ReferenceNumber string `json:"reference_number"`
	}
	if err := g.doJSON(ctx, "transfer", http.MethodPost, "/api/v1/inventory/transfers", body, &result); err != nil {
		return err
	}
	g.capture(ctx, result.ReferenceNumber, pool.SemanticTypeReferenceNumber, "POST /inventory/transfers")
	return nil
}

func (g *generator) adjust(ctx context.Context) error {
	reasons := []string{"DAMAGE", "RETURN", "CORRECTION", "OTHER"}
	qty := 1 + rand.Intn(5)
	if rand.Intn(2) == 0 {
		qty = -qty
	}
	body := map[string]any{
		"product_id": g.randomValue(ctx, pool.SemanticTypeProductID),
		"dealer_id":  g.randomValue(ctx, pool.SemanticTypeDealerID),
		"quantity":   fmt.Sprintf("%d", qty),
		"reason":     reasons[rand.Intn(len(reasons))],
	}
	return g.doJSON(ctx, "adjust", http.MethodPost, "/api/v1/inventory/adjustments", body, nil)
}

func (g *generator) reserve(ctx context.Context) error {
	body := map[string]any{
		"product_id": g.randomValue(ctx, pool.SemanticTypeProductID),
		"dealer_id":  g.randomValue(ctx, pool.SemanticTypeDealerID),
		"quantity":   fmt.Sprintf("%d", 1+rand.Intn(3)),
	}
	return g.doJSON(ctx, "reserve", http.MethodPost, "/api/v1/inventory/reservations", body, nil)
}

func (g *generator) release(ctx context.Context) error {
	body := map[string]any{
		"product_id": g.randomValue(ctx, pool.SemanticTypeProductID),
		"dealer_id":  g.randomValue(ctx, pool.SemanticTypeDealerID),
		"quantity":   fmt.Sprintf("%d", 1+rand.Intn(3)),
	}
	return g.doJSON(ctx, "release", http.MethodPost, "/api/v1/inventory/reservations/release", body, nil)
}

func (g *generator) deliver(ctx context.Context) error {
	orderID := uuid.NewString()
	body := map[string]any{
		"order_id":   orderID,
		"dealer_id":  g.randomValue(ctx, pool.SemanticTypeDealerID),
		"product_id": g.randomValue(ctx, pool.SemanticTypeProductID),
	}
	if err := g.doJSON(ctx, "deliver", http.MethodPost, "/api/v1/inventory/deliveries", body, nil); err != nil {
		return err
	}
	g.capture(ctx, orderID, pool.SemanticTypeOrderID, "POST /inventory/deliveries")
	return nil
}

func (g *generator) listAllocations(ctx context.Context) error {
	return g.doJSON(ctx, "list_allocations", http.MethodGet, "/api/v1/allocations?page=1&page_size=20", nil, nil)
}

func (g *generator) listLedger(ctx context.Context) error {
	return g.doJSON(ctx, "list_ledger", http.MethodGet, "/api/v1/ledger?page=1&page_size=20", nil, nil)
}

func (g *generator) ledgerByReference(ctx context.Context) error {
	ref := g.randomValue(ctx, pool.SemanticTypeReferenceNumber)
	return g.doJSON(ctx, "ledger_by_reference", http.MethodGet, "/api/v1/ledger/reference/"+ref, nil, nil)
}

func (g *generator) alertSummary(ctx context.Context) error {
	return g.doJSON(ctx, "alert_summary", http.MethodGet, "/api/v1/alerts/summary", nil, nil)
}

func (g *generator) printReport(ctx context.Context, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Load Test Report ===")
	fmt.Printf("Elapsed: %v\n\n", elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(g.stats))
	for name := range g.stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var attempts, successes, failures, rejected int64
	fmt.Printf("%-22s %10s %10s %10s %10s\n", "OPERATION", "ATTEMPTS", "OK", "REJECTED", "FAILED")
	for _, name := range names {
		st := g.stats[name]
		a, s, f, r := st.attempts.Load(), st.successes.Load(), st.failures.Load(), st.rejected.Load()
		attempts += a
		successes += s
		failures += f
		rejected += r
		fmt.Printf("%-22s %10d %10d %10d %10d\n", name, a, s, r, f)
	}
	fmt.Printf("%-22s %10d %10d %10d %10d\n", "TOTAL", attempts, successes, rejected, failures)
	if elapsed > 0 {
		fmt.Printf("\nEffective QPS: %.1f\n", float64(attempts)/elapsed.Seconds())
	}

	if stats, err := g.pool.Stats(ctx); err == nil {
		fmt.Printf("\nParameter pool: %d values, hit rate %.1f%%, %d evicted\n",
			stats.TotalValues, stats.HitRate(), stats.EvictionCount)
	}
}
