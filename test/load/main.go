package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// AppointmentPayload is the body of POST /api/appointments.
type AppointmentPayload struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type LoadTestConfig struct {
	BaseURL           string
	RequestsPerSecond int
	DurationSeconds   int
	ConcurrentWorkers int
	// ReadRatio is the share of requests that list appointments instead of creating one.
	ReadRatio float64
}

type endpointStats struct {
	ok      atomic.Int64
	failed  atomic.Int64
	mu      sync.Mutex
	latency []time.Duration
}

func (s *endpointStats) record(d time.Duration, ok bool) {
	if ok {
		s.ok.Add(1)
	} else {
		s.failed.Add(1)
	}
	s.mu.Lock()
	s.latency = append(s.latency, d)
	s.mu.Unlock()
}

func (s *endpointStats) sorted() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.latency))
	copy(out, s.latency)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type job struct {
	seq  int64
	read bool
}

var reasons = []string{
	"Auto insurance quote",
	"Home insurance renewal",
	"Life insurance consultation",
	"Commercial policy review",
}

func newPayload(seq int64) []byte {
	p := AppointmentPayload{
		Name:   fmt.Sprintf("Load Client %d", seq),
		Phone:  fmt.Sprintf("(254) %03d-%04d", 200+seq%800, seq%10000),
		Email:  fmt.Sprintf("load.client.%d@example.com", seq),
		Reason: reasons[seq%int64(len(reasons))],
	}
	b, _ := json.Marshal(p)
	return b
}

func run(client *http.Client, cfg LoadTestConfig, j job, creates, reads *endpointStats) {
	var (
		req *http.Request
		err error
	)
	if j.read {
		req, err = http.NewRequest(http.MethodGet, cfg.BaseURL+"/appointments", nil)
	} else {
		req, err = http.NewRequest(http.MethodPost, cfg.BaseURL+"/appointments", bytes.NewReader(newPayload(j.seq)))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	stats := creates
	if j.read {
		stats = reads
	}
	if err != nil {
		stats.record(0, false)
		return
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		stats.record(time.Since(start), false)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	want := http.StatusCreated
	if j.read {
		want = http.StatusOK
	}
	stats.record(time.Since(start), resp.StatusCode == want)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)) * p)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

func report(name string, s *endpointStats, elapsed time.Duration) {
	ok, failed := s.ok.Load(), s.failed.Load()
	total := ok + failed
	if total == 0 {
		return
	}
	lat := s.sorted()
	fmt.Printf("\n%s\n", name)
	fmt.Printf("  requests: %d (ok %d, failed %d, %.2f%% ok)\n", total, ok, failed, float64(ok)/float64(total)*100)
	fmt.Printf("  rps:      %.2f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("  p50 %v  p95 %v  p99 %v  max %v\n",
		percentile(lat, 0.50), percentile(lat, 0.95), percentile(lat, 0.99), lat[len(lat)-1])
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func main() {
	cfg := LoadTestConfig{
		BaseURL:           strings.TrimRight(getEnv("TARGET_URL", "http://localhost:5000/api"), "/"),
		RequestsPerSecond: getEnvInt("REQUESTS_PER_SECOND", 200),
		DurationSeconds:   getEnvInt("DURATION_SECONDS", 30),
		ConcurrentWorkers: getEnvInt("CONCURRENT_WORKERS", 50),
		ReadRatio:         getEnvFloat("READ_RATIO", 0.2),
	}

	fmt.Printf("target %s, %d rps for %ds, %d workers, read ratio %.2f\n",
		cfg.BaseURL, cfg.RequestsPerSecond, cfg.DurationSeconds, cfg.ConcurrentWorkers, cfg.ReadRatio)
	fmt.Println(strings.Repeat("-", 50))

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        cfg.ConcurrentWorkers,
			MaxIdleConnsPerHost: cfg.ConcurrentWorkers,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	var creates, reads endpointStats
	jobs := make(chan job, cfg.RequestsPerSecond)

	var wg sync.WaitGroup
	for i := 0; i < cfg.ConcurrentWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				run(client, cfg, j, &creates, &reads)
			}
		}()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := time.Now().Unix() * 1000
	var seq int64
	start := time.Now()
	for sec := 0; sec < cfg.DurationSeconds; sec++ {
		tick := time.Now()
		for i := 0; i < cfg.RequestsPerSecond; i++ {
			seq++
			jobs <- job{seq: base + seq, read: rng.Float64() < cfg.ReadRatio}
		}
		done := creates.ok.Load() + creates.failed.Load() + reads.ok.Load() + reads.failed.Load()
		fmt.Printf("[%ds] completed %d\n", sec+1, done)
		if d := time.Since(tick); d < time.Second {
			time.Sleep(time.Second - d)
		}
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("LOAD TEST RESULTS (%.1fs)\n", elapsed.Seconds())
	fmt.Println(strings.Repeat("=", 50))
	report("POST /appointments", &creates, elapsed)
	report("GET /appointments", &reads, elapsed)
}
