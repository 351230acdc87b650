package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// simulate drives a running api-server with a mixed create/read workload so
// the retry, debounce, and rate-limit behavior can be observed under load.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	CreateRatio  float64
	Patients     int
	Doctors      int
}

type actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

type DataPool struct {
	Patients []actor
	Doctors  []actor

	mu     sync.RWMutex
	events []uuid.UUID
}

func (dp *DataPool) AddEvent(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.events = append(dp.events, id)
}

func (dp *DataPool) RandomEvent(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.events) == 0 {
		return uuid.Nil, false
	}
	return dp.events[rng.Intn(len(dp.events))], true
}

type OperationMetrics struct {
	Total   int64
	Success int64
	Degraded int64
	Error   int64

	mu        sync.Mutex
	Latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, outcome string) {
	atomic.AddInt64(&om.Total, 1)
	switch outcome {
	case "success":
		atomic.AddInt64(&om.Success, 1)
	case "degraded":
		atomic.AddInt64(&om.Degraded, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	sorted := make([]time.Duration, len(om.Latencies))
	copy(sorted, om.Latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, l := range sorted {
		total += l
	}
	avg = total / time.Duration(len(sorted))
	p50 = sorted[len(sorted)/2]
	p95 = sorted[len(sorted)*95/100]
	return avg, p50, p95
}

type Simulator struct {
	cfg     SimConfig
	pool    *DataPool
	client  *http.Client
	creates OperationMetrics
	reads   OperationMetrics
	views   OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()
	gofakeit.Seed(time.Now().UnixNano())

	pool := &DataPool{}
	for i := 0; i < cfg.Patients; i++ {
		pool.Patients = append(pool.Patients, actor{ID: uuid.New(), Name: gofakeit.Name(), Role: "patient"})
	}
	for i := 0; i < cfg.Doctors; i++ {
		pool.Doctors = append(pool.Doctors, actor{ID: uuid.New(), Name: gofakeit.Name(), Role: "clinician"})
	}

	sim := &Simulator{
		cfg:    cfg,
		pool:   pool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	log.Printf("simulating against %s for %s with %d workers", cfg.APIBaseURL, cfg.Duration, cfg.Workers)
	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 8),
		CreateRatio: getFloat("SIM_CREATE_RATIO", 0.3),
		Patients:    getInt("SIM_PATIENTS", 50),
		Doctors:     getInt("SIM_DOCTORS", 5),
	}
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.cfg.CreateRatio:
			s.doCreate(ctx, rng)
		case r < s.cfg.CreateRatio+0.4:
			s.doListEvents(ctx, rng)
		default:
			s.doDayView(ctx, rng)
		}

		time.Sleep(time.Duration(rng.Intn(200)) * time.Millisecond)
	}
}

func (s *Simulator) doCreate(ctx context.Context, rng *rand.Rand) {
	pat := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	doc := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	start := time.Now().AddDate(0, 0, rng.Intn(30)+1).Truncate(time.Hour)
	body := map[string]any{
		"title":       gofakeit.Sentence(3),
		"start":       start,
		"end":         start.Add(30 * time.Minute),
		"doctor_id":   doc.ID,
		"doctor_name": doc.Name,
		"type":        "consultation",
	}

	began := time.Now()
	status, respBody := s.request(ctx, http.MethodPost, "/events", pat, body)
	latency := time.Since(began)

	switch {
	case status == http.StatusCreated:
		var resp struct {
			Event struct {
				ID uuid.UUID `json:"id"`
			} `json:"event"`
			Outcome struct {
				State string `json:"state"`
			} `json:"outcome"`
		}
		outcome := "success"
		if err := json.Unmarshal(respBody, &resp); err == nil {
			s.pool.AddEvent(resp.Event.ID)
			if resp.Outcome.State == "local_only" {
				outcome = "degraded"
			}
		}
		s.creates.Record(latency, outcome)
	default:
		s.creates.Record(latency, "error")
	}
}

func (s *Simulator) doListEvents(ctx context.Context, rng *rand.Rand) {
	pat := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	began := time.Now()
	status, _ := s.request(ctx, http.MethodGet, "/events", pat, nil)
	latency := time.Since(began)

	if status == http.StatusOK {
		s.reads.Record(latency, "success")
	} else {
		s.reads.Record(latency, "error")
	}
}

func (s *Simulator) doDayView(ctx context.Context, rng *rand.Rand) {
	doc := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date := time.Now().AddDate(0, 0, rng.Intn(30)).Format("2006-01-02")

	began := time.Now()
	status, _ := s.request(ctx, http.MethodGet, "/views/day?date="+date, doc, nil)
	latency := time.Since(began)

	if status == http.StatusOK {
		s.views.Record(latency, "success")
	} else {
		s.views.Record(latency, "error")
	}
}

func (s *Simulator) request(ctx context.Context, method, path string, who actor, body any) (int, []byte) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIBaseURL+path, buf)
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", who.ID.String())
	req.Header.Set("X-Actor-Name", who.Name)
	req.Header.Set("X-Actor-Role", who.Role)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (s *Simulator) PrintReport() {
	printOperationReport("create", &s.creates)
	printOperationReport("list", &s.reads)
	printOperationReport("day-view", &s.views)
}

func printOperationReport(name string, om *OperationMetrics) {
	avg, p50, p95 := om.Stats()
	fmt.Printf("%-10s total=%d success=%d degraded=%d error=%d avg=%s p50=%s p95=%s\n",
		name,
		atomic.LoadInt64(&om.Total),
		atomic.LoadInt64(&om.Success),
		atomic.LoadInt64(&om.Degraded),
		atomic.LoadInt64(&om.Error),
		avg, p50, p95,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
