// Soak test runner for long-duration exercise of the send-side loss-based
// bandwidth estimator.
//
// This tool drives synthetic receiver reports and cap jitter into an
// Estimator and watches for memory growth and configured-bounds violations
// over extended periods (up to 24 hours or more).
//
// Usage:
//
//	go run ./cmd/soak -duration 24h
//	go run ./cmd/soak -duration 1h  # shorter test
//
// Exposes pprof endpoint at :6060 for live profiling:
//
//	curl http://localhost:6060/debug/pprof/heap > heap.pprof
//	go tool pprof heap.pprof
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/thesyncim/sendbwe/pkg/sendbwe"
)

const (
	reportIntervalMs = 200 // one synthetic receiver report every 200ms
	capJitterEveryN  = 25  // perturb receiver/delay caps every N reports
	lossBurstEveryN  = 40  // inject a high-loss burst every N reports
	lossBurstLength  = 6   // reports
	packetsPerReport = int32(40)
	minBitrate       = uint32(50_000)
	maxBitrate       = uint32(50_000_000)
	initialBitrate   = uint32(500_000)
	statusInterval   = 5 * time.Minute
)

// SoakResult summarizes a completed run.
type SoakResult struct {
	Duration         time.Duration
	TotalReports     int
	FinalEstimate    uint32
	PeakHeapMB       float64
	TotalGCCycles    uint32
	BoundViolations  int
	SuspiciousEvents int
	Status           string
}

func main() {
	duration := flag.Duration("duration", 24*time.Hour, "Test duration (e.g., 1h, 24h)")
	pprofPort := flag.Int("pprof-port", 6060, "Port for pprof HTTP server")
	seed := flag.Int64("seed", 1, "PRNG seed for synthetic traffic")
	flag.Parse()

	fmt.Printf("sendbwe Soak Test Runner\n")
	fmt.Printf("========================\n")
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Pprof:    http://localhost:%d/debug/pprof/\n", *pprofPort)
	fmt.Printf("\n")

	go func() {
		addr := fmt.Sprintf(":%d", *pprofPort)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("Warning: pprof server failed: %v\n", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived %v, shutting down gracefully...\n", sig)
		cancel()
	}()

	result := runSoakTest(ctx, *duration, *seed)
	printSummary(result)

	if result.Status == "PASS" {
		os.Exit(0)
	}
	os.Exit(1)
}

func runSoakTest(ctx context.Context, duration time.Duration, seed int64) SoakResult {
	est := sendbwe.NewEstimator(sendbwe.NewLoggingEventLogger(discardLogger{}))
	est.SetMinMax(minBitrate, maxBitrate)
	est.SetSendBitrate(initialBitrate)

	rng := rand.New(rand.NewSource(seed))
	result := SoakResult{Status: "PASS"}

	var memStats runtime.MemStats
	startTime := time.Now()
	lastStatusTime := startTime
	var nowMs int64

	ticker := time.NewTicker(reportIntervalMs * time.Millisecond)
	defer ticker.Stop()

	fmt.Printf("[%s] Starting soak test...\n", formatDuration(0))

	for {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(startTime)
			return result

		case wallNow := <-ticker.C:
			elapsed := wallNow.Sub(startTime)
			if elapsed >= duration {
				result.Duration = elapsed
				return result
			}

			nowMs += reportIntervalMs
			result.TotalReports++

			lossQ8 := syntheticLoss(result.TotalReports, rng)
			rttMs := int64(20 + rng.Intn(130))
			est.UpdateReceiverBlock(lossQ8, rttMs, packetsPerReport, nowMs)

			if result.TotalReports%capJitterEveryN == 0 {
				jitterCaps(est, rng, nowMs)
			}

			estimate, _, _ := est.CurrentEstimate()
			result.FinalEstimate = estimate

			if estimate < est.GetMinBitrate() || estimate > maxBitrate {
				fmt.Printf("[%s] ERROR: estimate %d out of configured bounds [%d, %d]\n",
					formatDuration(elapsed), estimate, est.GetMinBitrate(), maxBitrate)
				result.BoundViolations++
				result.Status = "FAIL"
			}

			if wallNow.Sub(lastStatusTime) >= statusInterval {
				lastStatusTime = wallNow
				runtime.ReadMemStats(&memStats)

				heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
				if heapMB > result.PeakHeapMB {
					result.PeakHeapMB = heapMB
				}
				result.TotalGCCycles = memStats.NumGC

				fmt.Printf("[%s] Reports: %d, Estimate: %.2f Mbps, HeapAlloc: %.2f MB, NumGC: %d\n",
					formatDuration(elapsed), result.TotalReports, float64(estimate)/1e6, heapMB, memStats.NumGC)

				if heapMB > 100 {
					fmt.Printf("[%s] ERROR: Memory limit exceeded: %.2f MB\n", formatDuration(elapsed), heapMB)
					result.Status = "FAIL"
				}
			}
		}
	}
}

// syntheticLoss produces a Q8 loss fraction that idles near zero and spikes
// into a short high-loss burst every lossBurstEveryN reports, so the
// increase/decrease/hysteresis paths all see sustained exercise.
func syntheticLoss(reportNum int, rng *rand.Rand) uint8 {
	phase := reportNum % lossBurstEveryN
	if phase < lossBurstLength {
		return uint8(60 + rng.Intn(60))
	}
	return uint8(rng.Intn(4))
}

func jitterCaps(est *sendbwe.Estimator, rng *rand.Rand, nowMs int64) {
	receiverCap := minBitrate + uint32(rng.Intn(int(maxBitrate-minBitrate)))
	est.UpdateReceiverEstimate(nowMs, receiverCap)

	delayCap := minBitrate + uint32(rng.Intn(int(maxBitrate-minBitrate)))
	est.UpdateDelayBasedEstimate(nowMs, delayCap)
}

func printSummary(result SoakResult) {
	fmt.Printf("\n")
	fmt.Printf("Soak Test Complete\n")
	fmt.Printf("==================\n")
	fmt.Printf("Duration:          %v\n", result.Duration.Round(time.Second))
	fmt.Printf("Total reports:     %d\n", result.TotalReports)
	fmt.Printf("Final estimate:    %.2f Mbps\n", float64(result.FinalEstimate)/1e6)
	fmt.Printf("Peak HeapAlloc:    %.2f MB\n", result.PeakHeapMB)
	fmt.Printf("Total GC cycles:   %d\n", result.TotalGCCycles)
	fmt.Printf("Bound violations:  %d\n", result.BoundViolations)
	fmt.Printf("Suspicious events: %d\n", result.SuspiciousEvents)
	fmt.Printf("Status:            %s\n", result.Status)
	fmt.Printf("\n")

	fmt.Printf("Pass Criteria:\n")
	fmt.Printf("  - No panics:             %s\n", checkMark(true))
	fmt.Printf("  - Final estimate > 0:    %s\n", checkMark(result.FinalEstimate > 0))
	fmt.Printf("  - Peak memory < 100 MB:  %s\n", checkMark(result.PeakHeapMB < 100))
	fmt.Printf("  - No bound violations:   %s\n", checkMark(result.BoundViolations == 0))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

// discardLogger is a logging.LeveledLogger that drops everything, so the
// soak driver's own stdout stays limited to the status lines above.
type discardLogger struct{}

func (discardLogger) Trace(string)                  {}
func (discardLogger) Tracef(string, ...interface{}) {}
func (discardLogger) Debug(string)                  {}
func (discardLogger) Debugf(string, ...interface{}) {}
func (discardLogger) Info(string)                   {}
func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Warn(string)                   {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Error(string)                  {}
func (discardLogger) Errorf(string, ...interface{}) {}
