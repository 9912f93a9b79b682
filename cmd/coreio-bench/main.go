// Command coreio-bench exercises the AIO Manager, Signal Capture and Bulk
// Transfer Dispatcher together against a scratch temp file, printing a
// metrics snapshot on exit. It is a demonstration/smoke harness, not a
// production service — the event loop that would drive these primitives
// in anger lives outside this module's scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreio "github.com/birchwood-labs/coreio"
	"github.com/birchwood-labs/coreio/internal/logging"
)

func main() {
	var (
		sizeStr  = flag.String("size", "1M", "size of the scratch file used for the AIO/bulk demo (e.g. 64K, 1M)")
		workers  = flag.Int("workers", 4, "bulk transfer dispatcher worker count")
		aioCap   = flag.Uint("aio-capacity", 16, "AIO manager context capacity")
		verbose  = flag.Bool("v", false, "verbose logging")
		raiseSig = flag.Bool("signal-demo", true, "self-raise SIGUSR1 once to exercise signal capture")
	)
	flag.Parse()

	size, err := parseSize(*sizeStr)
	if err != nil {
		log.Fatalf("invalid size %q: %v", *sizeStr, err)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	metrics := coreio.NewMetrics()
	observer := coreio.NewMetricsObserver(metrics)

	logger.Info("coreio-bench starting", "size", size, "workers", *workers, "aio_capacity", *aioCap)

	if err := runAIODemo(logger, observer, uint32(*aioCap), size); err != nil {
		logger.Error("aio demo failed", "error", err)
	}

	if err := runBulkDemo(logger, observer, *workers, size); err != nil {
		logger.Error("bulk demo failed", "error", err)
	}

	if *raiseSig {
		runSignalDemo(logger, observer)
	}

	snap := metrics.Snapshot()
	fmt.Printf("aio: completions=%d bytes=%d errors=%d\n", snap.AIOCompletions, snap.AIOBytes, snap.AIOErrors)
	fmt.Printf("bulk: completions=%d bytes=%d errors=%d\n", snap.BulkCompletions, snap.BulkBytes, snap.BulkErrors)
	fmt.Printf("signal: harvests=%d records=%d overflows=%d\n", snap.SignalHarvests, snap.SignalRecords, snap.SignalOverflows)
	fmt.Printf("avg_latency=%dns max_queue_depth=%d error_rate=%.2f%%\n", snap.AvgLatencyNs, snap.MaxQueueDepth, snap.ErrorRate)
}

func runAIODemo(logger *logging.Logger, observer *coreio.MetricsObserver, capacity uint32, size int) error {
	f, err := coreio.TempFile("coreio-bench-aio-*", size)
	if err != nil {
		return err
	}
	defer coreio.RemoveTempFile(f)

	mgr, err := coreio.NewAIOManager(capacity)
	if err != nil {
		return err
	}
	mgr.SetObserver(observer)
	defer mgr.Close()

	buf := make([]byte, size)
	region := coreio.NewRegion(buf, true)
	req, err := coreio.NewAIORequest(coreio.AIOModeRead, region, int(f.Fd()), 0)
	if err != nil {
		return err
	}

	if err := mgr.Submit([]*coreio.AIORequest{req}); err != nil {
		return err
	}

	done, err := mgr.Harvest(1, 5*time.Second)
	if err != nil {
		return err
	}
	for _, d := range done {
		rc, err := d.RC()
		if err != nil {
			logger.Warn("aio request reported internal error", "error", err)
			continue
		}
		logger.Info("aio read completed", "bytes", rc)
	}
	return nil
}

func runBulkDemo(logger *logging.Logger, observer *coreio.MetricsObserver, workers, size int) error {
	src, err := coreio.TempFile("coreio-bench-bulk-src-*", size)
	if err != nil {
		return err
	}
	defer coreio.RemoveTempFile(src)

	dst, err := coreio.TempFile("coreio-bench-bulk-dst-*", 0)
	if err != nil {
		return err
	}
	defer coreio.RemoveTempFile(dst)

	disp, err := coreio.NewBulkDispatcher(workers)
	if err != nil {
		return err
	}
	disp.SetObserver(observer)
	defer disp.Close()

	srcEnd := coreio.FileEndpoint(int(src.Fd()), 0, true)
	dstEnd := coreio.FileEndpoint(int(dst.Fd()), 0, true)
	req, err := coreio.NewBulkRequest(disp, srcEnd, dstEnd, uint64(size), "bench")
	if err != nil {
		return err
	}
	if err := req.Queue(); err != nil {
		return err
	}

	deadline := time.Now().Add(10 * time.Second)
	for req.MissingByteCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		completed := disp.Harvest()
		for _, c := range completed {
			if c.MissingByteCount() > 0 {
				if err := c.Queue(); err != nil {
					return err
				}
			}
		}
	}
	logger.Info("bulk transfer demo finished", "missing_bytes", req.MissingByteCount())
	return req.GetErrors()
}

func runSignalDemo(logger *logging.Logger, observer *coreio.MetricsObserver) {
	capture := coreio.NewSignalCapture(8)
	capture.SetObserver(observer)

	if err := capture.Install(int(syscall.SIGUSR1), 0); err != nil {
		logger.Warn("signal capture install failed", "error", err)
		return
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		logger.Warn("self-raise SIGUSR1 failed", "error", err)
		return
	}

	time.Sleep(50 * time.Millisecond)
	records, overflowed := capture.Harvest()
	logger.Info("signal capture demo finished", "records", len(records), "overflowed", overflowed)

	// Notify followed at once by Stop reads no signal from sigCh; SIGINT and
	// SIGTERM keep their default disposition.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	signal.Stop(sigCh)
}

func parseSize(s string) (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty size")
	}
	mult := 1
	numPart := s
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1024
		numPart = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		numPart = s[:len(s)-1]
	case 'G', 'g':
		mult = 1024 * 1024 * 1024
		numPart = s[:len(s)-1]
	}
	var n int
	if _, err := fmt.Sscanf(numPart, "%d", &n); err != nil {
		return 0, err
	}
	return n * mult, nil
}
