// sse_load opens many concurrent connections to the dashboard's analysis
// stream and reports how fast analysis events arrive. Useful for checking the
// poll-based stream under fan-out before deploying behind a proxy.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

type counters struct {
	connected   int64
	connectErrs int64
	streamErrs  int64
	analyses    int64
	heartbeats  int64
}

func main() {
	var (
		targetURL   string
		connections int
		duration    time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/analyses/stream", "analysis stream URL")
	flag.IntVar(&connections, "conns", 100, "concurrent stream consumers")
	flag.DurationVar(&duration, "dur", time.Minute, "test duration (0 = until interrupted)")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     connections + 10,
			MaxIdleConnsPerHost: connections + 10,
			DisableCompression:  true,
		},
	}

	log.Printf("starting: url=%s conns=%d dur=%s", targetURL, connections, duration)
	start := time.Now()

	var stats counters
	var wg sync.WaitGroup
	for i := 0; i < connections; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, client, targetURL, &stats)
		}()
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("status: connected=%d connect_errs=%d stream_errs=%d analyses=%d heartbeats=%d",
					atomic.LoadInt64(&stats.connected),
					atomic.LoadInt64(&stats.connectErrs),
					atomic.LoadInt64(&stats.streamErrs),
					atomic.LoadInt64(&stats.analyses),
					atomic.LoadInt64(&stats.heartbeats))
			}
		}
	}()

	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d analyses=%d heartbeats=%d elapsed=%s analyses/s=%.2f\n",
		atomic.LoadInt64(&stats.connected),
		atomic.LoadInt64(&stats.connectErrs),
		atomic.LoadInt64(&stats.streamErrs),
		atomic.LoadInt64(&stats.analyses),
		atomic.LoadInt64(&stats.heartbeats),
		elapsed.Truncate(time.Millisecond),
		float64(atomic.LoadInt64(&stats.analyses))/elapsed.Seconds())
}

// consume holds one stream open until ctx is done, counting analysis events
// and heartbeat comments separately.
func consume(ctx context.Context, client *http.Client, targetURL string, stats *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		atomic.AddInt64(&stats.connectErrs, 1)
		return
	}
	atomic.AddInt64(&stats.connected, 1)

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&stats.streamErrs, 1)
			}
			return
		}
		switch {
		case strings.HasPrefix(line, "event: analysis"):
			atomic.AddInt64(&stats.analyses, 1)
		case strings.HasPrefix(line, ":"):
			atomic.AddInt64(&stats.heartbeats, 1)
		}
	}
}
