package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher coordinates multi-engine racing with staged escalation: the
// fastest engine starts first and heavier ones join if earlier ones fail
// or stall. The first session wins; losing sessions are closed.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts after
// escalationDelays[i] from the race beginning; the first delay should be 0.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Open runs the engine race for the request and returns the first session.
// A non-auto request mode restricts which engines may run.
func (d *Dispatcher) Open(ctx context.Context, req *OpenRequest) (*Session, error) {
	engines, delays := d.eligible(req.Mode)
	if len(engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engine matches mode %q", req.Mode)
	}

	domain := hostOf(req.URL)

	// A single eligible engine needs no race bookkeeping.
	if len(engines) == 1 {
		return engines[0].Open(ctx, req)
	}

	// Try the engine that last worked for this domain before racing.
	if remembered := d.memory.Get(domain); remembered != "" {
		for _, eng := range engines {
			if eng.Name() != remembered {
				continue
			}
			slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
			sess, err := eng.Open(ctx, req)
			if err == nil {
				return sess, nil
			}
			slog.Info("remembered engine failed, running full race",
				"domain", domain, "engine", remembered, "error", err)
			d.memory.Delete(domain)
			break
		}
	}

	return d.race(ctx, req, engines, delays, domain)
}

// eligible filters the engine list by request mode, keeping the configured
// escalation order.
func (d *Dispatcher) eligible(mode string) ([]Engine, []time.Duration) {
	if mode == "" || mode == ModeAuto {
		return d.engines, d.escalationDelays
	}
	var engines []Engine
	var delays []time.Duration
	for i, eng := range d.engines {
		if mode == ModeStatic && eng.Name() != "static" {
			continue
		}
		if mode == ModeBrowser && eng.Name() == "static" {
			continue
		}
		engines = append(engines, eng)
		delays = append(delays, d.escalationDelays[i])
	}
	// The first eligible engine starts immediately regardless of where it
	// sat in the escalation order.
	if len(delays) > 0 {
		shift := delays[0]
		for i := range delays {
			delays[i] -= shift
		}
	}
	return engines, delays
}

// race starts all engines with staged delays and returns the first session.
func (d *Dispatcher) race(ctx context.Context, req *OpenRequest, engines []Engine, delays []time.Duration, domain string) (*Session, error) {
	type raceResult struct {
		sess *Session
		err  error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(engines))
	var wg sync.WaitGroup

	for i, eng := range engines {
		delay := delays[i]
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}
			select {
			case <-raceCtx.Done():
				return
			default:
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			sess, err := e.Open(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{sess: sess, err: err}
		}(eng, delay)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		// First session wins — cancel the rest and close any straggler
		// that was already past cancellation.
		raceCancel()
		go func() {
			for late := range results {
				late.sess.Close()
			}
		}()
		slog.Info("engine won race", "engine", rr.sess.Engine, "url", req.URL)
		d.memory.Set(domain, rr.sess.Engine)
		return rr.sess, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// hostOf parses the hostname from a URL string.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
