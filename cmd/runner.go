package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mikaelmello/echoping/core"
	"github.com/mikaelmello/echoping/metrics"
)

// openTransport opens the transport of every session created by a runner
var openTransport core.TransportOpener = core.OpenTransport

// Runner is the struct that is responsible for running the program
type Runner struct {
	session   *core.Session
	collector *metrics.Collector
	out       io.Writer
	sigch     chan os.Signal
	endch     chan error
	donech    chan struct{}
	sigwg     sync.WaitGroup
	cancel    context.CancelFunc
}

// newRunner creates a runner with the initialized values
func newRunner(cfg *config, out io.Writer) (*Runner, error) {
	session, err := core.NewSession(cfg.Address, cfg.Settings)
	if err != nil {
		return nil, err
	}
	session.SetTransportOpener(openTransport)

	p := &printer{out: out}
	if cfg.Quiet {
		registerQuiet(session, p)
	} else {
		p.register(session)
	}

	r := &Runner{
		session: session,
		out:     out,
		sigch:   make(chan os.Signal, 1),
		endch:   make(chan error, 1),
		donech:  make(chan struct{}),
	}

	if cfg.Metrics {
		r.collector = metrics.NewCollector(cfg.Address)
		r.collector.Register(session)
	}

	return r, nil
}

// Start starts the runner
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.handleSignals()

	go func() {
		err := r.session.Run(ctx)
		if err == nil && r.collector != nil {
			err = r.collector.Write(r.out)
		}
		r.endch <- err
	}()
}

// RequestStop requests the stop of the session, the statistics of what was sent are still printed
func (r *Runner) RequestStop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks the caller until the runner and its signal handler finish
func (r *Runner) Wait() error {
	err := <-r.endch
	signal.Stop(r.sigch)
	close(r.donech)
	r.sigwg.Wait()
	r.RequestStop()
	return err
}

// handleSignals registers the interrupt and termination signals as stop requests
func (r *Runner) handleSignals() {
	signal.Notify(r.sigch, os.Interrupt, syscall.SIGTERM)
	r.sigwg.Add(1)
	go func() {
		defer r.sigwg.Done()
		select {
		case <-r.sigch:
			r.RequestStop()
		case <-r.donech:
		}
	}()
}
