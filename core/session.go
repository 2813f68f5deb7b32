package core

import (
	"context"
	"math"
	"math/rand"
	"net/netip"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Session is a run of echo requests against a single IPv4 target
type Session struct {
	// Stats contain the overall statistics of the session, filled once the session finishes.
	Stats Statistics

	settings *Settings

	// id is the identifier used in the echo header of every request of this session.
	id uint16

	// addr is the IPv4 address of the target host
	addr netip.Addr

	// logger is an instance of logrus used to log activities related to this session
	logger *log.Logger

	// opener opens the transport used for the exchange.
	opener TransportOpener

	// now returns the current time, used to measure round trips.
	now func() time.Time

	// isStarted contains whether the session has been started
	isStarted *atomic.Bool

	// isFinished contains whether the session has been finished
	isFinished *atomic.Bool

	// rtHandlers are the callback functions called after each probe, replied or not.
	rtHandlers []func(*Session, *RoundTrip)

	// stHandlers are the callback functions called when the session starts.
	// The function parameters are the session and the first echo request.
	stHandlers []func(*Session, *EchoRequest)

	// endHandlers are the callback functions called when the session ends.
	endHandlers []func(*Session)
}

// NewSession creates a new Session. The address must be an IPv4 literal, no resolution is done.
func NewSession(address string, settings *Settings) (*Session, error) {
	logger := NewLogger(settings.LoggingLevel, os.Stderr)

	logger.Debug("Validating settings")

	if err := settings.validate(); err != nil {
		return nil, err
	}

	logger.Debug("Settings configured correctly")

	addr, err := parseIPv4(address)
	if err != nil {
		return nil, err
	}

	r := rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	session := &Session{
		settings:   settings,
		id:         uint16(r.Intn(math.MaxUint16 + 1)),
		addr:       addr,
		logger:     logger,
		opener:     OpenTransport,
		now:        time.Now,
		isStarted:  atomic.NewBool(false),
		isFinished: atomic.NewBool(false),
	}

	logger.Infof("Created session with id %d, addr %s, count %d, timeout %s, privileged %t",
		session.id, session.addr, settings.Count, settings.Timeout, settings.IsPrivileged)

	return session, nil
}

// Run sends the configured amount of echo requests, one after the other, waiting for the reply
// of each before sending the next. Timeouts and invalid replies are counted as lost, any other
// failure aborts the run and is returned. Cancelling ctx stops the run before the next request.
func (s *Session) Run(ctx context.Context) error {
	if s.isFinished.Load() {
		return errors.New("this session has already finished")
	}
	if !s.isStarted.CAS(false, true) {
		return errors.New("this session has already started")
	}

	tr, err := s.opener(s.settings)
	if err != nil {
		return err
	}
	defer tr.Close()

	s.logger.Infof("Setting receive timeout to %s", s.settings.Timeout)
	if err := tr.SetReceiveTimeout(s.settings.Timeout); err != nil {
		return err
	}

	s.logger.Info("Calling start callbacks")
	for _, f := range s.stHandlers {
		f(s, NewEchoRequest(s.id, 0))
	}

	stats, err := s.exchange(ctx, tr, Statistics{StartTime: s.now()})
	if err != nil {
		return err
	}
	stats.EndTime = s.now()
	s.Stats = stats

	s.logger.Info("Calling ending callbacks")
	for _, f := range s.endHandlers {
		f(s)
	}

	s.isFinished.Store(true)
	s.logger.Info("Session ended")
	return nil
}

// exchange runs the probes and returns the statistics accumulated on top of stats.
func (s *Session) exchange(ctx context.Context, tr Transport, stats Statistics) (Statistics, error) {
	for seq := 0; seq < s.settings.Count; seq++ {
		select {
		case <-ctx.Done():
			s.logger.Infof("Stop requested after %d requests", seq)
			return stats, nil
		default:
		}

		rt, err := s.probe(tr, uint16(seq))
		if err != nil {
			return stats, err
		}

		stats = stats.Record(rt)
		s.processRoundTrip(rt)
	}

	return stats, nil
}

// IsStarted returns whether this session is started
func (s *Session) IsStarted() bool {
	return s.isStarted.Load()
}

// IsFinished returns whether this session is finished
func (s *Session) IsFinished() bool {
	return s.isFinished.Load()
}

// Address is the IPv4 address of the target host
func (s *Session) Address() netip.Addr {
	return s.addr
}

// ID is the identifier carried by the echo requests of this session
func (s *Session) ID() uint16 {
	return s.id
}

// Count is the amount of echo requests the session sends
func (s *Session) Count() int {
	return s.settings.Count
}

// SetTransportOpener replaces the function used to open the transport, must be called before Run
func (s *Session) SetTransportOpener(opener TransportOpener) {
	s.opener = opener
}

// SetLogger replaces the session logger
func (s *Session) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// AddOnRecv adds a handler function that will be called after an echo request is replied, times out
// or gets an invalid response
func (s *Session) AddOnRecv(handler func(*Session, *RoundTrip)) {
	s.rtHandlers = append(s.rtHandlers, handler)
}

// AddOnStart adds a handler function that will be called when the session starts
func (s *Session) AddOnStart(handler func(*Session, *EchoRequest)) {
	s.stHandlers = append(s.stHandlers, handler)
}

// AddOnFinish adds a handler function that will be called when the session ends
func (s *Session) AddOnFinish(handler func(*Session)) {
	s.endHandlers = append(s.endHandlers, handler)
}

// processRoundTrip calls all handlers for a round trip.
func (s *Session) processRoundTrip(rt *RoundTrip) {
	s.logger.Debugf("Calling all handlers for round trip %d (%s)", rt.Seq, rt.Res)
	for _, f := range s.rtHandlers {
		f(s, rt)
	}
}
