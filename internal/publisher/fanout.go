package publisher

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mas-avi/candlestream/internal/candle"
)

// Fanout broadcasts every candle to a set of registered publishers.
//
// It follows the same actor-model shape as the teacher's candle
// dispatcher: a single goroutine owns the publisher list, eliminating the
// need for a mutex around it, and every external interaction — register,
// unregister, publish — goes through a channel to that goroutine.
type Fanout struct {
	publishers []Publisher

	registerCh   chan Publisher
	unregisterCh chan Publisher
	publishCh    chan fanoutRequest

	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type fanoutRequest struct {
	pairID string
	window time.Duration
	candle candle.Candle
	reply  chan error
}

// NewFanout constructs an unstarted Fanout.
func NewFanout() *Fanout {
	return &Fanout{
		registerCh:   make(chan Publisher, 10),
		unregisterCh: make(chan Publisher, 10),
		publishCh:    make(chan fanoutRequest, 10),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start launches the owning goroutine. Calling Start twice is an error.
func (f *Fanout) Start() error {
	if !f.started.CompareAndSwap(false, true) {
		return errors.New("publisher: fanout already started")
	}

	go func() {
		defer close(f.doneCh)
		for {
			select {
			case <-f.stopCh:
				log.Info().Msg("publisher fanout stopped")
				return
			case pub := <-f.registerCh:
				f.publishers = append(f.publishers, pub)
			case pub := <-f.unregisterCh:
				f.remove(pub)
			case req := <-f.publishCh:
				req.reply <- f.broadcast(req)
			}
		}
	}()
	return nil
}

// Stop signals the owning goroutine to exit and waits for it to do so.
func (f *Fanout) Stop() {
	if !f.started.CompareAndSwap(true, false) {
		return
	}
	close(f.stopCh)
	<-f.doneCh
}

// Register adds pub to the fan-out set.
func (f *Fanout) Register(pub Publisher) error {
	if !f.started.Load() {
		return errors.New("publisher: fanout not started")
	}
	select {
	case f.registerCh <- pub:
		return nil
	default:
		return errors.New("publisher: fanout register channel is full")
	}
}

// Unregister removes pub from the fan-out set.
func (f *Fanout) Unregister(pub Publisher) error {
	select {
	case f.unregisterCh <- pub:
		return nil
	default:
		return errors.New("publisher: fanout unregister channel is full")
	}
}

// Publish implements Publisher by broadcasting to every registered
// publisher and returning the first error encountered, if any.
func (f *Fanout) Publish(pairID string, window time.Duration, c candle.Candle) error {
	if !f.started.Load() {
		return errors.New("publisher: fanout not started")
	}
	reply := make(chan error, 1)
	f.publishCh <- fanoutRequest{pairID: pairID, window: window, candle: c, reply: reply}
	return <-reply
}

// broadcast runs only inside the owning goroutine, so it touches
// f.publishers without any lock.
func (f *Fanout) broadcast(req fanoutRequest) error {
	var first error
	for _, pub := range f.publishers {
		if err := pub.Publish(req.pairID, req.window, req.candle); err != nil {
			log.Error().Err(err).Str("pair", req.pairID).Msg("fanout publisher failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (f *Fanout) remove(target Publisher) {
	for i, pub := range f.publishers {
		if pub == target {
			f.publishers = append(f.publishers[:i], f.publishers[i+1:]...)
			return
		}
	}
}
