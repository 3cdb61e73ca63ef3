package events

import "context"

// DoctorsUpdated is published after a batch of doctor records lands in the
// store, so consumers (cache invalidation, ingest logging) can react.
type DoctorsUpdated struct {
	Source string
	Count  int
}

type Publisher interface {
	PublishDoctorsUpdated(ctx context.Context, evt DoctorsUpdated)
	SubscribeDoctorsUpdated() <-chan DoctorsUpdated
}

type inMemory struct {
	ch chan DoctorsUpdated
}

func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan DoctorsUpdated, buffer)}
}

// PublishDoctorsUpdated never blocks; events are dropped when the buffer is
// full.
func (m *inMemory) PublishDoctorsUpdated(_ context.Context, evt DoctorsUpdated) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) SubscribeDoctorsUpdated() <-chan DoctorsUpdated { return m.ch }
