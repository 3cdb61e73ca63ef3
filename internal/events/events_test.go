package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndSubscribe(t *testing.T) {
	pub := NewInMemory(4)
	pub.PublishDoctorsUpdated(context.Background(), DoctorsUpdated{Source: "proxy", Count: 3})

	select {
	case evt := <-pub.SubscribeDoctorsUpdated():
		assert.Equal(t, "proxy", evt.Source)
		assert.Equal(t, 3, evt.Count)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestPublishNeverBlocksWhenFull(t *testing.T) {
	pub := NewInMemory(1)
	ctx := context.Background()
	pub.PublishDoctorsUpdated(ctx, DoctorsUpdated{Count: 1})
	pub.PublishDoctorsUpdated(ctx, DoctorsUpdated{Count: 2}) // dropped, must not hang

	evt := <-pub.SubscribeDoctorsUpdated()
	require.Equal(t, 1, evt.Count)

	select {
	case <-pub.SubscribeDoctorsUpdated():
		t.Fatal("second event should have been dropped")
	default:
	}
}
