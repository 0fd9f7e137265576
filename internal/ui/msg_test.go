package ui

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishNeverBlocks(t *testing.T) {
	drainTestBus()
	t.Cleanup(drainTestBus)

	sent0, dropped0 := BusStats()

	const numGoroutines = 8
	const messagesPerGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				PublishSuccess("saved", "Portfolio")
			}
		}()
	}
	wg.Wait()

	sent, dropped := BusStats()
	assert.Equal(t, uint64(numGoroutines*messagesPerGoroutine), (sent-sent0)+(dropped-dropped0))
	assert.Equal(t, uint64(cap(Bus)), sent-sent0)
}

func TestListenBusWrapsMessage(t *testing.T) {
	drainTestBus()
	t.Cleanup(drainTestBus)

	PublishError(errors.New("disk full"), "Export")
	msg, ok := ListenBus()().(BusMsg)
	require.True(t, ok)

	errMsg, ok := msg.Msg.(ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "Export", errMsg.Title)
	assert.EqualError(t, errMsg.Error, "disk full")
}

func TestNavigate(t *testing.T) {
	assert.Equal(t, RouterMsg{To: RouteDetail, RecordID: "abc"}, Navigate(RouteDetail, "abc")())
	assert.Equal(t, "calculator", RouteCalculator.String())
	assert.Equal(t, "unknown", Route(42).String())
}
