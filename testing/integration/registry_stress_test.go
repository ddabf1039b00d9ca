package integration

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/registry"
)

// TestConcurrentAdd_1000Devices mirrors the teacher's stress-test
// shape (goroutine fan-out behind a semaphore) but drives the registry's
// Add path instead of an HTTP delivery push.
func TestConcurrentAdd_1000Devices(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	testConcurrentAdd(t, 1000, 64)
}

func testConcurrentAdd(t *testing.T, deviceCount, concurrency int) {
	t.Helper()

	reg := registry.New()
	defer reg.Close()

	var addedCount atomic.Int64
	reg.OnAdded(func(core.Device) { addedCount.Add(1) })

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < deviceCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			d := core.NewSimpleDevice(fmt.Sprintf("device-%d", n))
			reg.Add(d)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(deviceCount), addedCount.Load())
	require.Len(t, reg.All(), deviceCount)
}

// TestReplugUnderConcurrentLoad adds, removes and re-adds the same
// device from many goroutines; the registry must never lose track of it
// or leave more than one item registered.
func TestReplugUnderConcurrentLoad(t *testing.T) {
	reg := registry.New()
	defer reg.Close()

	d := core.NewSimpleDevice("flaky-usb-stick")
	d.SetRemoveDelay(20 * time.Millisecond)
	reg.Add(d)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Remove(d)
			reg.Add(d)
		}()
	}
	wg.Wait()

	all := reg.All()
	require.Len(t, all, 1)
	require.Equal(t, "flaky-usb-stick", all[0].ID())
}
