package filedev_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/adapters/filedev"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const waitFor = 5 * time.Second

func name(s string) domain.InternedString {
	return domain.NewInternedString(s)
}

func testConfig(t *testing.T, dir string) *domain.Config {
	t.Helper()
	cfg := domain.NewConfig()
	cfg.Driver = domain.DriverSpec{Kind: domain.DriverFile, Dir: dir, Debounce: 10 * time.Millisecond}
	for _, dev := range []*domain.Device{
		{Name: name("button"), Kind: domain.KindInterrupt},
		{Name: name("lamp"), Kind: domain.KindActuator, Initial: false},
		{Name: name("temp"), Kind: domain.KindInterrupt, Initial: 20},
		{Name: name("count"), Virtual: true, Initial: 0},
	} {
		require.NoError(t, cfg.AddDevice(dev))
	}
	require.NoError(t, cfg.AddTask(&domain.Task{
		Name: name("blink"),
		Bindings: []domain.Binding{
			{Device: name("button"), Read: true},
			{Device: name("temp"), Read: true},
			{Device: name("lamp"), Write: true},
			{Device: name("count"), Write: true},
		},
	}))
	require.NoError(t, cfg.Validate())
	return cfg
}

func next(t *testing.T, d *filedev.Driver) domain.Message {
	t.Helper()
	select {
	case msg := <-d.Inbound():
		return msg
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for an inbound message")
		return domain.Message{}
	}
}

// drain collects messages until the driver has been quiet for a while.
func drain(d *filedev.Driver) []domain.Message {
	var out []domain.Message
	for {
		select {
		case msg := <-d.Inbound():
			out = append(out, msg)
		case <-time.After(300 * time.Millisecond):
			return out
		}
	}
}

func TestDriver_PublishesExternalEdits(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	var mu sync.Mutex
	var warnings []string
	logger.EXPECT().Warn(gomock.Any()).Do(func(m string) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, m)
	}).AnyTimes()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	d, err := filedev.New(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// The watcher is registered asynchronously; keep editing until an update arrives.
	path := filepath.Join(dir, "button.yaml")
	var msg domain.Message
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte("true\n"), 0o600); err != nil {
			return false
		}
		select {
		case msg = <-d.Inbound():
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, domain.Message{Kind: domain.KindState, Device: name("button"), Value: true}, msg)
	for _, late := range drain(d) {
		assert.Equal(t, msg, late)
	}

	require.NoError(t, d.Send(ctx, domain.Message{
		Kind: domain.KindWriteState, Task: name("blink"), Device: name("lamp"), Value: true,
	}))
	echo := next(t, d)
	assert.Equal(t, domain.Message{Kind: domain.KindState, Task: name("blink"), Device: name("lamp"), Value: true}, echo)

	data, err := os.ReadFile(filepath.Join(dir, "lamp.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "true\n", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghost.yaml"), []byte("1\n"), 0o600))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(warnings) > 0
	}, waitFor, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, `ignoring file for unknown device "ghost"`, warnings[0])
	mu.Unlock()

	select {
	case extra := <-d.Inbound():
		t.Fatalf("own write was published again: %s", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDriver_RequestStatesReadsFiles(t *testing.T) {
	dir := t.TempDir()
	d, err := filedev.New(testConfig(t, dir), mocks.NewMockLogger(gomock.NewController(t)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp.yaml"), []byte("22.5\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.NoError(t, d.Send(ctx, domain.Message{Kind: domain.KindRequestStates, Task: name("blink")}))
	assert.Equal(t, domain.Message{Kind: domain.KindState, Device: name("temp"), Value: 22.5}, next(t, d))
	assert.Equal(t, domain.Message{Kind: domain.KindState, Device: name("lamp"), Value: false}, next(t, d))
}
