package scheduler_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports/mocks"
	"go.trai.ch/blueshift/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func name(s string) domain.InternedString {
	return domain.NewInternedString(s)
}

// buildConfig creates a config where each task writes the listed devices.
// Devices named with a "virt" prefix are virtual.
func buildConfig(t *testing.T, writes map[string][]string) *domain.Config {
	t.Helper()
	cfg := domain.NewConfig()
	devices := make(map[string]bool)
	for task, devs := range writes {
		bindings := make([]domain.Binding, 0, len(devs))
		for _, dev := range devs {
			bindings = append(bindings, domain.Binding{Device: name(dev), Write: true})
			if !devices[dev] {
				devices[dev] = true
				require.NoError(t, cfg.AddDevice(&domain.Device{
					Name:    name(dev),
					Kind:    domain.KindActuator,
					Virtual: strings.HasPrefix(dev, "virt"),
				}))
			}
		}
		require.NoError(t, cfg.AddTask(&domain.Task{Name: name(task), Bindings: bindings}))
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (r *recordingSender) Send(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// take returns the messages sent since the last call.
func (r *recordingSender) take() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}

type harness struct {
	s      *scheduler.Scheduler
	sent   *recordingSender
	logger *mocks.MockLogger
	ctx    context.Context
}

// startScheduler runs a scheduler for cfg until the test's bubble ends.
func startScheduler(t *testing.T, cfg *domain.Config) (*harness, context.CancelFunc) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	sent := &recordingSender{}
	s := scheduler.NewScheduler(cfg, sent, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()

	return &harness{s: s, sent: sent, logger: logger, ctx: ctx}, cancel
}

// tolerateWarnings accepts warnings from requests still pending when the test ends.
func (h *harness) tolerateWarnings() {
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
}

func (h *harness) receive(t *testing.T, kind domain.MessageKind, task, dev string) {
	t.Helper()
	require.NoError(t, h.s.Receive(h.ctx, domain.Message{Kind: kind, Task: name(task), Device: name(dev)}))
}

// acquire drives the full handshake for task over devs and waits for Request to return.
func (h *harness) acquire(t *testing.T, task string, priority int, devs ...string) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- h.s.Request(h.ctx, name(task), priority) }()
	synctest.Wait()
	for _, dev := range devs {
		h.receive(t, domain.KindGrant, task, dev)
	}
	for _, dev := range devs {
		h.receive(t, domain.KindConfirmOK, task, dev)
	}
	require.NoError(t, <-errCh)
	h.sent.take()
}

func offer(task, dev string, priority int) domain.Message {
	return domain.Message{Kind: domain.KindOwnershipOffer, Task: name(task), Device: name(dev), Priority: priority}
}

func msg(kind domain.MessageKind, task, dev string) domain.Message {
	return domain.Message{Kind: kind, Task: name(task), Device: name(dev)}
}
