package execution_test

import (
	"context"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func name(s string) domain.InternedString {
	return domain.NewInternedString(s)
}

func state(dev string, v domain.Value) domain.Message {
	return domain.Message{Kind: domain.KindState, Device: name(dev), Value: v}
}

// journal records messages and arbiter calls in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
	msgs    []domain.Message
	locals  []domain.Message
}

func (j *journal) local(msg domain.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.locals = append(j.locals, msg)
}

func (j *journal) localMessages() []domain.Message {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.Message(nil), j.locals...)
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) Send(_ context.Context, msg domain.Message) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, string(msg.Kind))
	j.msgs = append(j.msgs, msg)
	return nil
}

func (j *journal) snapshot() ([]string, []domain.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...), append([]domain.Message(nil), j.msgs...)
}

type fakeArbiter struct {
	j          *journal
	requestErr error
}

func (a *fakeArbiter) Request(_ context.Context, _ domain.InternedString, _ int) error {
	a.j.add("request")
	return a.requestErr
}

func (a *fakeArbiter) Release(_ context.Context, _ domain.InternedString) error {
	a.j.add("release")
	return nil
}

// quietTracer returns a tracer whose spans accept any call.
func quietTracer(ctrl *gomock.Controller) (*mocks.MockTracer, *mocks.MockSpan) {
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().AddEvent(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	return tracer, span
}

type bodyFunc func(ctx context.Context, in []domain.Value) ([]domain.Value, error)

func (f bodyFunc) Run(ctx context.Context, in []domain.Value) ([]domain.Value, error) {
	return f(ctx, in)
}
