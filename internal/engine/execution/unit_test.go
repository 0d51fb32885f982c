package execution_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports/mocks"
	"go.trai.ch/blueshift/internal/engine/execution"
	"go.trai.ch/blueshift/internal/engine/statebox"
	"go.uber.org/mock/gomock"
)

var blinkTask = domain.Task{
	Name:     name("blink"),
	Priority: 4,
	Bindings: []domain.Binding{
		{Device: name("button"), Read: true},
		{Device: name("led"), Write: true, Initial: false},
		{Device: name("buzzer"), Write: true, Initial: "quiet"},
		{Device: name("count"), Write: true, Virtual: true, Initial: 0},
	},
}

type unitFixture struct {
	unit   *execution.Unit
	box    *statebox.ReaderBox
	j      *journal
	logger *mocks.MockLogger
	span   *mocks.MockSpan
	body   *mocks.MockTaskBody
}

func newUnitFixture(t *testing.T, arbiterErr error) *unitFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &unitFixture{
		j:      &journal{},
		logger: mocks.NewMockLogger(ctrl),
		body:   mocks.NewMockTaskBody(ctrl),
	}
	tracer, span := quietTracer(ctrl)
	f.span = span
	f.box = statebox.NewReaderBox(blinkTask, 0, f.logger)
	f.unit = execution.NewUnit(execution.UnitConfig{
		Task:    blinkTask,
		Box:     f.box,
		Arbiter: &fakeArbiter{j: f.j, requestErr: arbiterErr},
		Sender:  f.j,
		Local:   f.j.local,
		Body:    f.body,
		Tracer:  tracer,
		Logger:  f.logger,
	})
	return f
}

func (f *unitFixture) run(t *testing.T) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = f.unit.Run(ctx) }()
	return cancel
}

func TestUnit_CycleWritesChangedOutputs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newUnitFixture(t, nil)
		f.body.EXPECT().Run(gomock.Any(), []domain.Value{true, false, "quiet", 0}).
			Return([]domain.Value{true, true, "quiet", 1}, nil)

		cancel := f.run(t)
		defer cancel()

		require.NoError(t, f.box.Insert(state("button", true)))
		synctest.Wait()

		entries, msgs := f.j.snapshot()
		assert.Equal(t, []string{"request", "PROCESS_EXEC", "WRITE_STATE", "release"}, entries)
		assert.Equal(t, domain.Message{Kind: domain.KindProcessExec, Task: name("blink"), Trigger: "initial", Priority: 4}, msgs[0])
		assert.Equal(t, domain.Message{Kind: domain.KindWriteState, Task: name("blink"), Device: name("led"), Value: true}, msgs[1])

		local := f.j.localMessages()
		require.Len(t, local, 1, "virtual writes stay in process")
		assert.Equal(t, domain.KindState, local[0].Kind)
		assert.Equal(t, name("count"), local[0].Device)
		assert.Equal(t, 1, local[0].Value)
	})
}

func TestUnit_RequestFailureSkipsBody(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		requestErr := errors.New("withdrawn")
		f := newUnitFixture(t, requestErr)
		f.span.EXPECT().RecordError(gomock.Any()).Times(1)
		f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, requestErr)
		}).Times(1)

		cancel := f.run(t)
		defer cancel()

		require.NoError(t, f.box.Insert(state("button", true)))
		synctest.Wait()

		entries, _ := f.j.snapshot()
		assert.Equal(t, []string{"request"}, entries)
	})
}

func TestUnit_BodyErrorsStillRelease(t *testing.T) {
	tests := []struct {
		name        string
		out         []domain.Value
		err         error
		errContains string
	}{
		{
			name:        "Body Error",
			err:         errors.New("boom"),
			errContains: "boom",
		},
		{
			name:        "Output Length Mismatch",
			out:         []domain.Value{true},
			errContains: domain.ErrBodyOutputMismatch.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				f := newUnitFixture(t, nil)
				f.body.EXPECT().Run(gomock.Any(), gomock.Any()).Return(tt.out, tt.err)
				f.span.EXPECT().RecordError(gomock.Any()).Times(1)
				f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
					assert.ErrorContains(t, err, tt.errContains)
				}).Times(1)

				cancel := f.run(t)
				defer cancel()

				require.NoError(t, f.box.Insert(state("button", true)))
				synctest.Wait()

				entries, _ := f.j.snapshot()
				assert.Equal(t, []string{"request", "PROCESS_EXEC", "release"}, entries)
			})
		})
	}
}
