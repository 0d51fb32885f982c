package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
)

func name(s string) domain.InternedString {
	return domain.NewInternedString(s)
}

func newConfig(t *testing.T, devices []domain.Device, tasks []domain.Task) *domain.Config {
	t.Helper()
	cfg := domain.NewConfig()
	for i := range devices {
		require.NoError(t, cfg.AddDevice(&devices[i]))
	}
	for i := range tasks {
		require.NoError(t, cfg.AddTask(&tasks[i]))
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	devices := []domain.Device{
		{Name: name("x"), Kind: domain.KindPolling, Initial: 0},
		{Name: name("y"), Kind: domain.KindInterrupt},
		{Name: name("led"), Kind: domain.KindActuator, Initial: false},
		{Name: name("scratch"), Virtual: true},
	}

	tests := []struct {
		name        string
		task        domain.Task
		errContains string
	}{
		{
			name: "Valid",
			task: domain.Task{
				Name: name("blink"),
				Bindings: []domain.Binding{
					{Device: name("x"), Read: true},
					{Device: name("y"), Read: true},
					{Device: name("led"), Write: true},
				},
				Triggers: []domain.TriggerRule{{ID: "fast", Devices: []domain.InternedString{name("y")}}},
			},
		},
		{
			name: "Unknown Device",
			task: domain.Task{
				Name:     name("blink"),
				Bindings: []domain.Binding{{Device: name("missing"), Read: true}},
			},
			errContains: domain.ErrDeviceNotFound.Error(),
		},
		{
			name: "Reserved Trigger ID",
			task: domain.Task{
				Name:     name("blink"),
				Bindings: []domain.Binding{{Device: name("x"), Read: true}},
				Triggers: []domain.TriggerRule{{ID: domain.AllInputsTriggerID, Devices: []domain.InternedString{name("x")}}},
			},
			errContains: domain.ErrDuplicateTrigger.Error(),
		},
		{
			name: "Duplicate Trigger ID",
			task: domain.Task{
				Name:     name("blink"),
				Bindings: []domain.Binding{{Device: name("x"), Read: true}},
				Triggers: []domain.TriggerRule{
					{ID: "a", Devices: []domain.InternedString{name("x")}},
					{ID: "a", Devices: []domain.InternedString{name("x")}},
				},
			},
			errContains: domain.ErrDuplicateTrigger.Error(),
		},
		{
			name: "Empty Rule",
			task: domain.Task{
				Name:     name("blink"),
				Bindings: []domain.Binding{{Device: name("x"), Read: true}},
				Triggers: []domain.TriggerRule{{ID: "a"}},
			},
			errContains: domain.ErrInvalidTriggerRule.Error(),
		},
		{
			name: "Rule On Unread Device",
			task: domain.Task{
				Name: name("blink"),
				Bindings: []domain.Binding{
					{Device: name("x"), Read: true},
					{Device: name("led"), Write: true},
				},
				Triggers: []domain.TriggerRule{{ID: "a", Devices: []domain.InternedString{name("led")}}},
			},
			errContains: domain.ErrInvalidTriggerRule.Error(),
		},
		{
			name: "Rule On Virtual Device",
			task: domain.Task{
				Name:     name("blink"),
				Bindings: []domain.Binding{{Device: name("scratch"), Read: true}},
				Triggers: []domain.TriggerRule{{ID: "a", Devices: []domain.InternedString{name("scratch")}}},
			},
			errContains: domain.ErrInvalidTriggerRule.Error(),
		},
		{
			name: "Unknown Overwrite Policy",
			task: domain.Task{
				Name: name("blink"),
				Bindings: []domain.Binding{
					{Device: name("x"), Read: true},
					{Device: name("led"), Write: true, Overwrite: "latest"},
				},
			},
			errContains: domain.ErrInvalidOverwrite.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, devices, []domain.Task{tt.task})
			err := cfg.Validate()
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_Indexes(t *testing.T) {
	cfg := newConfig(t,
		[]domain.Device{
			{Name: name("x"), Initial: 1},
			{Name: name("led")},
			{Name: name("scratch"), Virtual: true, Initial: "v"},
		},
		[]domain.Task{
			{
				Name: name("b"),
				Bindings: []domain.Binding{
					{Device: name("x"), Read: true},
					{Device: name("led"), Write: true},
					{Device: name("scratch"), Read: true, Write: true},
				},
			},
			{
				Name: name("a"),
				Bindings: []domain.Binding{
					{Device: name("x"), Read: true},
					{Device: name("led"), Read: true, Write: true},
				},
			},
		},
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.TaskCount())
	assert.Equal(t, 3, cfg.DeviceCount())
	assert.Equal(t, []domain.InternedString{name("b")}, cfg.Writers(name("scratch")))
	assert.ElementsMatch(t, []domain.InternedString{name("a"), name("b")}, cfg.Writers(name("led")))
	assert.ElementsMatch(t, []domain.InternedString{name("a"), name("b")}, cfg.Readers(name("x")))
	assert.Equal(t, []domain.InternedString{name("a")}, cfg.Readers(name("led")))
	assert.ElementsMatch(t, []domain.InternedString{name("a"), name("b")}, cfg.Bound(name("led")))
	assert.Equal(t, domain.DefaultMaxPending, cfg.MaxPending)

	var order []string
	for task := range cfg.Tasks() {
		order = append(order, task.Name.String())
	}
	assert.Equal(t, []string{"a", "b"}, order)

	b, ok := cfg.Task(name("b"))
	require.True(t, ok)
	assert.Equal(t, []domain.InternedString{name("led"), name("scratch")}, b.MustOwn())
	assert.Equal(t, []domain.InternedString{name("x")}, b.Inputs())

	binding, idx, ok := b.Binding(name("scratch"))
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.True(t, binding.Virtual)
	assert.Equal(t, "v", binding.Initial)
}

func TestConfig_AddDuplicates(t *testing.T) {
	cfg := domain.NewConfig()
	require.NoError(t, cfg.AddDevice(&domain.Device{Name: name("x")}))
	require.ErrorContains(t, cfg.AddDevice(&domain.Device{Name: name("x")}), domain.ErrDeviceAlreadyExists.Error())

	require.NoError(t, cfg.AddTask(&domain.Task{Name: name("t")}))
	require.ErrorContains(t, cfg.AddTask(&domain.Task{Name: name("t")}), domain.ErrTaskAlreadyExists.Error())

	require.ErrorContains(t, cfg.AddTask(&domain.Task{Name: name("bad name")}), domain.ErrInvalidTaskName.Error())
}

func TestTask_MustOwnSorted(t *testing.T) {
	task := domain.Task{
		Name: name("t"),
		Bindings: []domain.Binding{
			{Device: name("c"), Write: true},
			{Device: name("a"), Write: true},
			{Device: name("b"), Read: true},
		},
	}
	got := task.MustOwn()
	assert.True(t, slices.IsSortedFunc(got, domain.CompareInterned))
	assert.Equal(t, []domain.InternedString{name("a"), name("c")}, got)
	assert.True(t, task.Reads(name("b")))
	assert.False(t, task.Reads(name("a")))
}

func TestMessage_String(t *testing.T) {
	msg := domain.Message{Kind: domain.KindOwnershipOffer, Task: name("t"), Device: name("d"), Priority: 5}
	assert.Equal(t, "OWNERSHIP_OFFER(task=t, device=d, priority=5)", msg.String())

	msg = domain.Message{Kind: domain.KindRelease, Task: name("t"), Device: name("d")}
	assert.Equal(t, "RELEASE(task=t, device=d)", msg.String())
}
