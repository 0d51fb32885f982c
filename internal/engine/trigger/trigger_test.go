package trigger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/engine/trigger"
)

func names(s ...string) []domain.InternedString {
	return domain.NewInternedStrings(s)
}

func TestManager_DefaultRule(t *testing.T) {
	m := trigger.NewManager(names("x", "y"), nil)

	fired, _ := m.RecordUpdate(domain.NewInternedString("x"))
	assert.False(t, fired, "first reports only arm the manager")
	assert.False(t, m.Armed())

	fired, rule := m.RecordUpdate(domain.NewInternedString("y"))
	assert.True(t, fired)
	assert.Equal(t, trigger.InitialRule, rule)
	assert.True(t, m.Armed())

	fired, _ = m.RecordUpdate(domain.NewInternedString("x"))
	assert.False(t, fired, "x alone does not satisfy the all-inputs rule")

	fired, _ = m.RecordUpdate(domain.NewInternedString("x"))
	assert.False(t, fired)

	fired, rule = m.RecordUpdate(domain.NewInternedString("y"))
	assert.True(t, fired)
	assert.Equal(t, trigger.AllInputsRule, rule)

	id, priority := m.Rule(rule)
	assert.Equal(t, domain.AllInputsTriggerID, id)
	assert.Equal(t, domain.DefaultTriggerPriority, priority)
}

func TestManager_NeverFiresBeforeArmed(t *testing.T) {
	m := trigger.NewManager(names("x", "y", "z"), []domain.TriggerRule{
		{ID: "fast", Devices: names("x"), Priority: 5},
	})

	for range 10 {
		fired, _ := m.RecordUpdate(domain.NewInternedString("x"))
		require.False(t, fired)
		fired, _ = m.RecordUpdate(domain.NewInternedString("y"))
		require.False(t, fired)
	}

	fired, rule := m.RecordUpdate(domain.NewInternedString("z"))
	assert.True(t, fired)
	assert.Equal(t, trigger.InitialRule, rule)
}

func TestManager_ExplicitRulesByPriority(t *testing.T) {
	m := trigger.NewManager(names("x", "y", "z"), []domain.TriggerRule{
		{ID: "low", Devices: names("x"), Priority: 1},
		{ID: "high", Devices: names("x", "y"), Priority: 9},
		{ID: "also-low", Devices: names("z"), Priority: 1},
	})
	for _, dev := range names("x", "y", "z") {
		m.RecordUpdate(dev)
	}

	fired, rule := m.RecordUpdate(domain.NewInternedString("y"))
	assert.False(t, fired)

	fired, rule = m.RecordUpdate(domain.NewInternedString("x"))
	require.True(t, fired)
	id, priority := m.Rule(rule)
	assert.Equal(t, "high", id, "higher priority rule wins when both match")
	assert.Equal(t, 9, priority)

	fired, rule = m.RecordUpdate(domain.NewInternedString("x"))
	require.True(t, fired)
	id, _ = m.Rule(rule)
	assert.Equal(t, "low", id)

	fired, rule = m.RecordUpdate(domain.NewInternedString("z"))
	require.True(t, fired)
	id, _ = m.Rule(rule)
	assert.Equal(t, "also-low", id)
}

func TestManager_ExtremePriorities(t *testing.T) {
	m := trigger.NewManager(names("x"), []domain.TriggerRule{
		{ID: "floor", Devices: names("x"), Priority: math.MinInt},
		{ID: "zero", Devices: names("x"), Priority: 0},
		{ID: "ceiling", Devices: names("x"), Priority: math.MaxInt},
	})
	m.RecordUpdate(domain.NewInternedString("x"))

	fired, rule := m.RecordUpdate(domain.NewInternedString("x"))
	require.True(t, fired)
	id, priority := m.Rule(rule)
	assert.Equal(t, "ceiling", id)
	assert.Equal(t, math.MaxInt, priority)

	require.NoError(t, m.Disable("ceiling"))
	fired, rule = m.RecordUpdate(domain.NewInternedString("x"))
	require.True(t, fired)
	id, _ = m.Rule(rule)
	assert.Equal(t, "zero", id)

	require.NoError(t, m.Disable("zero"))
	fired, rule = m.RecordUpdate(domain.NewInternedString("x"))
	require.True(t, fired)
	id, _ = m.Rule(rule)
	assert.Equal(t, "floor", id)
}

func TestManager_EnableDisable(t *testing.T) {
	m := trigger.NewManager(names("x", "y"), []domain.TriggerRule{
		{ID: "fast", Devices: names("x"), Priority: 2},
	})
	m.RecordUpdate(domain.NewInternedString("x"))
	m.RecordUpdate(domain.NewInternedString("y"))

	require.NoError(t, m.Disable("fast"))
	fired, _ := m.RecordUpdate(domain.NewInternedString("x"))
	assert.False(t, fired)
	fired, rule := m.RecordUpdate(domain.NewInternedString("y"))
	assert.True(t, fired)
	assert.Equal(t, trigger.AllInputsRule, rule)

	require.NoError(t, m.Enable("fast"))
	fired, rule = m.RecordUpdate(domain.NewInternedString("x"))
	assert.True(t, fired)
	assert.Equal(t, 0, rule)

	require.ErrorContains(t, m.Disable("missing"), domain.ErrTriggerNotFound.Error())
}

func TestManager_TouchAndUnknownDevices(t *testing.T) {
	m := trigger.NewManager(names("x", "y"), nil)

	fired, rule := m.RecordUpdate(domain.NewInternedString("other"))
	assert.False(t, fired)
	assert.Equal(t, trigger.NoRule, rule)

	m.Touch(domain.NewInternedString("x"))
	assert.False(t, m.Armed(), "touch does not count towards arming")

	m.RecordUpdate(domain.NewInternedString("x"))
	m.RecordUpdate(domain.NewInternedString("y"))

	m.Touch(domain.NewInternedString("x"))
	fired, rule = m.RecordUpdate(domain.NewInternedString("y"))
	assert.True(t, fired)
	assert.Equal(t, trigger.AllInputsRule, rule)
}
