package body

import (
	"context"
	"fmt"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
)

// Built-in body kinds.
const (
	KindIdentity = "identity"
	KindCopy     = "copy"
	KindToggle   = "toggle"
	KindCounter  = "counter"
)

var errUnexpectedValue = zerr.New("unexpected device value type")

// Func adapts a function to ports.TaskBody.
type Func func(ctx context.Context, snapshot []domain.Value) ([]domain.Value, error)

// Run implements ports.TaskBody.
func (f Func) Run(ctx context.Context, snapshot []domain.Value) ([]domain.Value, error) {
	return f(ctx, snapshot)
}

func newIdentity(_ domain.Task, _ map[string]any) (ports.TaskBody, error) {
	return Func(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
		return in, nil
	}), nil
}

// newCopy writes the value of device "from" to device "to".
func newCopy(task domain.Task, args map[string]any) (ports.TaskBody, error) {
	from, err := binding(task, args, "from", false)
	if err != nil {
		return nil, err
	}
	to, err := binding(task, args, "to", true)
	if err != nil {
		return nil, err
	}

	return Func(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
		out := clone(in)
		out[to] = in[from]
		return out, nil
	}), nil
}

// newToggle inverts a boolean device. A device without a value becomes true.
func newToggle(task domain.Task, args map[string]any) (ports.TaskBody, error) {
	i, err := binding(task, args, "device", true)
	if err != nil {
		return nil, err
	}

	return Func(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
		out := clone(in)
		switch v := in[i].(type) {
		case nil:
			out[i] = true
		case bool:
			out[i] = !v
		default:
			return nil, unexpected(task, i, v)
		}
		return out, nil
	}), nil
}

// newCounter adds step, default 1, to an integer device. A device without a value counts from 0.
func newCounter(task domain.Task, args map[string]any) (ports.TaskBody, error) {
	i, err := binding(task, args, "device", true)
	if err != nil {
		return nil, err
	}

	step := 1
	if raw, ok := args["step"]; ok {
		if step, ok = raw.(int); !ok {
			return nil, zerr.With(domain.ErrInvalidBodyArgs, "arg", "step")
		}
	}

	return Func(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
		out := clone(in)
		switch v := in[i].(type) {
		case nil:
			out[i] = step
		case int:
			out[i] = v + step
		case int64:
			out[i] = v + int64(step)
		case float64:
			out[i] = v + float64(step)
		default:
			return nil, unexpected(task, i, v)
		}
		return out, nil
	}), nil
}

// binding resolves a device-name argument to its position in the snapshot.
func binding(task domain.Task, args map[string]any, key string, write bool) (int, error) {
	dev, ok := args[key].(string)
	if !ok || dev == "" {
		return 0, zerr.With(domain.ErrInvalidBodyArgs, "arg", key)
	}

	b, i, ok := task.Binding(domain.NewInternedString(dev))
	if !ok || (write && !b.Write) {
		return 0, zerr.With(zerr.With(domain.ErrInvalidBodyArgs, "arg", key), "device", dev)
	}
	return i, nil
}

func unexpected(task domain.Task, i int, v domain.Value) error {
	err := zerr.With(errUnexpectedValue, "device", task.Bindings[i].Device.String())
	return zerr.With(err, "type", fmt.Sprintf("%T", v))
}

func clone(in []domain.Value) []domain.Value {
	return append([]domain.Value(nil), in...)
}
