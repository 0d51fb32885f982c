package domain

// Value is an opaque device state. The core never inspects it; drivers and task bodies agree on its shape.
type Value = any
