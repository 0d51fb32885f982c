package app

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/ui/output"
	"go.trai.ch/blueshift/internal/ui/style"
)

type planWriter struct {
	out *termenv.Output
	b   strings.Builder
}

func (p *planWriter) line(indent int, parts ...string) {
	p.b.WriteString(strings.Repeat("  ", indent))
	p.b.WriteString(strings.Join(parts, " "))
	p.b.WriteByte('\n')
}

func (p *planWriter) color(s string, c lipgloss.Color) string {
	return p.out.String(s).Foreground(termenv.RGBColor(string(c))).String()
}

func (p *planWriter) bold(s string) string {
	return p.out.String(s).Bold().String()
}

// renderPlan writes the device table with the tasks contending for each device,
// followed by every task's bindings and trigger rules.
func renderPlan(w io.Writer, cfg *domain.Config) error {
	p := &planWriter{out: output.New(w)}

	p.line(0, p.bold(fmt.Sprintf("devices (%d)", cfg.DeviceCount())))
	for dev := range cfg.Devices() {
		icon := p.color(style.Dot, style.Iris)
		kind := string(dev.Kind)
		if dev.Virtual {
			icon = p.color(style.Circle, style.Slate)
			kind = "virtual"
		}
		parts := []string{icon, dev.Name.String(), p.color(kind, style.Slate)}
		if dev.Initial != nil {
			parts = append(parts, fmt.Sprintf("initial=%v", dev.Initial))
		}
		if dev.Controller != "" {
			parts = append(parts, "controller="+dev.Controller)
		}
		p.line(1, parts...)

		writers := byPriority(cfg, cfg.Writers(dev.Name))
		switch {
		case len(writers) > 1:
			p.line(3, p.color(style.Warning, style.Yellow), "contended by", joinNames(writers))
		case len(writers) == 1:
			p.line(3, style.Arrow, "written by", writers[0].String())
		case len(cfg.Bound(dev.Name)) == 0:
			p.line(3, p.color(style.Warning, style.Yellow), "unbound")
		}
	}

	p.line(0, p.bold(fmt.Sprintf("tasks (%d)", cfg.TaskCount())))
	for task := range cfg.Tasks() {
		body := task.Body.Kind
		if body == "" {
			body = "identity"
		}
		p.line(1, p.color(style.Dot, style.Green), task.Name.String(),
			p.color(fmt.Sprintf("priority=%d body=%s", taskPriority(&task), body), style.Slate))

		for _, b := range task.Bindings {
			parts := []string{bindingMode(b), b.Device.String()}
			if b.Overwrite != domain.OverwriteQueue {
				parts = append(parts, p.color("overwrite="+string(b.Overwrite), style.Slate))
			}
			if b.NoYield {
				parts = append(parts, p.color("yield=false", style.Slate))
			}
			p.line(3, parts...)
		}

		for _, rule := range task.Triggers {
			p.line(3, "trigger", rule.ID, joinNames(rule.Devices), fmt.Sprintf("priority=%d", rule.Priority))
		}
		if inputs := task.Inputs(); len(inputs) > 0 {
			p.line(3, "trigger", domain.AllInputsTriggerID, joinNames(inputs),
				fmt.Sprintf("priority=%d", taskPriority(&task)))
		}
	}

	_, err := io.WriteString(w, p.b.String())
	return err
}

// byPriority orders tasks the way contending claims are served: highest task priority first.
func byPriority(cfg *domain.Config, tasks []domain.InternedString) []domain.InternedString {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b domain.InternedString) int {
		ta, _ := cfg.Task(a)
		tb, _ := cfg.Task(b)
		return cmp.Compare(taskPriority(&tb), taskPriority(&ta))
	})
	return out
}

func taskPriority(t *domain.Task) int {
	if t.Priority <= 0 {
		return domain.DefaultTriggerPriority
	}
	return t.Priority
}

func bindingMode(b domain.Binding) string {
	switch {
	case b.Read && b.Write:
		return "rw"
	case b.Write:
		return "w "
	default:
		return "r "
	}
}

func joinNames(names []domain.InternedString) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
