package runtime

import (
	"fmt"
	"log/slog"
)

// App bundles a flow registry with the engine that runs them.
type App struct {
	Flows  map[string]*Flow
	Engine *Engine
	l      *slog.Logger
}

// NewApp loads all flow definitions from flowsDir and wires them to an
// engine. Flows that fail validation are rejected at startup; validation
// warnings are logged and the flow is kept.
func NewApp(flowsDir string, cfg EngineConfig, executor NodeExecutor, l *slog.Logger) (*App, error) {
	flows, err := LoadFlows(flowsDir)
	if err != nil {
		return nil, err
	}

	app := &App{
		Flows:  flows,
		Engine: NewEngine(cfg, executor, l),
		l:      l,
	}

	for id, flow := range flows {
		result := ValidateFlow(flow)
		if !result.Valid {
			return nil, fmt.Errorf("flow %s failed validation: %v", id, result.Errors)
		}
		for _, w := range result.Warnings {
			l.Warn("flow validation warning", "flow", id, "warning", w)
		}
	}
	return app, nil
}

// RegisterFlow adds or replaces a flow definition at runtime. The flow must
// pass validation.
func (a *App) RegisterFlow(flow *Flow) error {
	result := ValidateFlow(flow)
	if !result.Valid {
		return fmt.Errorf("flow %s failed validation: %v", flow.ID, result.Errors)
	}
	a.Flows[flow.ID] = flow
	return nil
}

// Flow returns a registered flow, or nil.
func (a *App) Flow(id string) *Flow {
	return a.Flows[id]
}
