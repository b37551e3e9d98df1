// Package workflow drives one master tracker update run end to end:
// staging, validation, per-customer processing, report generation, output
// routing and the final notification.
package workflow

import (
	"errors"
	"log/slog"

	"pharmatrack/internal/config"
	"pharmatrack/internal/customer"
	"pharmatrack/internal/logging"
	"pharmatrack/internal/notify"
	"pharmatrack/internal/report"
	"pharmatrack/internal/staging"
	"pharmatrack/internal/store"
	"pharmatrack/internal/textutil"
)

// ErrNothingToDo signals that no tracker or no customer files were present,
// so no run was started.
var ErrNothingToDo = errors.New("no tracker or customer files to process")

// Manager owns the run lifecycle. All state for an in-flight run lives in a
// runContext passed explicitly between phases.
type Manager struct {
	cfg      *config.Config
	store    *store.Store
	stager   *staging.Stager
	reports  *report.Generator
	notifier notify.Service
	logger   *slog.Logger
}

// NewManager wires a Manager from its dependencies. A nil logger is
// replaced with a no-op logger.
func NewManager(cfg *config.Config, st *store.Store, notifier notify.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		store:    st,
		stager:   staging.New(cfg, logger),
		reports:  report.New(st, cfg, logger),
		notifier: notifier,
		logger:   logging.WithComponent(logger, "workflow"),
	}
}

// runContext carries everything a single run needs. No phase reads shared
// or global state.
type runContext struct {
	run         *store.Run
	trackerPath string
	trackerName string
	salts       *textutil.SaltSet
	bindings    []*customer.Binding
	logger      *slog.Logger
}

// bindActiveCustomers resolves a binding for every active customer whose
// extractor is known. Unknown extractors are reported back so the caller
// can fail that customer when a file shows up for it.
func (m *Manager) bindActiveCustomers() ([]*customer.Binding, map[string]error) {
	var bindings []*customer.Binding
	unbound := make(map[string]error)
	for _, c := range m.cfg.ActiveCustomers() {
		binding, err := customer.Bind(c)
		if err != nil {
			unbound[c.Name] = err
			continue
		}
		bindings = append(bindings, binding)
	}
	return bindings, unbound
}
