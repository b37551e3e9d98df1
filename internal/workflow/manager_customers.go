package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"pharmatrack/internal/config"
	"pharmatrack/internal/customer"
	"pharmatrack/internal/extract"
	"pharmatrack/internal/logging"
)

// processCustomers walks the active registry in id order. Each customer is
// a bulkhead: its failure is recorded and its file routed to the failed
// area, and the loop moves on.
func (m *Manager) processCustomers(ctx context.Context, rc *runContext, unbound map[string]error) {
	bindingByName := make(map[string]*customer.Binding, len(rc.bindings))
	for _, binding := range rc.bindings {
		bindingByName[binding.Customer.Name] = binding
	}

	for _, c := range m.cfg.ActiveCustomers() {
		logger := rc.logger.With(logging.String(logging.FieldCustomer, c.Name))
		if err := m.processCustomer(ctx, rc, c, bindingByName[c.Name], unbound[c.Name], logger); err != nil {
			logger.Error("customer processing failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "customer_failed"),
			)
		}
	}
}

// processCustomer handles one customer file: locate, log, stage, extract,
// classify, persist, finalize. Customers without a dropped file are skipped
// without a log entry.
func (m *Manager) processCustomer(ctx context.Context, rc *runContext, c config.Customer, binding *customer.Binding, bindErr error, logger *slog.Logger) error {
	intakePath, found, err := m.stager.FindCustomerFile(c.Name)
	if err != nil {
		return err
	}
	if !found {
		logger.Info("no file dropped, skipping",
			logging.String(logging.FieldEventType, "customer_skipped"),
		)
		return nil
	}
	fileName := filepath.Base(intakePath)

	entry, err := m.store.BeginCustomerFile(ctx, rc.run.ID, c.ID, c.Name, fileName)
	if err != nil {
		return err
	}

	stagedPath := ""
	fail := func(cause error) error {
		message := fmt.Sprintf("Failed while processing %s customer - %s", c.Name, fileName)
		if err := m.store.FailCustomerFile(ctx, entry.ID, message); err != nil {
			logger.Error("failed to record customer failure", logging.Error(err))
		}
		source := stagedPath
		if source == "" {
			source = intakePath
		}
		if _, err := m.stager.FinalizeFailed(rc.run.ID, c.Name, source); err != nil {
			logger.Error("failed to move file to failed area", logging.Error(err))
		}
		return cause
	}

	stagedPath, err = m.stager.StageCustomerFile(c.Name, intakePath)
	if err != nil {
		stagedPath = ""
		return fail(err)
	}

	// A file for a customer with an unknown extractor fails that customer
	// only; the rest of the run continues.
	if binding == nil {
		if bindErr == nil {
			bindErr = fmt.Errorf("customer %q has no binding", c.Name)
		}
		return fail(bindErr)
	}

	wb, err := extract.OpenWorkbook(stagedPath)
	if err != nil {
		return fail(err)
	}
	records, err := binding.Process(wb, rc.salts, m.cfg.Tracker.DefaultRemark)
	closeErr := wb.Close()
	if err != nil {
		return fail(err)
	}
	if closeErr != nil {
		logger.Warn("workbook close failed", logging.Error(closeErr))
	}

	if err := m.store.ReplaceReportRecords(ctx, binding.Table, rc.run.ID, records); err != nil {
		return fail(err)
	}

	if _, err := m.stager.FinalizeProcessed(rc.run.ID, c.Name, stagedPath); err != nil {
		return fail(err)
	}
	if err := m.store.CompleteCustomerFile(ctx, entry.ID); err != nil {
		return err
	}

	logger.Info("customer processed",
		logging.String(logging.FieldFile, fileName),
		logging.Int("records", len(records)),
		logging.String(logging.FieldEventType, "customer_completed"),
	)
	return nil
}
