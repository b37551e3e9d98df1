package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateCustomers(); err != nil {
		return err
	}
	if err := c.validateSMTP(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTracker() error {
	if c.Tracker.SheetName == "" {
		return errors.New("tracker.sheet_name must be set")
	}
	if c.Tracker.ProductColumn == "" {
		return errors.New("tracker.product_column must be set")
	}
	if c.Tracker.CommentColumn == "" {
		return errors.New("tracker.comment_column must be set")
	}
	if strings.TrimSpace(c.Tracker.DefaultRemark) == "" {
		return errors.New("tracker.default_remark must be set")
	}
	return nil
}

func (c *Config) validateCustomers() error {
	seenIDs := make(map[int64]struct{}, len(c.Customers))
	seenNames := make(map[string]struct{}, len(c.Customers))
	for _, customer := range c.Customers {
		if customer.ID <= 0 {
			return fmt.Errorf("customers: id must be positive (customer %q)", customer.Name)
		}
		if customer.Name == "" {
			return fmt.Errorf("customers: name must be set (id %d)", customer.ID)
		}
		if strings.ContainsAny(customer.Name, `/\`) {
			return fmt.Errorf("customers: name %q must not contain path separators", customer.Name)
		}
		if customer.Extractor == "" {
			return fmt.Errorf("customers: extractor must be set (customer %q)", customer.Name)
		}
		if len(customer.SheetNames) == 0 {
			return fmt.Errorf("customers: sheet_names must include at least one sheet (customer %q)", customer.Name)
		}
		if customer.HeaderStart < 1 {
			return fmt.Errorf("customers: header_start must be >= 1 (customer %q)", customer.Name)
		}
		if len(customer.Columns) == 0 {
			return fmt.Errorf("customers: columns must include at least one column (customer %q)", customer.Name)
		}
		if _, dup := seenIDs[customer.ID]; dup {
			return fmt.Errorf("customers: duplicate id %d", customer.ID)
		}
		seenIDs[customer.ID] = struct{}{}
		key := strings.ToLower(customer.Name)
		if _, dup := seenNames[key]; dup {
			return fmt.Errorf("customers: duplicate name %q", customer.Name)
		}
		seenNames[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateSMTP() error {
	if strings.TrimSpace(c.SMTP.Host) == "" {
		return nil // notifications disabled
	}
	if c.SMTP.Port <= 0 {
		return errors.New("smtp.port must be positive when smtp.host is set")
	}
	if strings.TrimSpace(c.SMTP.From) == "" {
		return errors.New("smtp.from must be set when smtp.host is set")
	}
	if strings.TrimSpace(c.SMTP.SuccessTo) == "" {
		return errors.New("smtp.success_to must be set when smtp.host is set")
	}
	if strings.TrimSpace(c.SMTP.FailureTo) == "" {
		return errors.New("smtp.failure_to must be set when smtp.host is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
