package config

import (
	"os"
	"strings"
)

// normalize expands path fields and applies environment overrides before
// validation runs.
func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return err
	}
	c.Paths.DataDir = expanded

	expanded, err = expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = expanded

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	// SMTP credentials may come from the environment (or a .env file loaded
	// by main) instead of being committed to the config file.
	if value := strings.TrimSpace(os.Getenv("PHARMATRACK_SMTP_USERNAME")); value != "" {
		c.SMTP.Username = value
	}
	if value := strings.TrimSpace(os.Getenv("PHARMATRACK_SMTP_PASSWORD")); value != "" {
		c.SMTP.Password = value
	}

	c.Tracker.SheetName = strings.TrimSpace(c.Tracker.SheetName)
	c.Tracker.ProductColumn = strings.TrimSpace(c.Tracker.ProductColumn)
	c.Tracker.CommentColumn = strings.TrimSpace(c.Tracker.CommentColumn)

	for i := range c.Customers {
		c.Customers[i].Name = strings.TrimSpace(c.Customers[i].Name)
		c.Customers[i].Extractor = strings.ToLower(strings.TrimSpace(c.Customers[i].Extractor))
	}

	salts := make([]string, 0, len(c.ExcludedSalts))
	for _, salt := range c.ExcludedSalts {
		if trimmed := strings.TrimSpace(salt); trimmed != "" {
			salts = append(salts, trimmed)
		}
	}
	c.ExcludedSalts = salts

	return nil
}
