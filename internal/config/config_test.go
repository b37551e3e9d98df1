package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q

[tracker]
sheet_name = "Tracker 2026"

[logging]
level = "DEBUG"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Tracker.SheetName != "Tracker 2026" {
		t.Fatalf("sheet name = %q", cfg.Tracker.SheetName)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not lowercased: %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Customers) != 6 {
		t.Fatalf("customers = %d", len(cfg.Customers))
	}
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n\n[logging]\nformat = \"xml\"\n",
		filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestValidateRejectsDuplicateCustomers(t *testing.T) {
	cfg := Default()
	cfg.Customers = append(cfg.Customers, Customer{
		ID: 1, Name: "Duplicate", Extractor: "caplin",
		SheetNames: []string{"Products"}, HeaderStart: 2, Columns: []string{"S.No"},
	})
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestValidateRejectsPathSeparatorInName(t *testing.T) {
	cfg := Default()
	cfg.Customers[0].Name = "Cap/lin"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "path separators") {
		t.Fatalf("expected path separator error, got %v", err)
	}
}

func TestValidateSMTPRequiresRecipients(t *testing.T) {
	cfg := Default()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.From = "bot@example.com"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "success_to") {
		t.Fatalf("expected success_to error, got %v", err)
	}
}

func TestSMTPCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("PHARMATRACK_SMTP_USERNAME", "bot")
	t.Setenv("PHARMATRACK_SMTP_PASSWORD", "secret")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.SMTP.Username != "bot" || cfg.SMTP.Password != "secret" {
		t.Fatalf("smtp credentials = %q/%q", cfg.SMTP.Username, cfg.SMTP.Password)
	}
}

func TestActiveCustomersOrderedByID(t *testing.T) {
	cfg := Default()
	cfg.Customers[0].Active = false // Caplin out
	cfg.Customers[4].ID = 99        // Padagis USA last

	active := cfg.ActiveCustomers()
	if len(active) != 5 {
		t.Fatalf("active = %d", len(active))
	}
	for i := 1; i < len(active); i++ {
		if active[i].ID < active[i-1].ID {
			t.Fatalf("active customers out of order: %+v", active)
		}
	}
	if active[len(active)-1].Name != "Padagis USA" {
		t.Fatalf("last = %q", active[len(active)-1].Name)
	}
}

func TestRequiredTrackerColumnsOrder(t *testing.T) {
	cfg := Default()
	columns := cfg.RequiredTrackerColumns()
	if columns[0] != "Product Name" || columns[len(columns)-1] != "Comments" {
		t.Fatalf("columns = %v", columns)
	}
	if len(columns) != len(cfg.Tracker.CustomerColumns)+2 {
		t.Fatalf("column count = %d", len(columns))
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{
		cfg.IntakeTrackerDir(),
		cfg.CustomerIntakeRoot(),
		cfg.InProgressDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("missing directory %s: %v", dir, err)
		}
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config did not load: exists=%v err=%v", exists, err)
	}
}
