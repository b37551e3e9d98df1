package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. All run-scoped directories are
// derived from DataDir so a single setting relocates the whole drop area.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Tracker describes the master tracker workbook layout.
type Tracker struct {
	SheetName       string   `toml:"sheet_name"`
	ProductColumn   string   `toml:"product_column"`
	CommentColumn   string   `toml:"comment_column"`
	CustomerColumns []string `toml:"customer_columns"`
	DefaultRemark   string   `toml:"default_remark"`
}

// Customer is one registry entry binding a customer to its extraction layout.
// HeaderStart is the 1-based workbook row where data rows begin; rows between
// the header and it (units or banner sub-rows) are skipped during extraction.
type Customer struct {
	ID          int64    `toml:"id"`
	Name        string   `toml:"name"`
	Extractor   string   `toml:"extractor"`
	SheetNames  []string `toml:"sheet_names"`
	HeaderStart int      `toml:"header_start"`
	Columns     []string `toml:"columns"`
	Active      bool     `toml:"active"`
}

// SMTP contains the notification transport settings. An empty Host disables
// notifications entirely (a noop service is used).
type SMTP struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	From           string `toml:"from"`
	SuccessTo      string `toml:"success_to"`
	SuccessCc      string `toml:"success_cc"`
	FailureTo      string `toml:"failure_to"`
	FailureCc      string `toml:"failure_cc"`
	SuccessSubject string `toml:"success_subject"`
	FailureSubject string `toml:"failure_subject"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pharmatrack.
type Config struct {
	Paths         Paths      `toml:"paths"`
	Tracker       Tracker    `toml:"tracker"`
	Customers     []Customer `toml:"customers"`
	ExcludedSalts []string   `toml:"excluded_salts"`
	SMTP          SMTP       `toml:"smtp"`
	Logging       Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pharmatrack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pharmatrack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// IntakeTrackerDir is where a new master tracker workbook is dropped.
func (c *Config) IntakeTrackerDir() string {
	return filepath.Join(c.Paths.DataDir, "Intake", "Tracker")
}

// CustomerIntakeRoot holds one drop directory per customer.
func (c *Config) CustomerIntakeRoot() string {
	return filepath.Join(c.Paths.DataDir, "Intake", "Customers")
}

// CustomerIntakeDir is where a customer's client workbook is dropped.
func (c *Config) CustomerIntakeDir(customerName string) string {
	return filepath.Join(c.CustomerIntakeRoot(), customerName)
}

// InProgressDir holds files for the run currently executing.
func (c *Config) InProgressDir() string {
	return filepath.Join(c.Paths.DataDir, "Staging", "InProgress")
}

// ProcessedDir is the terminal area for files of successful customers.
func (c *Config) ProcessedDir(runID int64) string {
	return filepath.Join(c.Paths.DataDir, "Staging", "Processed", strconv.FormatInt(runID, 10))
}

// FailedDir is the terminal area for files of failed customers and failed runs.
func (c *Config) FailedDir(runID int64) string {
	return filepath.Join(c.Paths.DataDir, "Staging", "Failed", strconv.FormatInt(runID, 10))
}

// OutputDir receives the generated reports and the published tracker.
func (c *Config) OutputDir(runID int64) string {
	return filepath.Join(c.Paths.DataDir, "Output", strconv.FormatInt(runID, 10))
}

// DatabasePath locates the embedded run database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pharmatrack.db")
}

// LockPath locates the single-flight run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pharmatrack.lock")
}

// EnsureDirectories creates the directories a run needs before touching any file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.IntakeTrackerDir(),
		c.InProgressDir(),
		c.CustomerIntakeRoot(),
		filepath.Join(c.Paths.DataDir, "Staging", "Processed"),
		filepath.Join(c.Paths.DataDir, "Staging", "Failed"),
		filepath.Join(c.Paths.DataDir, "Output"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ActiveCustomers returns registry entries flagged active, ordered by id.
func (c *Config) ActiveCustomers() []Customer {
	active := make([]Customer, 0, len(c.Customers))
	for _, customer := range c.Customers {
		if customer.Active {
			active = append(active, customer)
		}
	}
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].ID < active[j-1].ID; j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	return active
}

// RequiredTrackerColumns is the ordered column set the validator checks:
// product column, the configured business columns, then the comment column.
func (c *Config) RequiredTrackerColumns() []string {
	columns := make([]string, 0, len(c.Tracker.CustomerColumns)+2)
	columns = append(columns, c.Tracker.ProductColumn)
	columns = append(columns, c.Tracker.CustomerColumns...)
	columns = append(columns, c.Tracker.CommentColumn)
	return columns
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
