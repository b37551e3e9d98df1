package config

const (
	defaultDataDir       = "~/.local/share/pharmatrack/data"
	defaultLogDir        = "~/.local/share/pharmatrack/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultSMTPPort      = 587
	defaultRemark        = "To be added in the Master Tracker"
	defaultTrackerSheet  = "Master Tracker"
	defaultProductColumn = "Product Name"
	defaultCommentColumn = "Comments"
)

// Default returns a Config populated with repository defaults. The customer
// registry defaults to the six known customer layouts; deployments override
// them in config.toml when a customer's workbook format changes.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Tracker: Tracker{
			SheetName:     defaultTrackerSheet,
			ProductColumn: defaultProductColumn,
			CommentColumn: defaultCommentColumn,
			CustomerColumns: []string{
				"Caplin", "Bells", "Relonchem", "Marksans USA", "Padagis USA", "Padagis Israel",
			},
			DefaultRemark: defaultRemark,
		},
		Customers: []Customer{
			{
				ID: 1, Name: "Caplin", Extractor: "caplin", Active: true,
				SheetNames: []string{"Products"}, HeaderStart: 2,
				Columns: []string{"S.No", "Product Name", "Strength", "Unit", "Active Ingredients", "Withdrawn Date"},
			},
			{
				ID: 2, Name: "Bells", Extractor: "bells", Active: true,
				SheetNames: []string{"Licences"}, HeaderStart: 2,
				Columns: []string{"S.No", "Active Ingredients", "Licence Status"},
			},
			{
				ID: 3, Name: "Relonchem", Extractor: "relonchem", Active: true,
				SheetNames: []string{"Products"}, HeaderStart: 2,
				Columns: []string{"S.No", "Active Ingredients", "Marketing Status"},
			},
			{
				ID: 4, Name: "Marksans USA", Extractor: "marksans_usa", Active: true,
				SheetNames: []string{"ANDA List"}, HeaderStart: 2,
				Columns: []string{"S.No", "Active Ingredients", "Approval Status", "Withdrawn Date"},
			},
			{
				ID: 5, Name: "Padagis USA", Extractor: "padagis_usa", Active: true,
				SheetNames: []string{"Own Products", "Contract Manufactured Products"}, HeaderStart: 2,
				Columns: []string{"S.No", "NDC No", "Product Name", "Status", "Comments"},
			},
			{
				ID: 6, Name: "Padagis Israel", Extractor: "padagis_israel", Active: true,
				SheetNames: []string{"Products"}, HeaderStart: 2,
				Columns: []string{"S.No", "Active Ingredients"},
			},
		},
		ExcludedSalts: []string{
			"Sodium", "Hydrochloride", "Sulfate", "Sulphate", "Phosphate",
			"Maleate", "Tartrate", "Citrate", "Mesylate", "Besylate",
		},
		SMTP: SMTP{
			Port:           defaultSMTPPort,
			SuccessSubject: "PharmaTrack - Master Tracker Update Completed",
			FailureSubject: "PharmaTrack - Master Tracker Update Failed",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
