package config

const (
	defaultDataDir             = "~/.local/share/runnerdb"
	defaultLogDir              = "~/.local/share/runnerdb/logs"
	defaultExportDir           = "~/.local/share/runnerdb/exports"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultThreshold           = 80
	defaultBirthYearBonus      = 10
	defaultClubBonus           = 10
	defaultShortClubNameLength = 4
	defaultNationality         = "USA"
	defaultProgressInterval    = 250
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Similarity: Similarity{
			DefaultThreshold:    defaultThreshold,
			BirthYearBonus:      defaultBirthYearBonus,
			ClubBonus:           defaultClubBonus,
			Blocking:            true,
			ShortClubNameLength: defaultShortClubNameLength,
		},
		Import: Import{
			DefaultNationality: defaultNationality,
			ProgressInterval:   defaultProgressInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
