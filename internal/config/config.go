package config

// Config holds app configuration
type Config struct {
	// InputFile is the archive (tree, info, extract) or image (pid) to read
	InputFile string `mapstructure:"input"`

	// OutputPath is the extraction directory, or the PNG file for pid
	OutputPath string `mapstructure:"output"`

	// ManifestFile, if set, receives a YAML listing of everything extracted
	ManifestFile string `mapstructure:"manifest"`

	// PaletteFile is a 768-byte RGB palette used for images that do not
	// embed one. Without it such images are exported in grayscale.
	PaletteFile string `mapstructure:"palette"`

	ConvertImages bool `mapstructure:"convert_images"`
	ApplyFlip     bool `mapstructure:"apply_flip"`
	Scale         int  `mapstructure:"scale"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
