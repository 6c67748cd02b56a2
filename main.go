package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/rezparse/internal/config"
	"github.com/ossyrian/rezparse/internal/logging"
	"github.com/ossyrian/rezparse/internal/parser"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:               "rezparse",
	Short:             "Inspect and extract REZ archives and PID images",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the archive header",
	RunE:  info,
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List every directory and file in the archive",
	RunE:  tree,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the archive into a directory",
	RunE:  extract,
}

var pidCmd = &cobra.Command{
	Use:   "pid",
	Short: "Convert a single PID image to PNG",
	RunE:  convertImage,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	flags.StringP("input", "i", "", "path to the .rez archive (or .pid image for pid)")
	flags.StringP("output", "o", "", "output directory (extract) or PNG file (pid)")
	flags.StringP("manifest", "m", "", "write a YAML manifest of extracted entries to this file")

	// images
	flags.Bool("convert-images", false, "write a PNG next to every extracted PID image")
	flags.String("palette", "", "768-byte palette for images without an embedded one")
	flags.Bool("apply-flip", false, "apply the image flip flags when exporting")
	flags.Int("scale", 1, "integer upscale factor for exported PNGs")

	// other opts
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	flags.String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")
	flags.Bool("dry-run", false, "decode without writing output (validation)")

	viper.BindPFlag("input", flags.Lookup("input"))
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("manifest", flags.Lookup("manifest"))
	viper.BindPFlag("convert_images", flags.Lookup("convert-images"))
	viper.BindPFlag("palette", flags.Lookup("palette"))
	viper.BindPFlag("apply_flip", flags.Lookup("apply-flip"))
	viper.BindPFlag("scale", flags.Lookup("scale"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_output_dir", flags.Lookup("log-output-dir"))
	viper.BindPFlag("dry_run", flags.Lookup("dry-run"))

	rootCmd.AddCommand(infoCmd, treeCmd, extractCmd, pidCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rezparse"))
		}
		viper.AddConfigPath("/etc/rezparse")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("REZPARSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup loads the configuration and logging shared by every command
func setup(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var err error
	logger, err = logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	if cfg.InputFile == "" {
		return errors.New(`required flag "input" not set`)
	}
	return nil
}

// openArchive creates a reader on the local filesystem and loads the
// configured input archive
func openArchive() (*parser.RezReader, error) {
	reader := parser.NewRezReader(afero.NewOsFs(), cfg, logger.With("file", cfg.InputFile))

	if cfg.PaletteFile != "" {
		if err := reader.LoadPalette(cfg.PaletteFile); err != nil {
			return nil, err
		}
	}

	if _, err := reader.Load(cfg.InputFile); err != nil {
		return nil, err
	}
	return reader, nil
}

func info(cmd *cobra.Command, args []string) error {
	reader := parser.NewRezReader(afero.NewOsFs(), cfg, logger.With("file", cfg.InputFile))
	h, err := reader.Load(cfg.InputFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "description:   %s\n", h.Description())
	fmt.Fprintf(out, "version:       %d\n", h.Version)
	fmt.Fprintf(out, "directory:     offset %d, size %d\n", h.DirOffset, h.DirSize)
	fmt.Fprintf(out, "datetime:      0x%08X\n", h.DateTime)
	fmt.Fprintf(out, "name limits:   dir %d, file %d\n", h.DirNameMax, h.FileNameMax)
	fmt.Fprintf(out, "opaque fields: %d %d %d\n", h.Unknown[0], h.Unknown[1], h.Reserved)
	return nil
}

func tree(cmd *cobra.Command, args []string) error {
	reader, err := openArchive()
	if err != nil {
		return err
	}
	return reader.Tree(cmd.OutOrStdout())
}

func extract(cmd *cobra.Command, args []string) error {
	if cfg.OutputPath == "" && !cfg.DryRun {
		return errors.New(`required flag "output" not set`)
	}

	reader, err := openArchive()
	if err != nil {
		return err
	}

	stats, err := reader.Extract(cfg.OutputPath)
	if err != nil {
		return err
	}
	if stats.ImageErrors > 0 {
		logger.Warn("some images could not be converted", "count", stats.ImageErrors)
	}
	return nil
}

func convertImage(cmd *cobra.Command, args []string) error {
	if cfg.OutputPath == "" && !cfg.DryRun {
		return errors.New(`required flag "output" not set`)
	}

	reader := parser.NewRezReader(afero.NewOsFs(), cfg, logger.With("file", cfg.InputFile))
	if cfg.PaletteFile != "" {
		if err := reader.LoadPalette(cfg.PaletteFile); err != nil {
			return err
		}
	}

	_, err := reader.ConvertImageFile(cfg.InputFile, cfg.OutputPath)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
