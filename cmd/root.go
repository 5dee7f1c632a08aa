package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/empd2/empd-admin/pkg/logger"
	"github.com/empd2/empd-admin/pkg/session"
)

var cfgFile string

// log is the shared command logger; initLogger adjusts its level from the
// --verbose/--debug flags before each command runs.
var log logger.Interface = logger.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "empd-admin",
	Short: "Administer contributions to the EMPD metadata",
	Long: `empd-admin validates, repairs, queries, and merges data
contributions to the EMPD metadata sheet.

A contribution is a tab-separated metadata file checked against the
declarative schema and the controlled-vocabulary lookup tables of the
data repository. Use the test, fix, query, accept, and finish commands
to work a contribution towards a clean merge into meta.tsv.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.empd-admin.yaml)")
	rootCmd.PersistentFlags().StringP("data", "d", ".", "path to the local data repository")
	rootCmd.PersistentFlags().String("meta", "meta.tsv", "working metadata file, relative to the data directory")
	rootCmd.PersistentFlags().String("schema", "schema.yaml", "schema file, relative to the data directory")
	rootCmd.PersistentFlags().String("lookups", "lookups", "lookup table directory, relative to the data directory")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("meta", rootCmd.PersistentFlags().Lookup("meta"))
	_ = viper.BindPFlag("schema", rootCmd.PersistentFlags().Lookup("schema"))
	_ = viper.BindPFlag("lookups", rootCmd.PersistentFlags().Lookup("lookups"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".empd-admin" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".empd-admin")
	}

	viper.SetEnvPrefix("empd")
	viper.AutomaticEnv() // read in environment variables that match

	// A missing config file is fine; flags and env carry the defaults.
	_ = viper.ReadInConfig()
}

// dataPath resolves a viper-configured path relative to the data directory.
func dataPath(key string) string {
	p := viper.GetString(key)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(viper.GetString("data"), p)
}

// metaPath is the path of the working contribution file.
func metaPath() string {
	return dataPath("meta")
}

// basePath is the path of the canonical base table.
func basePath() string {
	return filepath.Join(viper.GetString("data"), "meta.tsv")
}

// openSession loads lookups, schema, and the working table as configured.
func openSession() (*session.Session, error) {
	return session.Open(session.Config{
		MetaFile:   metaPath(),
		SchemaFile: dataPath("schema"),
		LookupDir:  dataPath("lookups"),
	})
}
