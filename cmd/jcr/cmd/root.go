package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aweris/jcr"
	"github.com/aweris/jcr/internal/memstore"
)

var rootCmd = &cobra.Command{
	Use:   "jcr",
	Short: "Magnolia JCR REST client",
	Long:  "CLI for reading and writing content nodes through the Magnolia REST API.",

	SilenceUsage:      true,
	PersistentPostRun: reportDryRun,
}

// dryRunStore is set when --dry-run replaces the server with an in-memory store.
var dryRunStore *memstore.Store

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.config/jcr/config.yaml)")
	flags.String("base-url", "", "REST base URL, e.g. http://localhost:8080/.rest")
	flags.String("user", "", "basic auth user")
	flags.String("password", "", "basic auth password")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	flags.String("registry-user", "", "OCI registry user for --oci (default: docker keychain)")
	flags.String("registry-password", "", "OCI registry password for --oci")
	flags.Bool("dry-run", false, "send nothing; run against an empty in-memory store and print the requests")

	bindFlags()
}

func bindFlags() {
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("base_url", flags.Lookup("base-url"))
	viper.BindPFlag("user", flags.Lookup("user"))
	viper.BindPFlag("password", flags.Lookup("password"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("dry_run", flags.Lookup("dry-run"))
	viper.BindPFlag("registry.user", flags.Lookup("registry-user"))
	viper.BindPFlag("registry.password", flags.Lookup("registry-password"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("JCR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("depth", jcr.DefaultDepth)
	viper.SetDefault("include_metadata", jcr.DefaultIncludeMetadata)
	viper.SetDefault("exclude_node_types", []string{})
	viper.SetDefault("max_attempts", 3)
	viper.SetDefault("concurrency", jcr.DefaultConcurrency)
	viper.SetDefault("workspaces", []string{"website", "dam", "config"})
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jcr")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "jcr")
	}
	return ".jcr"
}

func newLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		level = zapcore.WarnLevel
	}

	var config zap.Config
	if viper.GetString("log_format") == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// newClient builds a client from the merged flags, environment and config file.
func newClient() (*jcr.Client, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	opts := []jcr.Option{
		jcr.WithLogger(log),
		jcr.WithDefaultDepth(viper.GetInt("depth")),
		jcr.WithDefaultMetadata(viper.GetBool("include_metadata")),
		jcr.WithDefaultExcludedNodeTypes(viper.GetStringSlice("exclude_node_types")...),
		jcr.WithTemplates(
			viper.GetString("templates.page"),
			viper.GetString("templates.area"),
			viper.GetString("templates.component"),
		),
		jcr.WithMaxAttempts(viper.GetInt("max_attempts")),
		jcr.WithConcurrency(viper.GetInt("concurrency")),
	}
	if viper.GetBool("dry_run") {
		dryRunStore = memstore.New(viper.GetStringSlice("workspaces")...)
		opts = append(opts, jcr.WithStore(dryRunStore))
	} else {
		opts = append(opts,
			jcr.WithBaseURL(viper.GetString("base_url")),
			jcr.WithCredentials(viper.GetString("user"), viper.GetString("password")),
		)
	}

	c, err := jcr.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, log, nil
}

func newSnapshotRegistry(ref string, log *zap.Logger) (*jcr.SnapshotRegistry, error) {
	opts := []jcr.RegistryOption{jcr.WithRegistryLogger(log)}
	if user := viper.GetString("registry.user"); user != "" {
		opts = append(opts, jcr.WithRegistryCredentials(user, viper.GetString("registry.password")))
	}
	return jcr.NewSnapshotRegistry(ref, opts...)
}

func reportDryRun(cmd *cobra.Command, args []string) {
	if dryRunStore == nil {
		return
	}
	for _, call := range dryRunStore.Calls() {
		fmt.Fprintf(cmd.ErrOrStderr(), "dry-run: %s %s\n", call.Op, call.Path)
	}
}
