// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the web2llm CLI. It converts one web
// page, GitHub repository, local folder or PDF into a Markdown document
// ready for an LLM context window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/web2llm/internal/pipeline"
	"github.com/pdiddy/web2llm/internal/secrets"
	"github.com/pdiddy/web2llm/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts the resource named by its single argument.
var rootCmd = &cobra.Command{
	Use:   "web2llm <resource>",
	Short: "Convert web pages, repositories, folders and PDFs into LLM-ready Markdown",
	Long: `web2llm turns one resource into a single Markdown document with YAML front
matter. The resource may be a web page URL (an #anchor narrows extraction to
that section), a GitHub repository URL (optionally /tree/<branch>/<path>), a
local directory, or a PDF given as a path or URL. arXiv PDFs are enriched
with the abstract page metadata.

Output goes to <output-dir>/<name>/<name>.md with a <name>_context.json
summary next to it, or to stdout with --stdout.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScrape,
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging()
	}
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./web2llm.yaml or ~/.config/web2llm/web2llm.yaml)")
	pf.BoolP("verbose", "v", false, "log debug output")
	pf.BoolP("quiet", "q", false, "log warnings and errors only")

	f := rootCmd.Flags()
	f.StringP("output", "o", "", "base name of the output files (default: derived from the resource)")
	f.String("output-dir", "", "parent directory for output (default \"output\")")
	f.StringSlice("include-dirs", nil, "only include files under these directories (globs allowed)")
	f.StringSlice("exclude-dirs", nil, "exclude files under these directories (globs allowed)")
	f.StringSlice("include-ext", nil, "only include files with these extensions")
	f.StringSlice("exclude-ext", nil, "exclude files with these extensions")
	f.Int64("max-file-size", 0, "skip files larger than this many bytes (default 1MiB)")
	f.String("render", "", "web page renderer: static or chrome (default static)")
	f.Bool("wait-network-idle", false, "with --render chrome, wait for network idle before reading the page")
	f.Duration("timeout", 0, "timeout for each network request and page render")
	f.String("cache", "", "SQLite file caching HTTP responses for 24h")
	f.StringSlice("selector", nil, "CSS selectors for the main content, tried in order")
	f.Bool("no-probe", false, "do not send HEAD requests to detect PDFs served without a .pdf suffix")
	f.Bool("no-context", false, "do not write the <name>_context.json summary")
	f.Bool("stdout", false, "write the Markdown to stdout instead of the output directory")

	bindFlag("output.dir", "output-dir")
	bindFlag("extraction.include_dirs", "include-dirs")
	bindFlag("extraction.exclude_dirs", "exclude-dirs")
	bindFlag("extraction.include_extensions", "include-ext")
	bindFlag("extraction.exclude_extensions", "exclude-ext")
	bindFlag("extraction.max_file_size_bytes", "max-file-size")
	bindFlag("render.mode", "render")
	bindFlag("render.wait_network_idle", "wait-network-idle")
	bindFlag("http.timeout", "timeout")
	bindFlag("http.cache_path", "cache")
	bindFlag("selectors", "selector")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("web2llm")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "web2llm"))
		}
	}

	setDefaults(types.DefaultPipelineConfig())

	viper.SetEnvPrefix("WEB2LLM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

// setDefaults registers every configuration key so that environment
// variables and config files can override it.
func setDefaults(d types.PipelineConfig) {
	viper.SetDefault("http.timeout", d.HTTP.Timeout)
	viper.SetDefault("http.user_agent", d.HTTP.UserAgent)
	viper.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	viper.SetDefault("http.cache_path", d.HTTP.CachePath)
	viper.SetDefault("extraction.include_dirs", d.Extraction.IncludeDirs)
	viper.SetDefault("extraction.exclude_dirs", d.Extraction.ExcludeDirs)
	viper.SetDefault("extraction.include_extensions", d.Extraction.IncludeExtensions)
	viper.SetDefault("extraction.exclude_extensions", d.Extraction.ExcludeExtensions)
	viper.SetDefault("extraction.max_file_size_bytes", d.Extraction.MaxFileSizeBytes)
	viper.SetDefault("render.mode", string(d.Render.Mode))
	viper.SetDefault("render.wait_network_idle", d.Render.WaitNetworkIdle)
	viper.SetDefault("render.settle_delay", d.Render.SettleDelay)
	viper.SetDefault("render.timeout", d.Render.Timeout)
	viper.SetDefault("classify.probe_content_type", d.Classify.ProbeContentType)
	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.write_context", d.Output.WriteContext)
	viper.SetDefault("github_token", "")
	viper.SetDefault("selectors", []string{})
}

// loadConfig decodes the effective configuration and applies the flags
// that do not map one-to-one onto a key.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Render.Timeout = cfg.HTTP.Timeout
	}
	if noProbe, _ := cmd.Flags().GetBool("no-probe"); noProbe {
		cfg.Classify.ProbeContentType = false
	}
	if noContext, _ := cmd.Flags().GetBool("no-context"); noContext {
		cfg.Output.WriteContext = false
	}
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = secrets.GitHubToken(secrets.DefaultDir)
	}
	return cfg, nil
}

func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	quiet, _ := rootCmd.PersistentFlags().GetBool("quiet")
	switch {
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := newProgress(quiet)
	defer progress.stop()

	p, err := pipeline.New(cfg, pipeline.WithProgress(progress.stage))
	if err != nil {
		return err
	}
	defer p.Close()

	name, _ := cmd.Flags().GetString("output")
	req := pipeline.Request{
		Reference:     args[0],
		Name:          name,
		MainSelectors: viper.GetStringSlice("selectors"),
	}
	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		req.Stdout = cmd.OutOrStdout()
	}

	res, err := p.Run(ctx, req)
	progress.stop()
	if err != nil {
		return err
	}

	if req.Stdout == nil {
		fmt.Fprintln(cmd.OutOrStdout(), res.Paths.Markdown)
	}
	return nil
}

// progress shows a spinner on stderr naming the running stage.
type progress struct {
	s *spinner.Spinner
}

func newProgress(quiet bool) *progress {
	if quiet {
		return &progress{}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	return &progress{s: s}
}

func (p *progress) stage(name string) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = " " + name
	p.s.Unlock()
	if !p.s.Active() {
		p.s.Start()
	}
}

func (p *progress) stop() {
	if p.s != nil && p.s.Active() {
		p.s.Stop()
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("web2llm failed")
		os.Exit(1)
	}
}
