package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	showcase "github.com/goliatone/go-showcase"
	"github.com/goliatone/go-showcase/internal/runtimeconfig"
)

// Globals carries the writers shared by every command.
type Globals struct {
	Out io.Writer
	Err io.Writer
}

// CLI defines the global flags and subcommands.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path." type:"path"`
	Packages  string `short:"p" help:"Packages directory, overrides the configuration."`
	LogLevel  string `name:"log-level" help:"Log level (trace, debug, info, warn, error)."`
	LogFormat string `name:"log-format" help:"Log format (json, console)."`

	Serve    ServeCmd    `cmd:"" help:"Serve package previews over HTTP."`
	List     ListCmd     `cmd:"" help:"List the packages found in the packages directory."`
	Validate ValidateCmd `cmd:"" help:"Validate package manifests against their schemas."`
	Render   RenderCmd   `cmd:"" help:"Render one preview path and print the document."`
	Warm     WarmCmd     `cmd:"" help:"Materialize package catalogs ahead of traffic."`
}

// errIssuesFound signals a validation run that reported problems.
var errIssuesFound = errors.New("manifest validation reported issues")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("showcase"),
		kong.Description("Preview server for exported site packages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Bind(&cli),
	)
	if err != nil {
		fmt.Fprintf(stderr, "showcase: %v\n", err)
		return 2
	}

	ctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "showcase: %v\n", err)
		return 2
	}

	if err := ctx.Run(&Globals{Out: stdout, Err: stderr}); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintf(stderr, "showcase: %v\n", err)
		}
		return 1
	}
	return 0
}

// LoadConfig resolves the configuration: dotenv files, then the YAML file,
// then SHOWCASE_* variables, then command line flags.
func (c *CLI) LoadConfig() (showcase.Config, error) {
	if err := runtimeconfig.LoadEnvFiles(); err != nil {
		return showcase.Config{}, err
	}
	cfg, err := showcase.LoadConfig(c.Config)
	if err != nil {
		return showcase.Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return showcase.Config{}, err
	}
	if dir := strings.TrimSpace(c.Packages); dir != "" {
		cfg.Packages.BaseDir = dir
	}
	if level := strings.TrimSpace(c.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := strings.TrimSpace(c.LogFormat); format != "" {
		cfg.Logging.Format = format
	}
	return cfg, nil
}

// Module builds the runtime module from the resolved configuration.
func (c *CLI) Module(mutate ...func(*showcase.Config)) (*showcase.Module, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return showcase.New(cfg)
}
