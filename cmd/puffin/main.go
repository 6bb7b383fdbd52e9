package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rafibayer/puffin/internal/evaluator"
	"github.com/rafibayer/puffin/internal/lexer"
	"github.com/rafibayer/puffin/internal/object"
	"github.com/rafibayer/puffin/internal/parser"
	"github.com/rafibayer/puffin/internal/repl"
	"github.com/rafibayer/puffin/internal/util"
)

var (
	// Version is stamped at build time via -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config file override
	configPath string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
	// config file
	flag.StringVar(&configPath, "config", "", "Config file path (default $PUFFIN_HOME/puffin.toml)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	config := util.Configuration{
		Version:    Version,
		BuildDate:  BuildDate,
		Commit:     Commit,
		PuffinHome: os.Getenv("PUFFIN_HOME"),
		LogLevel:   logLevel,
		LogFile:    logFile,
	}
	if err := config.LoadFile(configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		}
	})

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config.LogFile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, loggerOptions)))

	if flag.NArg() == 0 {
		fmt.Printf("puffin v%s\n", Version)
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	os.Exit(runFile(flag.Arg(0)))
}

// runFile executes a program file and returns the process exit code. A
// non-null top-level return value is printed to stdout.
func runFile(filename string) int {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %s: %v\n", filename, err)
		return 1
	}

	l := lexer.New(string(source))
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		fmt.Fprintf(os.Stderr, "%s: parse errors:\n", filename)
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "\t%s\n", msg)
		}
		return 1
	}

	slog.Debug("running program",
		slog.String("file", filename),
		slog.Int("statements", len(program.Statements)))

	result, err := evaluator.Eval(program, evaluator.NewGlobalEnvironment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %s\n", err)
		return 1
	}
	if result != object.NULL {
		fmt.Println(result.Inspect())
	}
	return 0
}

func configureLogWriter(logFile string) *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	logWriter, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("puffin version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: puffin [options] [filename]

Options:
  -config <path>     Config file path. Default is $PUFFIN_HOME/puffin.toml.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the puffin programming language. Run without a filename to start
an interactive session.

Examples:
  puffin                        Start the interactive shell
  puffin -log-level=debug      Start with debug logging enabled
  puffin myfile.puf            Execute the provided puffin file

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
