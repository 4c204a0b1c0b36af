package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/kvit-s/patchfix/internal/apply"
	"github.com/kvit-s/patchfix/internal/config"
	"github.com/kvit-s/patchfix/internal/diff"
	"github.com/kvit-s/patchfix/internal/logging"
	"github.com/kvit-s/patchfix/internal/ui"
)

// Version info set by ldflags at build time
var (
	version    = "dev"
	commitHash = "dev"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	dir := pflag.StringP("dir", "C", "", "working tree to apply the diff to (overrides config)")
	logFile := pflag.String("log", "", "log file path (overrides config, empty to disable)")
	check := pflag.Bool("check", false, "only run the dry-run check, write nothing")
	noFallback := pflag.Bool("no-fallback", false, "disable the internal fallback strategies")
	quiet := pflag.BoolP("quiet", "q", false, "suppress all output except errors")
	verbose := pflag.BoolP("verbose", "v", false, "print the diff of every fallback write")
	showVersion := pflag.Bool("version", false, "show version information and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("patchfix %s-%s\n", version, commitHash)
		return
	}

	_ = godotenv.Load()

	out := ui.NewWriter(*quiet)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			out.Error("load config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dir != "" {
		cfg.Workspace.Root = *dir
	}
	if *logFile != "" {
		cfg.Log.Path = *logFile
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Development)
	if err != nil {
		out.Error("open log: %v", err)
		os.Exit(1)
	}
	defer logger.Close()

	raw, err := readInput(pflag.Arg(0))
	if err != nil {
		out.Error("read input: %v", err)
		os.Exit(1)
	}

	if !diff.LooksLikeDiff(raw) {
		out.Error("input does not look like a unified diff")
		os.Exit(2)
	}

	tool := apply.NewGitApply(cfg.Apply.GitBinary, cfg.Timeout())
	fallback := cfg.FallbackEnabled() && !*noFallback
	driver := apply.NewDriver(tool, logger, fallback)
	ctx := context.Background()

	if *check {
		ok, res, err := driver.Check(ctx, cfg.Workspace.Root, raw)
		if err != nil {
			out.Error("%v", err)
			os.Exit(1)
		}
		if !ok {
			out.Warn("patch would not apply cleanly:\n%s", strings.TrimSpace(res.Stdout+"\n"+res.Stderr))
			os.Exit(1)
		}
		out.Success("patch applies cleanly")
		return
	}

	result, err := driver.Apply(ctx, cfg.Workspace.Root, raw)
	if err != nil {
		out.Error("%v", err)
		os.Exit(1)
	}

	if result.FallbackUsed {
		out.Warn("external tool rejected the patch; recovered via %s strategy", result.Strategy)
	}
	for _, f := range result.Files {
		out.Info("wrote %s", f)
	}
	if *verbose {
		for _, d := range result.Diffs {
			out.Plain("%s", d)
		}
	}
	out.Success("applied %d file(s)", len(result.Files))
}

// readInput reads the diff from the named file, or from stdin when the
// argument is empty or "-".
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
