package cli

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ofview/ofview/internal/config"
	"github.com/ofview/ofview/internal/omniscript"
	"github.com/ofview/ofview/internal/perspective"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitInternal = 10
)

type GlobalFlags struct {
	Root      string
	JSON      bool
	Quiet     bool
	Verbose   bool
	ExportDir string
}

func Run(args []string) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}

	if len(rest) == 0 {
		printHelp()
		return ExitUsage
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	cfg, err := config.Load(gf.Root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ofview:", err)
		return ExitInternal
	}

	logger, err := newLogger(gf.Verbose || cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ofview:", err)
		return ExitInternal
	}
	defer func() { _ = logger.Sync() }()

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return ExitOK
	case "perspective", "p":
		return cmdPerspective(gf, cfg, logger, cmdArgs)
	case "link":
		return cmdLink(cmdArgs)
	case "script":
		return cmdScript(cmdArgs)
	case "config", "cfg":
		return cmdConfig(gf, cfg, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		return ExitUsage
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	lc := zap.NewProductionConfig()
	if verbose {
		lc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return lc.Build()
}

func printHelp() {
	fmt.Print(`ofview — render task perspectives as structured text

Usage:
  ofview [global flags] <command> [args]

Global flags:
  --root <path>    Config/export root (default: ~/.ofview or OFVIEW_ROOT)
  --json           Export the raw query result to <root>/exports
  --export-dir     Override export directory (default: <root>/exports)
  --quiet
  --verbose

Commands:
  perspective "<name>" [--hierarchy|--flat] [--limit N] [--all]
  link <task-id>
  script due "<task name>" <YYYY-MM-DD>
  config show
  config set <key> <value>

Config keys:
  defaults.hide_completed   bool   (default true)
  defaults.limit            int    (default 1000)
  defaults.group_by_project bool   (default true)
  defaults.show_hierarchy   bool   (default false)
  verbose                   bool
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	// Allow flags anywhere by scanning and stripping known globals.
	gf := GlobalFlags{}

	if env := os.Getenv("OFVIEW_ROOT"); env != "" {
		gf.Root = env
	} else {
		home, _ := os.UserHomeDir()
		if home != "" {
			gf.Root = filepath.Join(home, ".ofview")
		} else {
			gf.Root = ".ofview"
		}
	}

	out := make([]string, 0, len(args))
	skip := 0

	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch a {
		case "--root":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--root requires a value")
			}
			gf.Root = args[i+1]
			skip = 1
		case "--json":
			gf.JSON = true
		case "--export-dir":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--export-dir requires a value")
			}
			gf.ExportDir = args[i+1]
			skip = 1
		case "--quiet":
			gf.Quiet = true
		case "--verbose":
			gf.Verbose = true
		default:
			out = append(out, a)
		}
	}

	if gf.ExportDir == "" {
		gf.ExportDir = filepath.Join(gf.Root, "exports")
	}
	return gf, out, nil
}

func reorderFlags(args []string, takesValue map[string]bool) []string {
	if len(args) == 0 {
		return args
	}
	var flags []string
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				rest = append(rest, args[i+1:]...)
			}
			break
		}
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if takesValue[a] && !strings.Contains(a, "=") {
				if i+1 < len(args) {
					flags = append(flags, args[i+1])
					i++
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	return append(flags, rest...)
}

func cmdPerspective(gf GlobalFlags, cfg config.Config, logger *zap.Logger, args []string) int {
	args = reorderFlags(args, map[string]bool{
		"--limit":     true,
		"--all":       false,
		"--hierarchy": false,
		"--flat":      false,
	})
	fs := flag.NewFlagSet("perspective", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 0, "Max tasks to display (default from config)")
	all := fs.Bool("all", false, "Include completed tasks")
	hierarchy := fs.Bool("hierarchy", false, "Render the parent/child tree")
	flat := fs.Bool("flat", false, "Render a numbered flat list")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ofview perspective \"<name>\" [--hierarchy|--flat] [--limit N] [--all]")
		return ExitUsage
	}
	name := strings.TrimSpace(strings.Join(rest, " "))

	opts := cfg.Options()
	if *limit > 0 {
		opts.Limit = *limit
	}
	if *all {
		opts.HideCompleted = false
	}
	if *hierarchy {
		opts.ShowHierarchy = true
	}
	if *flat {
		opts.ShowHierarchy = false
		opts.GroupByProject = false
	}

	r := perspective.NewRenderer(&perspective.ScriptQuerier{}, logger)
	ctx := context.Background()

	if gf.JSON {
		result, err := r.Fetch(ctx, name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "perspective:", err)
			return ExitInternal
		}
		path, err := writeJSONExport(gf, "perspective", map[string]any{
			"perspective": name,
			"count":       result.Count,
			"tasks":       result.TaskMap.Tasks(),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "perspective:", err)
			return ExitInternal
		}
		if !gf.Quiet {
			fmt.Println("Wrote JSON to:", path)
		}
		return ExitOK
	}

	fmt.Println(r.Render(ctx, name, opts))
	return ExitOK
}

func cmdLink(args []string) int {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(os.Stderr, "Usage: ofview link <task-id>")
		return ExitUsage
	}
	fmt.Println(perspective.TaskLink(args[0]))
	return ExitOK
}

func cmdScript(args []string) int {
	if len(args) < 1 || args[0] != "due" {
		fmt.Fprintln(os.Stderr, "Usage: ofview script due \"<task name>\" <YYYY-MM-DD>")
		return ExitUsage
	}
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: ofview script due \"<task name>\" <YYYY-MM-DD>")
		return ExitUsage
	}
	date := args[len(args)-1]
	taskName := strings.Join(args[1:len(args)-1], " ")
	script, err := omniscript.DueDateScript(taskName, date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "script:", err)
		return ExitUsage
	}
	fmt.Println(script)
	return ExitOK
}

func cmdConfig(gf GlobalFlags, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ofview config <show|set> ...")
		return ExitUsage
	}
	switch args[0] {
	case "show":
		return cmdConfigShow(gf, cfg)
	case "set":
		return cmdConfigSet(gf, cfg, args[1:])
	default:
		fmt.Fprintln(os.Stderr, "Usage: ofview config <show|set> ...")
		return ExitUsage
	}
}

func cmdConfigShow(gf GlobalFlags, cfg config.Config) int {
	cfgPath := config.Path(gf.Root)
	_, err := os.Stat(cfgPath)
	exists := err == nil

	opts := cfg.Options()
	fmt.Println("Config")
	fmt.Println("  Root:", gf.Root)
	if exists {
		fmt.Println("  Config file:", cfgPath)
	} else {
		fmt.Println("  Config file:", cfgPath, "(not found; defaults shown)")
	}
	fmt.Println()
	fmt.Println("Render defaults:")
	fmt.Printf("  hide_completed: %t\n", opts.HideCompleted)
	fmt.Printf("  limit: %d\n", opts.Limit)
	fmt.Printf("  group_by_project: %t\n", opts.GroupByProject)
	fmt.Printf("  show_hierarchy: %t\n", opts.ShowHierarchy)
	fmt.Printf("  verbose: %t\n", cfg.Verbose)
	return ExitOK
}

func cmdConfigSet(gf GlobalFlags, cfg config.Config, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: ofview config set <key> <value>")
		return ExitUsage
	}
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(strings.Join(args[1:], " "))

	switch key {
	case "defaults.hide_completed":
		v, ok := parseBool(value)
		if !ok {
			return configSetInvalid(key, value)
		}
		cfg.Defaults.HideCompleted = &v
	case "defaults.limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return configSetInvalid(key, value)
		}
		cfg.Defaults.Limit = n
	case "defaults.group_by_project":
		v, ok := parseBool(value)
		if !ok {
			return configSetInvalid(key, value)
		}
		cfg.Defaults.GroupByProject = &v
	case "defaults.show_hierarchy":
		v, ok := parseBool(value)
		if !ok {
			return configSetInvalid(key, value)
		}
		cfg.Defaults.ShowHierarchy = v
	case "verbose":
		v, ok := parseBool(value)
		if !ok {
			return configSetInvalid(key, value)
		}
		cfg.Verbose = v
	default:
		fmt.Fprintln(os.Stderr, "Unknown config key:", key)
		fmt.Fprintln(os.Stderr, "Allowed keys: defaults.hide_completed, defaults.limit, defaults.group_by_project, defaults.show_hierarchy, verbose")
		return ExitUsage
	}

	if err := config.Save(gf.Root, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config set:", err)
		return ExitInternal
	}
	if !gf.Quiet {
		fmt.Printf("Updated %s\n", key)
	}
	return ExitOK
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func configSetInvalid(key, value string) int {
	fmt.Fprintf(os.Stderr, "Invalid value for %s: %q\n", key, value)
	return ExitUsage
}

func writeJSONExport(gf GlobalFlags, base string, payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return writeExportFile(gf.ExportDir, base, "json", data)
}

func writeExportFile(dir, base, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("export directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.%s", base, strings.ToLower(ulid.MustNew(ulid.Now(), rand.Reader).String()), ext)
	path := filepath.Join(dir, name)
	tmp := filepath.Join(dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
