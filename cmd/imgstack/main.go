package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/imgstack/internal/config"
	"git.home.luguber.info/inful/imgstack/internal/daemon"
	"git.home.luguber.info/inful/imgstack/internal/frontmatter"
	"git.home.luguber.info/inful/imgstack/internal/logfields"
	"git.home.luguber.info/inful/imgstack/internal/markdown"
	"git.home.luguber.info/inful/imgstack/internal/stack"
	"git.home.luguber.info/inful/imgstack/internal/vault"
	"git.home.luguber.info/inful/imgstack/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"imgstack.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Stack struct {
		Locator    string   `arg:"" help:"Reference locator (path, app:// URI, URL or data URI)"`
		File       string   `short:"f" help:"Vault-relative note path (resolved from the reference when omitted)"`
		Class      []string `help:"Element class list, for excalidraw embed detection"`
		FileSource string   `help:"Excalidraw filesource side attribute"`
	} `cmd:"" help:"Merge the consecutive image lines around a reference into one line"`

	Unstack struct {
		Locator string `arg:"" help:"Reference locator identifying the merged line"`
		File    string `short:"f" help:"Vault-relative note path (resolved from the reference when omitted)"`
		Indent  string `help:"Leading indentation to re-apply to each expanded line"`
	} `cmd:"" help:"Split a merged image line back into one reference per line"`

	Scan struct {
		Path string `arg:"" optional:"" help:"Note to scan (whole vault when omitted)"`
	} `cmd:"" help:"List image references and stackable blocks"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a default configuration file"`

	Daemon struct{} `cmd:"" help:"Run the IPC daemon with vault index and normalize sweep"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "version":
		fmt.Printf("imgstack %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging, CLI.Verbose)

	switch ctx.Command() {
	case "stack <locator>":
		ref := stack.TargetRef{
			Locator:    CLI.Stack.Locator,
			Classes:    CLI.Stack.Class,
			FileSource: CLI.Stack.FileSource,
		}
		err = runTransform(cfg, stack.OpStack, CLI.Stack.File, ref)
	case "unstack <locator>":
		ref := stack.TargetRef{
			Locator: CLI.Unstack.Locator,
			Indent:  CLI.Unstack.Indent,
		}
		err = runTransform(cfg, stack.OpUnstack, CLI.Unstack.File, ref)
	case "scan", "scan <path>":
		err = runScan(cfg, CLI.Scan.Path)
	case "daemon":
		err = runDaemon(cfg)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(config.DefaultYAML), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runTransform(cfg *config.Config, op stack.Op, file string, ref stack.TargetRef) error {
	v, err := vault.New(cfg.Vault)
	if err != nil {
		return err
	}

	key, err := stack.SearchKey(ref)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if file == "" {
		file, err = v.FindOwner(ctx, key)
		if err != nil {
			return err
		}
	}

	changed := false
	err = v.Process(ctx, file, func(current string) (string, error) {
		next, didChange, applyErr := stack.Apply(current, op, ref, cfg.StackMode())
		if applyErr != nil {
			return "", applyErr
		}
		changed = didChange
		return next, nil
	})
	if err != nil {
		return err
	}

	if changed {
		slog.Info("Transform applied", logfields.Op(string(op)), logfields.File(file), logfields.SearchKey(key))
	} else {
		slog.Info("Nothing to do", logfields.Op(string(op)), logfields.File(file), logfields.SearchKey(key))
	}
	return nil
}

func runScan(cfg *config.Config, path string) error {
	v, err := vault.New(cfg.Vault)
	if err != nil {
		return err
	}

	notes := []string{path}
	if path == "" {
		notes, err = listNotes(v.Root())
		if err != nil {
			return err
		}
	}

	for _, rel := range notes {
		content, err := v.Read(rel)
		if err != nil {
			return err
		}
		reportScan(rel, content, cfg.StackMode())
	}
	return nil
}

func reportScan(rel, content string, mode stack.Mode) {
	_, body, _ := frontmatter.Split([]byte(content))
	refs := markdown.ExtractImages(body)
	if len(refs) == 0 {
		return
	}

	fmt.Printf("%s: %d image reference(s)\n", rel, len(refs))
	for _, b := range markdown.StackableBlocks(string(body), mode) {
		fmt.Printf("  line %d: stackable block of %d\n", b.StartLine, len(b.Refs))
	}
}

func listNotes(root string) ([]string, error) {
	var notes []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		notes = append(notes, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}
	return notes, nil
}

func runDaemon(cfg *config.Config) error {
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting imgstack daemon",
		logfields.Vault(cfg.Vault),
		logfields.Mode(cfg.Mode),
		slog.String("listen", cfg.Daemon.Listen))
	return d.Run(ctx)
}
