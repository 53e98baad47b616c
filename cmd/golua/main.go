package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"lua/interpreter-go/pkg/ast"
	"lua/interpreter-go/pkg/driver"
	"lua/interpreter-go/pkg/interp"
	"lua/interpreter-go/pkg/logging"
	"lua/interpreter-go/pkg/stdlib"
)

const cliToolVersion = "golua 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		return runEntry(args)
	}
}

// runEntry loads and evaluates a decoded AST file. Lexing and parsing
// Lua source text are out of scope here: the entry argument names a
// JSON document already shaped like the ast package's node
// vocabulary, the same boundary the test fixtures cross.
func runEntry(args []string) int {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	manifestPath := flags.String("manifest", "", "path to lua.yml (optional; no manifest is loaded when omitted)")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rest := flags.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "golua run requires exactly one entry file")
		return 1
	}
	entry := rest[0]

	logger := logging.New()

	var manifest *driver.Manifest
	if *manifestPath != "" {
		m, err := driver.LoadManifest(*manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		manifest = m
	}
	if manifest != nil {
		logger.Info("loaded manifest", "name", manifest.Name, "entry", manifest.Entry)
	}

	block, err := loadBlock(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", entry, err)
		return 1
	}

	ip := interp.New()
	stdlib.Register(ip, ip.Global)

	results, err := ip.Run(block)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		return 1
	}
	for _, v := range results {
		fmt.Fprintln(os.Stdout, stdlib.ToDisplayString(v))
	}
	return 0
}

func loadBlock(path string) (*ast.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ast.DecodeBlock(raw)
}

func runDeps(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: golua deps install|update")
		return 1
	}
	switch args[0] {
	case "install", "update":
		return runDepsInstall(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown deps subcommand %q\n", args[0])
		return 1
	}
}

func runDepsInstall(args []string) int {
	flags := pflag.NewFlagSet("deps", pflag.ContinueOnError)
	manifestPath := flags.String("manifest", "lua.yml", "path to the project manifest")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := logging.New()

	manifest, err := driver.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}

	cacheDir, err := resolveCacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	lock, err := driver.InstallDependencies(manifest, cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to install dependencies: %v\n", err)
		return 1
	}

	lockPath := filepath.Join(filepath.Dir(manifest.Path), "lua.lock")
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write lockfile: %v\n", err)
		return 1
	}

	logger.Info("dependencies installed", "count", len(lock.Packages), "lockfile", lockPath)
	return 0
}

// resolveCacheDir: an explicit env var wins, otherwise the cache
// lives under the user's home directory.
func resolveCacheDir() (string, error) {
	if env := os.Getenv("GOLUA_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return filepath.Join(home, ".golua"), nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  golua run <entry.ast.json> [--manifest lua.yml]")
	fmt.Fprintln(os.Stderr, "  golua deps install [--manifest lua.yml]")
	fmt.Fprintln(os.Stderr, "  golua deps update [--manifest lua.yml]")
}
