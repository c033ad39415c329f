package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/beadtree/pkg/config"
	"github.com/vanderheijden86/beadtree/pkg/loader"
	"github.com/vanderheijden86/beadtree/pkg/model"
	"github.com/vanderheijden86/beadtree/pkg/treemodel"
	"github.com/vanderheijden86/beadtree/pkg/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// envLogFile names the log file when -log is not given.
const envLogFile = "BT_LOG"

// isTerminal reports whether stdout is a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type options struct {
	help       bool
	version    bool
	beadsDir   string
	configPath string
	robotTree  bool
	noWatch    bool
	sortValues bool
	logFile    string
	initConfig bool
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("bt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.StringVar(&o.beadsDir, "beads-dir", "", "Path to a .beads directory (overrides discovery and BEADS_DIR)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default .bv/tree.yaml in the project root)")
	fs.BoolVar(&o.robotTree, "robot-tree", false, "Print the issue hierarchy as JSON and exit")
	fs.BoolVar(&o.noWatch, "no-watch", false, "Disable live reload")
	fs.BoolVar(&o.sortValues, "sort-values", false, "Pre-sort each reload so new siblings appear in order")
	fs.StringVar(&o.logFile, "log", "", "Write logs to this file (default .bv/bt.log, or $"+envLogFile+")")
	fs.BoolVar(&o.initConfig, "init-config", false, "Write a default config file and exit")
	err := fs.Parse(args)
	return o, fs, err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: bt [options]")
		fmt.Fprintln(stdout, "\nA live tree browser for beads issues, nested by parent-child dependencies.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "bt %s\n", version)
		return 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "Error getting current directory: %v\n", err)
		return 1
	}
	projectRoot, inProject := config.DetectCurrentProject()
	if !inProject {
		projectRoot = cwd
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.Path(projectRoot)
	}

	if opts.initConfig {
		if err := initConfig(cfgPath, projectRoot); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", cfgPath)
		return 0
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg.ApplyEnv()
	if opts.beadsDir != "" {
		cfg.BeadsDir = opts.beadsDir
	}
	if opts.sortValues {
		cfg.SortValues = true
	}

	src, err := resolveSource(cfg, cwd, projectRoot, inProject)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	issues, err := src.load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error loading issues: %v\n", err)
		return 1
	}
	snapshot := ui.NewSnapshotBuilder(issues).Build()
	for _, cycle := range snapshot.Cycles {
		fmt.Fprintf(stderr, "warning: parent-child cycle: %s\n", strings.Join(cycle, " → "))
	}

	if opts.robotTree {
		if err := writeRobotTree(stdout, issues, snapshot.Cycles, cfg.SortValues); err != nil {
			fmt.Fprintf(stderr, "Error encoding tree: %v\n", err)
			return 1
		}
		return 0
	}

	if !isTerminal() {
		fmt.Fprintln(stderr, "Error: bt needs a terminal; use -robot-tree for JSON output")
		return 1
	}

	closeLog, err := redirectLog(opts.logFile, projectRoot, inProject)
	if err != nil {
		fmt.Fprintf(stderr, "warning: logging disabled: %v\n", err)
	}
	defer closeLog()

	return runTUI(snapshot, src, cfg, opts.noWatch, stderr)
}

func runTUI(snapshot *ui.DataSnapshot, src source, cfg config.Config, noWatch bool, stderr io.Writer) int {
	// The worker sends to the program, which does not exist yet.
	var p *tea.Program
	var worker *ui.BackgroundWorker
	if !noWatch {
		w, err := ui.NewBackgroundWorker(ui.WorkerConfig{
			BeadsPath:     src.path,
			Sources:       src.repos,
			DebounceDelay: cfg.Debounce,
			Send: func(msg tea.Msg) {
				if p != nil {
					p.Send(msg)
				}
			},
		})
		if err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		} else {
			worker = w
		}
	}

	m := ui.NewModel(snapshot, ui.ModelConfig{
		Worker:      worker,
		ExpandDepth: cfg.ExpandDepth,
		SortValues:  cfg.SortValues,
	})
	p = tea.NewProgram(m, tea.WithAltScreen())

	if worker != nil {
		if err := worker.Start(); err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		}
		defer worker.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(stderr, "Error running bt: %v\n", err)
		return 1
	}
	return 0
}

// source is where issues come from: one JSONL file or several projects.
type source struct {
	path  string
	repos []loader.RepoSource
}

func (s source) load(ctx context.Context) ([]model.Issue, error) {
	if len(s.repos) > 0 {
		return loader.LoadIssuesFromDirs(ctx, s.repos)
	}
	return loader.LoadIssuesFromFile(s.path)
}

// resolveSource picks multi-repo mode when the config lists or discovers
// repos, and the single nearest .beads directory otherwise.
func resolveSource(cfg config.Config, cwd, projectRoot string, inProject bool) (source, error) {
	if repos := config.DiscoverRepos(cfg); len(repos) > 0 && cfg.BeadsDir == "" {
		var out []loader.RepoSource
		seen := make(map[string]bool)
		if inProject {
			out = append(out, loader.RepoSource{Name: filepath.Base(projectRoot), Path: projectRoot})
			seen[projectRoot] = true
		}
		for _, r := range repos {
			p := r.ResolvedPath()
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, loader.RepoSource{Name: r.Name, Path: p})
		}
		return source{repos: out}, nil
	}

	beadsDir, ok := config.ResolveBeadsDir(cfg, cwd)
	if !ok {
		if cfg.BeadsDir != "" {
			return source{}, fmt.Errorf("beads directory %s does not exist", cfg.BeadsDir)
		}
		return source{}, fmt.Errorf("no %s directory found here or above (run 'bd init' or set %s)", loader.BeadsDirName, config.EnvBeadsDir)
	}
	path, err := loader.FindJSONLPath(beadsDir)
	if err != nil {
		return source{}, err
	}
	return source{path: path}, nil
}

func initConfig(cfgPath, projectRoot string) error {
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	if err := config.DefaultConfig().Save(cfgPath); err != nil {
		return err
	}
	if err := loader.EnsureIgnored(projectRoot, config.DirName); err != nil {
		log.Printf("warning: could not update .gitignore: %v", err)
	}
	return nil
}

// redirectLog sends log output to a file so it never draws over the TUI.
// Without a file, logs go to .bv/bt.log inside a project and are discarded
// elsewhere.
func redirectLog(flagPath, projectRoot string, inProject bool) (func(), error) {
	log.SetOutput(io.Discard)
	path := flagPath
	if path == "" {
		path = os.Getenv(envLogFile)
	}
	if path == "" && inProject {
		path = filepath.Join(projectRoot, config.DirName, "bt.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return func() {}, err
		}
		if err := loader.EnsureIgnored(projectRoot, config.DirName); err != nil {
			return func() {}, err
		}
	}
	if path == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return func() {}, err
	}
	log.SetOutput(f)
	log.Printf("bt %s started", version)
	return func() { f.Close() }, nil
}

// robotNode is one issue in -robot-tree output.
type robotNode struct {
	ID         string      `json:"id"`
	SourceRepo string      `json:"source_repo,omitempty"`
	Title      string      `json:"title"`
	Status     string      `json:"status"`
	Priority   int         `json:"priority"`
	IssueType  string      `json:"issue_type"`
	Children   []robotNode `json:"children,omitempty"`
}

type robotTree struct {
	GeneratedAt time.Time   `json:"generated_at"`
	IssueCount  int         `json:"issue_count"`
	RootCount   int         `json:"root_count"`
	Cycles      [][]string  `json:"cycles,omitempty"`
	Roots       []robotNode `json:"roots"`
}

// writeRobotTree reconciles issues into a tree and prints it as JSON.
func writeRobotTree(w io.Writer, issues []model.Issue, cycles [][]string, sortValues bool) error {
	m := treemodel.New[model.Issue](treemodel.WithSortValues[model.Issue](sortValues))
	m.Set(issues)

	var walk func(parent treemodel.Index) []robotNode
	walk = func(parent treemodel.Index) []robotNode {
		var nodes []robotNode
		for row := 0; row < m.RowCount(parent); row++ {
			idx := m.Index(row, 0, parent)
			issue, ok := m.ValueAt(idx)
			if !ok {
				continue
			}
			nodes = append(nodes, robotNode{
				ID:         issue.ID,
				SourceRepo: issue.SourceRepo,
				Title:      issue.Title,
				Status:     string(issue.Status),
				Priority:   issue.Priority,
				IssueType:  string(issue.IssueType),
				Children:   walk(idx),
			})
		}
		return nodes
	}

	out := robotTree{
		GeneratedAt: time.Now().UTC(),
		IssueCount:  m.Len(),
		RootCount:   m.RowCount(treemodel.Index{}),
		Cycles:      cycles,
		Roots:       walk(treemodel.Index{}),
	}
	if out.Roots == nil {
		out.Roots = []robotNode{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
