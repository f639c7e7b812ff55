package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/minisql/internal/cli/output"
	"github.com/leapstack-labs/minisql/internal/engine"
	"github.com/leapstack-labs/minisql/pkg/parser"
	"github.com/leapstack-labs/minisql/pkg/token"
)

const continuationPrompt = "    ...> "

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [file.gpa ...]",
		Short: "Start the interactive SQL shell",
		Long: `Start an interactive MiniSQL session.

Statements accumulate until a terminating semicolon. Tables listed on the
command line or under autoload in the config are loaded at start; the first
becomes the current table. Dirty tables are written back on exit.`,
		Example: `  minisql shell grades.gpa
  minisql shell < script.sql`,
		RunE: RunShell,
	}
}

// RunShell runs the shell with args as table files. The root command uses
// it when invoked without a subcommand.
func RunShell(cmd *cobra.Command, args []string) error {
	cmdCtx, closeEngine := NewCommandContext(cmd)
	defer func() {
		if err := closeEngine(); err != nil {
			cmdCtx.Renderer.Error("", err)
		}
	}()

	sessionLogger := cmdCtx.Logger.With("session", uuid.NewString())
	sessionLogger.Info("shell started")

	sh := NewShell(cmdCtx.Engine, cmdCtx.Renderer, sessionLogger, cmdCtx.Cfg.Prompt)
	for _, p := range slices.Concat(cmdCtx.Cfg.Autoload, args) {
		sh.load(p)
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return sh.Interactive(cmdCtx.Cfg.HistoryFile)
	}
	return sh.Script(in)
}

// Shell is a line-oriented SQL session over an engine.
type Shell struct {
	eng    *engine.Engine
	r      *output.Renderer
	logger *slog.Logger
	prompt string

	pending strings.Builder
}

// NewShell creates a shell.
func NewShell(eng *engine.Engine, r *output.Renderer, logger *slog.Logger, prompt string) *Shell {
	return &Shell{eng: eng, r: r, logger: logger, prompt: prompt}
}

// Prompt returns the primary prompt, or the continuation prompt while a
// statement is incomplete.
func (s *Shell) Prompt() string {
	if s.pending.Len() > 0 {
		return continuationPrompt
	}
	return s.prompt
}

// Interactive runs a readline loop until .quit or EOF.
func (s *Shell) Interactive(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt,
		HistoryFile:     historyFile,
		AutoComplete:    s.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(s.r.Out, "MiniSQL shell. Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.pending.Reset()
			rl.SetPrompt(s.Prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.Feed(line) {
			return nil
		}
		rl.SetPrompt(s.Prompt())
	}
}

// Script feeds every line of r to the shell.
func (s *Shell) Script(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if s.Feed(sc.Text()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if rest := strings.TrimSpace(s.pending.String()); rest != "" {
		s.pending.Reset()
		s.exec(rest)
	}
	return nil
}

// Feed handles one input line and reports whether the session should end.
// Dot commands are recognised only at the start of a statement.
func (s *Shell) Feed(line string) bool {
	trimmed := strings.TrimSpace(line)
	if s.pending.Len() == 0 {
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.dot(trimmed)
		}
	}

	s.pending.WriteString(line)
	s.pending.WriteByte('\n')
	sql := s.pending.String()
	if !complete(sql) {
		return false
	}
	s.pending.Reset()
	s.exec(sql)
	return false
}

// complete reports whether sql ends a statement: its last token is a
// semicolon or a '#' comment cut the input. An unterminated string waits
// for more lines; any other lex error completes the statement so it is
// reported and the buffer is cleared.
func complete(sql string) bool {
	toks, err := parser.Lex(sql)
	if err != nil {
		return err.Message != parser.ErrUnterminatedString
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		return true
	}
	return len(toks) > 1 && toks[len(toks)-2].Kind == token.SEMICOLON
}

func (s *Shell) exec(sql string) {
	s.logger.Debug("executing", "sql", strings.TrimSpace(sql))
	// errors are already rendered
	_ = runBatch(s.eng, s.r, sql)
}

func (s *Shell) load(path string) {
	t, err := s.eng.LoadTable(path)
	if err != nil {
		s.r.Error("", err)
		return
	}
	s.r.Success("loaded %s (%d rows)", t.Name(), t.AliveCount())
}

func (s *Shell) dot(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(s.r.Out)

	case ".load":
		if len(args) == 0 {
			s.usage(".load <file.gpa> ...")
			break
		}
		for _, p := range args {
			s.load(p)
		}

	case ".use":
		if len(args) != 1 {
			s.usage(".use <table>")
			break
		}
		if err := s.eng.Use(args[0]); err != nil {
			s.r.Error("", err)
		}

	case ".tables":
		s.r.Tables(s.eng.Tables(), s.eng.Current())

	case ".schema":
		s.schema(args)

	case ".create":
		if len(args) < 2 {
			s.usage(".create <name> <field:TYPE[*]> ...")
			break
		}
		schema, err := parseFields(args[1:])
		if err != nil {
			s.r.Error("", err)
			break
		}
		t, err := s.eng.CreateTable(args[0], schema)
		if err != nil {
			s.r.Error("", err)
			break
		}
		s.r.Success("created %s %s", t.Name(), schema)

	case ".explain":
		if rest == "" {
			s.usage(".explain <sql>")
			break
		}
		out, err := s.eng.Explain(rest)
		if err != nil {
			s.r.Error(rest, err)
			break
		}
		_, _ = fmt.Fprint(s.r.Out, out)

	case ".flush":
		if err := s.eng.Flush(); err != nil {
			s.r.Error("", err)
			break
		}
		s.r.Success("flushed")

	default:
		s.r.Error("", fmt.Errorf("unknown command %s (type .help for commands)", cmd))
	}
	return false
}

func (s *Shell) schema(args []string) {
	switch len(args) {
	case 0:
		t := s.eng.Current()
		if t == nil {
			s.r.Error("", engine.ErrNoCurrent)
			return
		}
		_ = s.r.Schema(t)
	case 1:
		t, ok := s.eng.Lookup(args[0])
		if !ok {
			s.r.Error("", fmt.Errorf("%w: %s", engine.ErrNoSuchTable, args[0]))
			return
		}
		_ = s.r.Schema(t)
	default:
		s.usage(".schema [table]")
	}
}

func (s *Shell) usage(u string) {
	s.r.Error("", errors.New("usage: "+u))
}

// Completer returns the tab completer for dot commands, statement keywords
// and table names.
func (s *Shell) Completer() *readline.PrefixCompleter {
	tables := readline.PcItemDynamic(func(string) []string {
		var names []string
		for _, t := range s.eng.Tables() {
			names = append(names, t.Name())
		}
		return names
	})

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".load"),
		readline.PcItem(".use", tables),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables),
		readline.PcItem(".create"),
		readline.PcItem(".explain",
			readline.PcItem("SELECT"),
			readline.PcItem("UPDATE", tables),
			readline.PcItem("DELETE", readline.PcItem("FROM", tables)),
		),
		readline.PcItem(".flush"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT", readline.PcItem("INTO", tables)),
		readline.PcItem("UPDATE", tables),
		readline.PcItem("DELETE", readline.PcItem("FROM", tables)),
	)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help                           Show this help message
  .load <file.gpa> ...            Load table files
  .use <table>                    Make a table current
  .tables                         List loaded tables (* marks the current one)
  .schema [table]                 Show a table's fields and row counts
  .create <name> <field:TYPE[*]>  Create a table in the data directory
  .explain <sql>                  Show the plan of each statement
  .flush                          Write changed tables to disk
  .quit / .exit                   Flush and exit

Tips:
  - SQL statements must end with a semicolon (;)
  - '#' starts a comment that runs to the end of the input
  - Use arrow keys to navigate history
  - Tab completion works for commands and table names
`
	_, _ = fmt.Fprintln(w, help)
}
