// Package shell implements the interactive ledger console.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger/internal/analytics"
	"github.com/dvloznov/ledger/internal/categorize"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/export"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/pipeline"
	"github.com/dvloznov/ledger/internal/report"
	"github.com/shopspring/decimal"
)

// ErrExit is returned by Route when the user asks to leave the shell.
var ErrExit = errors.New("exit requested")

// Router parses console commands and runs them against the ledger.
type Router struct {
	repo        ledger.Repository
	importer    *pipeline.Importer
	engine      *analytics.Engine
	exporter    *export.Exporter
	categorizer categorize.Categorizer

	in  *bufio.Reader
	out io.Writer
}

// Option configures a Router.
type Option func(*Router)

// WithCategorizer enables the "suggest categories" command.
func WithCategorizer(c categorize.Categorizer) Option {
	return func(r *Router) {
		r.categorizer = c
	}
}

// NewRouter creates a router. Confirmation prompts read from in; all command
// output goes to out.
func NewRouter(repo ledger.Repository, importer *pipeline.Importer, exporter *export.Exporter, in io.Reader, out io.Writer, opts ...Option) *Router {
	r := &Router{
		repo:     repo,
		importer: importer,
		engine:   analytics.NewEngine(repo),
		exporter: exporter,
		in:       bufio.NewReader(in),
		out:      out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route runs a single command line. ctx bounds the command; cancelling it
// stops long-running commands such as import and export. User mistakes are
// reported on the output and do not produce an error.
func (r *Router) Route(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		r.printHelp()
	case "exit", "quit":
		return ErrExit
	case "import":
		r.handleImport(ctx, args)
	case "list":
		return r.handleList(args)
	case "search":
		return r.handleSearch(args)
	case "stats":
		return r.handleStats(args)
	case "export":
		r.handleExport(ctx, args)
	case "set", "rename", "remove":
		r.handleEdit(cmd, args)
	case "suggest":
		r.handleSuggest(ctx, args)
	default:
		r.println("Unknown command. Type 'help' for help.")
	}

	return nil
}

func (r *Router) printHelp() {
	r.println("Commands:")
	for _, line := range []string{
		"import <file1.csv> [file2.csv ...]",
		"list all",
		"list month <yyyy-MM>",
		"list by category <name>",
		"list over <amount>",
		"search <text>",
		"set category <id> <name>",
		"rename category <old> <new>",
		"remove <id>",
		"stats month <yyyy-MM>",
		"stats yearly <yyyy>",
		"export json|csv|xlsx <path>",
		"suggest categories",
		"exit",
	} {
		r.println("  " + line)
	}
}

func (r *Router) handleImport(ctx context.Context, files []string) {
	if len(files) == 0 {
		r.println("Usage: import <file1.csv> [file2.csv ...]")
		return
	}

	res := r.importer.ImportAll(ctx, files)
	r.println(res.String())
	if ctx.Err() != nil {
		r.println("[INFO] Import cancelled by user.")
	}
}

func (r *Router) handleList(args []string) error {
	switch {
	case len(args) == 1 && args[0] == "all":
		return r.printList(r.engine.All(), "No transactions found.")

	case len(args) == 2 && args[0] == "month":
		return r.printList(r.engine.ByMonth(args[1]), fmt.Sprintf("No transactions found for %s.", args[1]))

	case len(args) >= 3 && args[0] == "by" && args[1] == "category":
		name := strings.Join(args[2:], " ")
		return r.printList(r.engine.ByCategory(name), fmt.Sprintf("No transactions found for category containing '%s'.", name))

	case len(args) == 2 && args[0] == "over":
		threshold, err := decimal.NewFromString(args[1])
		if err != nil {
			r.println("Invalid amount.")
			return nil
		}
		return r.printList(r.engine.Over(threshold), fmt.Sprintf("No transactions found with Amount >= %s.", threshold))

	case len(args) >= 2 && args[0] == "search":
		return r.handleSearch(args[1:])

	default:
		r.println("Usage:")
		r.println("  list all")
		r.println("  list month <yyyy-MM>")
		r.println("  list by category <name>")
		r.println("  list over <amount>")
		return nil
	}
}

func (r *Router) handleSearch(args []string) error {
	if len(args) == 0 {
		r.println("Usage: search <text>")
		return nil
	}
	text := strings.Join(args, " ")
	return r.printList(r.engine.Search(text), fmt.Sprintf("No transactions found matching '%s'.", text))
}

func (r *Router) printList(txs []domain.Transaction, empty string) error {
	if len(txs) == 0 {
		r.println(empty)
		return nil
	}
	return report.WriteTransactions(r.out, txs)
}

func (r *Router) handleStats(args []string) error {
	switch {
	case len(args) == 2 && args[0] == "month":
		return report.WriteMonthlyJSON(r.out, r.engine.Monthly(args[1]))

	case len(args) == 2 && args[0] == "yearly":
		year, err := strconv.Atoi(args[1])
		if err != nil {
			r.println("Invalid year.")
			return nil
		}
		months := r.engine.Yearly(year)
		empty := true
		for range months {
			empty = false
			break
		}
		if empty {
			r.println(fmt.Sprintf("No transactions found for year %d.", year))
			return nil
		}
		return report.WriteYearlyTable(r.out, months)

	default:
		r.println("Usage: stats month <yyyy-MM> | stats yearly <yyyy>")
		return nil
	}
}

func (r *Router) handleExport(ctx context.Context, args []string) {
	if len(args) != 2 {
		r.println("Usage: export json|csv|xlsx <path>")
		return
	}

	format, err := export.ParseFormat(args[0])
	if err != nil {
		r.println("Unknown export type.")
		return
	}
	path := args[1]

	if r.exporter.Exists(path) {
		if !r.confirm(fmt.Sprintf("File '%s' already exists. Overwrite? (y/n)", path)) {
			r.println("Export cancelled.")
			return
		}
	}

	err = r.exporter.ExportFile(ctx, path, format, r.repo.Snapshot(), true)
	switch {
	case errors.Is(err, context.Canceled):
		r.println("[INFO] Export cancelled by user.")
	case err != nil:
		r.println("Export failed: " + err.Error())
	default:
		r.println(fmt.Sprintf("Exported %s.", strings.ToUpper(string(format))))
	}
}

func (r *Router) handleEdit(cmd string, args []string) {
	switch {
	case cmd == "set" && len(args) >= 3 && args[0] == "category":
		id, err := strconv.Atoi(args[1])
		if err != nil {
			r.println("Invalid ID.")
			return
		}
		if !r.repo.SetCategory(id, strings.Join(args[2:], " ")) {
			r.println("404 Not Found")
			return
		}
		r.println("200 OK")

	case cmd == "rename" && len(args) >= 3 && args[0] == "category":
		n := r.repo.RenameCategory(args[1], strings.Join(args[2:], " "))
		r.println(fmt.Sprintf("Updated %d records.", n))

	case cmd == "remove" && len(args) == 1:
		id, err := strconv.Atoi(args[0])
		if err != nil {
			r.println("Invalid ID.")
			return
		}
		if !r.repo.Remove(id) {
			r.println("404 Not Found")
			return
		}
		r.println("200 OK")

	default:
		r.println("Invalid edit command.")
	}
}

func (r *Router) handleSuggest(ctx context.Context, args []string) {
	if len(args) != 1 || args[0] != "categories" {
		r.println("Usage: suggest categories")
		return
	}
	if r.categorizer == nil {
		r.println("Category suggestions are not configured.")
		return
	}

	n, err := categorize.Apply(ctx, r.repo, r.categorizer)
	if err != nil {
		r.println("Suggestion failed: " + err.Error())
		return
	}
	r.println(fmt.Sprintf("Updated %d records.", n))
}

// confirm asks a yes/no question on the shell input. Only "y" confirms.
func (r *Router) confirm(question string) bool {
	r.println(question)
	answer, err := r.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func (r *Router) println(s string) {
	fmt.Fprintln(r.out, s)
}
