package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"budget-bot/internal/handlers"
	"budget-bot/internal/logger"
	"budget-bot/internal/storage"

	"golang.org/x/term"
)

const (
	defaultDBPath = "bot_data.db"
	memoryDBPath  = ":memory:"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbPath := fs.String("db", defaultDBPath, "Path to database file (\":memory:\" keeps nothing)")
	userID := fs.Int64("user", 1, "Telegram user ID to act as")
	username := fs.String("name", "", "Username to act as")
	verbose := fs.Bool("v", false, "Log state transitions to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == 0 {
		fmt.Fprintln(stdout, "Usage: console [-user <id>] [-name <username>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("user id must be non-zero")
	}

	// DB_PATH is shared with the bot; an explicit -db wins over it.
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}

	log := logger.Nop()
	if *verbose {
		log = logger.New("development")
	}

	var ledger handlers.Ledger
	if *dbPath == memoryDBPath {
		ledger = storage.NewMemory()
	} else {
		db, err := storage.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		ledger = db
	}

	c := &console{
		handlers:    handlers.NewHandlers(ledger, log),
		userID:      *userID,
		username:    *username,
		out:         stdout,
		interactive: isTerminal(stdin),
	}
	return c.loop(context.Background(), stdin)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type console struct {
	handlers    *handlers.Handlers
	userID      int64
	username    string
	out         io.Writer
	interactive bool
	buttons     []handlers.Button
}

func (c *console) loop(ctx context.Context, stdin io.Reader) error {
	if c.interactive {
		fmt.Fprintln(c.out, "Type /start to begin, #N to press a button, a trailing \\ to continue a message, /quit to exit.")
	}

	scanner := bufio.NewScanner(stdin)
	var pending []string
	c.prompt(false)

	for scanner.Scan() {
		line := scanner.Text()
		if body, ok := strings.CutSuffix(line, `\`); ok {
			pending = append(pending, body)
			c.prompt(true)
			continue
		}

		msg := strings.Join(append(pending, line), "\n")
		pending = nil

		if quit := c.dispatch(ctx, msg); quit {
			return nil
		}
		c.prompt(false)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if len(pending) > 0 {
		c.dispatch(ctx, strings.Join(pending, "\n"))
	}
	return nil
}

func (c *console) prompt(continued bool) {
	if !c.interactive {
		return
	}
	if continued {
		fmt.Fprint(c.out, "… ")
		return
	}
	fmt.Fprint(c.out, "> ")
}

// dispatch sends one message to the wizard and reports whether the session should end.
func (c *console) dispatch(ctx context.Context, msg string) bool {
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		return false
	}

	ev := handlers.Event{UserID: c.userID, Username: c.username, Kind: handlers.EventText, Payload: msg}

	switch {
	case trimmed == "/quit" || trimmed == "/exit":
		return true
	case strings.HasPrefix(trimmed, "/") && !strings.ContainsAny(trimmed, " \n"):
		ev.Kind = handlers.EventCommand
		ev.Payload = trimmed
	case isButtonPress(trimmed):
		n, err := strconv.Atoi(trimmed[1:])
		if err != nil || n < 1 || n > len(c.buttons) {
			fmt.Fprintf(c.out, "No button %s\n", trimmed)
			return false
		}
		ev.Kind = handlers.EventAction
		ev.Payload = c.buttons[n-1].Data
	}

	c.print(c.handlers.Handle(ctx, ev))
	return false
}

// isButtonPress reports whether msg is "#" followed only by digits.
func isButtonPress(msg string) bool {
	digits, ok := strings.CutPrefix(msg, "#")
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *console) print(reply handlers.Reply) {
	fmt.Fprintln(c.out, reply.Text)

	c.buttons = c.buttons[:0]
	for _, row := range reply.Keyboard {
		c.buttons = append(c.buttons, row...)
	}
	for i, b := range c.buttons {
		fmt.Fprintf(c.out, "  [#%d] %s\n", i+1, b.Text)
	}
	fmt.Fprintln(c.out)
}
