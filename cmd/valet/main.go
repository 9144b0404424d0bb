// ABOUTME: Terminal client for the valet assistant backend (calendar/drive/email).
// ABOUTME: Provides a readline-style chat loop plus status/picker subcommands.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/quillhq/valet/internal/catalog"
	"github.com/quillhq/valet/internal/config"
	"github.com/quillhq/valet/internal/dispatch"
	"github.com/quillhq/valet/internal/picker"
	"github.com/quillhq/valet/internal/service"
	"github.com/quillhq/valet/internal/session"
	"github.com/quillhq/valet/internal/state"
	"github.com/quillhq/valet/internal/status"
	"github.com/quillhq/valet/internal/transport"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// getConfigPath returns the path to the client config file.
// Priority: VALET_CONFIG env var > XDG_CONFIG_HOME/valet/config.yaml > ~/.config/valet/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VALET_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "valet", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: valet <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat              Start the interactive chat loop")
		fmt.Println("  status            Show per-service setup status")
		fmt.Println("  calendars         List selectable calendars")
		fmt.Println("  folders [parent]  List Drive folders under a parent")
		fmt.Println("  setup <service>   Run setup for calendar, drive, or email")
		fmt.Println("  version           Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx)
	case "status":
		err = runStatus(ctx)
	case "calendars":
		err = runCalendars(ctx)
	case "folders":
		parent := ""
		if len(os.Args) > 2 {
			parent = os.Args[2]
		}
		err = runFolders(ctx, parent)
	case "setup":
		if len(os.Args) < 3 {
			err = fmt.Errorf("usage: valet setup <calendar|drive|email>")
		} else {
			err = runSetup(ctx, os.Args[2])
		}
	case "version":
		fmt.Println("valet", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired-up client components.
type app struct {
	cfg     *config.Config
	store   *state.Store
	session session.Source
	disp    *dispatch.Dispatcher
	status  *status.Client
	picker  *picker.Client
	cache   *catalog.Catalog // nil when disabled
}

// newApp loads configuration and wires the client components.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := buildLogger(cfg.Logging)
	slog.SetDefault(logger)

	src := session.FileSource{Path: cfg.Session.TokenPath}

	var opts []transport.Option
	if cfg.Backend.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(cfg.Backend.Timeout))
	}
	client := transport.New(cfg.Backend.BaseURL, opts...)

	store := state.NewStore()
	a := &app{
		cfg:     cfg,
		store:   store,
		session: src,
		disp:    dispatch.New(store, src, client, logger),
		status:  status.NewClient(client, src, logger),
		picker:  picker.NewClient(client, src, logger),
	}

	if cfg.Catalog.Enabled {
		cache, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			// The cache is an accelerator, not a dependency
			logger.Warn("catalog cache unavailable", "error", err)
		} else {
			a.cache = cache
		}
	}

	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// loadConfig reads the config file, falling back to defaults when missing.
func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// buildLogger creates an slog logger from the logging config.
func buildLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runChat(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("valet connected to %s\n", a.cfg.Backend.BaseURL)
	fmt.Println(authBanner(a.session, time.Now()))
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")

	// Show the active service's greeting up front
	printTranscriptTail(a.store.Chat(a.store.ActiveService()), 1)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s]> ", a.store.ActiveService())

		input, err := readLine(ctx, scanner)
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := a.handleCommand(ctx, input); quit {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Println()
			continue
		}

		a.sendAndPrint(ctx, input)
		fmt.Println()
	}
}

// authBanner describes the auth state for the chat header. A token whose
// exp claim has passed is still reported as configured; the backend is the
// authority, the staleness note is only a hint.
func authBanner(src session.Source, now time.Time) string {
	if !session.Authenticated(src) {
		return "Auth: none (set VALET_TOKEN or write the token file)"
	}
	tok, _ := src.Current()
	if session.Expired(tok.AccessToken, now) {
		return "Auth: bearer token configured (expired; refresh it before sending)"
	}
	return "Auth: bearer token configured"
}

// readLine reads one line of input, honoring context cancellation. On
// cancellation the reader goroutine stays blocked in Scan until the
// process exits; stdin reads cannot be interrupted.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
		} else {
			if err := scanner.Err(); err != nil {
				errCh <- err
			} else {
				errCh <- io.EOF
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", io.EOF
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

// sendAndPrint dispatches a message for the active service and prints the
// transcript delta and any error state.
func (a *app) sendAndPrint(ctx context.Context, text string) {
	svc := a.store.ActiveService()
	before := len(a.store.Chat(svc).Messages)

	a.disp.SendMessage(ctx, svc, text)

	chat := a.store.Chat(svc)
	printTranscriptTail(chat, len(chat.Messages)-before)
	if chat.Err != "" {
		color.Red("[error] %s", chat.Err)
	}
}

// handleCommand processes a /command. Returns true when the loop should exit.
func (a *app) handleCommand(ctx context.Context, input string) bool {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		printHelp()

	case "/services":
		for _, id := range service.All() {
			marker := " "
			if id == a.store.ActiveService() {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}

	case "/service":
		id, err := service.Parse(args)
		if err != nil {
			color.Red("[error] %v", err)
			return false
		}
		a.store.SetActiveService(id)
		printTranscriptTail(a.store.Chat(id), 1)

	case "/history":
		chat := a.store.Chat(a.store.ActiveService())
		printTranscriptTail(chat, len(chat.Messages))

	case "/status":
		if err := a.printStatus(ctx); err != nil {
			color.Red("[error] %v", err)
		}

	case "/setup":
		if err := runSetupFor(ctx, a, args); err != nil {
			color.Red("[error] %v", err)
		}

	case "/calendars":
		if err := a.printCalendars(ctx); err != nil {
			color.Red("[error] %v", err)
		}

	case "/folders":
		if err := a.printFolders(ctx, args); err != nil {
			color.Red("[error] %v", err)
		}

	case "/select":
		a.selectForActive(args)

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", cmd)
	}

	return false
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /services           List services, * marks the active one")
	fmt.Println("  /service <id>       Switch to calendar, drive, or email")
	fmt.Println("  /history            Show the active service's transcript")
	fmt.Println("  /status             Show per-service setup status")
	fmt.Println("  /setup <id>         Run backend setup for a service")
	fmt.Println("  /calendars          List selectable calendars")
	fmt.Println("  /folders [parent]   List Drive folders")
	fmt.Println("  /select <id>        Select a calendar/folder for the active service")
	fmt.Println("  /help               Show this help")
	fmt.Println("  /quit               Exit")
}

// selectForActive records a picker selection into the active service's setup.
func (a *app) selectForActive(id string) {
	if id == "" {
		fmt.Println("Usage: /select <id>")
		return
	}

	svc := a.store.ActiveService()
	switch svc {
	case service.Calendar:
		a.store.UpdateSetup(svc, state.SetupPatch{CalendarID: &id})
	case service.Drive, service.Email:
		a.store.UpdateSetup(svc, state.SetupPatch{FolderID: &id})
	}
	fmt.Printf("Selected %s for %s\n", id, svc)
}

func (a *app) printStatus(ctx context.Context) error {
	data, err := a.status.Fetch(ctx)
	if err != nil {
		// Fall back to the cached snapshot when the backend is unreachable
		if a.cache != nil {
			return a.printCachedStatus(ctx)
		}
		return err
	}

	fmt.Printf("Signed in as %s\n", data.Email)
	for _, id := range service.All() {
		st, ok := data.Status(id)
		if ok && st.IsSetup {
			color.Green("  %-8s connected (scope %s)", id, st.ScopeVersion)
		} else {
			color.Yellow("  %-8s not set up", id)
		}
		if a.cache != nil {
			if err := a.cache.SaveStatus(ctx, id, st); err != nil {
				slog.Warn("caching status failed", "service", id, "error", err)
			}
		}
	}
	return nil
}

func (a *app) printCachedStatus(ctx context.Context) error {
	fmt.Println("Backend unreachable; last known status:")
	for _, id := range service.All() {
		st, fetchedAt, ok, err := a.cache.Status(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("  %-8s unknown\n", id)
			continue
		}
		if st.IsSetup {
			color.Green("  %-8s connected (as of %s)", id, fetchedAt.Format("2006-01-02 15:04"))
		} else {
			color.Yellow("  %-8s not set up (as of %s)", id, fetchedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func (a *app) printCalendars(ctx context.Context) error {
	data, err := a.status.Fetch(ctx)
	email := ""
	if err == nil {
		email = data.Email
	}

	calendars, err := a.picker.ListCalendars(ctx, email)
	if err != nil {
		if a.cache != nil {
			cached, cacheErr := a.cache.Calendars(ctx)
			if cacheErr == nil && len(cached) > 0 {
				fmt.Println("Backend unreachable; cached calendars:")
				calendars = cached
			} else {
				return err
			}
		} else {
			return err
		}
	} else if a.cache != nil {
		if err := a.cache.SaveCalendars(ctx, calendars); err != nil {
			slog.Warn("caching calendars failed", "error", err)
		}
	}

	if len(calendars) == 0 {
		fmt.Println("No calendars found")
		return nil
	}
	for _, cal := range calendars {
		fmt.Printf("  %s: %s\n", cal.ID, cal.Name)
	}
	return nil
}

func (a *app) printFolders(ctx context.Context, parent string) error {
	if parent == "" {
		parent = "root"
	}

	folders, err := a.picker.ListFolders(ctx, parent)
	if err != nil {
		if a.cache != nil {
			cached, cacheErr := a.cache.Folders(ctx, parent)
			if cacheErr == nil && len(cached) > 0 {
				fmt.Println("Backend unreachable; cached folders:")
				folders = cached
			} else {
				return err
			}
		} else {
			return err
		}
	} else if a.cache != nil {
		if err := a.cache.SaveFolders(ctx, parent, folders); err != nil {
			slog.Warn("caching folders failed", "error", err)
		}
	}

	if len(folders) == 0 {
		fmt.Println("No folders found")
		return nil
	}
	for _, f := range folders {
		fmt.Printf("  %s: %s\n", f.ID, f.Name)
	}
	return nil
}

// printTranscriptTail prints the last n messages of a chat snapshot.
func printTranscriptTail(chat state.ChatState, n int) {
	msgs := chat.Messages
	if n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	for _, msg := range msgs {
		if msg.Role == state.RoleUser {
			color.Blue("you: %s", msg.Content)
		} else {
			fmt.Print(renderMarkdown(msg.Content))
		}
	}
}

// renderMarkdown renders assistant replies for the terminal, falling back
// to plain text when rendering fails.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

func runStatus(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return a.printStatus(ctx)
}

func runCalendars(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return a.printCalendars(ctx)
}

func runFolders(ctx context.Context, parent string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return a.printFolders(ctx, parent)
}

func runSetup(ctx context.Context, svcName string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return runSetupFor(ctx, a, svcName)
}

func runSetupFor(ctx context.Context, a *app, svcName string) error {
	svc, err := service.Parse(svcName)
	if err != nil {
		return err
	}

	fmt.Printf("Running %s setup...\n", svc)
	if err := a.status.RunSetup(ctx, svc); err != nil {
		return err
	}
	color.Green("%s setup complete", svc)

	// Email setup also pushes the current credential to the mail indexer
	if svc == service.Email {
		if err := a.picker.UpdateEmailCredential(ctx); err != nil {
			return err
		}
	}
	return nil
}
