package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"samarth-chat/internal/askclient"
	"samarth-chat/internal/chat"
	"samarth-chat/internal/config"
	"samarth-chat/internal/lineui"
	"samarth-chat/internal/services"
	"samarth-chat/internal/tui"
)

var (
	logger *zap.Logger

	serverURL string
	ordered   bool
	timeout   time.Duration
	plain     bool
	verbose   bool
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the Samarth Q&A server about rainfall and crops",
	Long: `chat is a terminal client for the Samarth Q&A server.

Each question is posted to the server's /ask endpoint and the answer is
appended to the transcript. Run without arguments for the full-screen
interface; use --plain (or pipe input) for one question per line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadClient()
		if !cmd.Flags().Changed("server") {
			serverURL = cfg.ServerURL
		}
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.Timeout
		}
		if !cmd.Flags().Changed("ordered") {
			ordered = cfg.Ordered
		}

		var err error
		logger, err = newLogger(interactive(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		question := strings.Join(args, " ")
		return lineui.Run(ctx, strings.NewReader(question+"\n"), cmd.OutOrStdout(), newAsker(), lineui.Options{
			Logger: logger,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Q&A server base URL (or set ASK_SERVER_URL)")
	rootCmd.PersistentFlags().BoolVar(&ordered, "ordered", false, "Show answers in the order questions were asked (or set CHAT_ORDERED)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-question timeout, 0 for none (or set ASK_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "Line mode: one question per line, no full-screen UI")

	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting chat",
		zap.String("server", serverURL),
		zap.Stringer("ordering", ordering()),
		zap.Bool("interactive", interactive(cmd)))

	if !interactive(cmd) {
		return lineui.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), newAsker(), lineui.Options{
			Ordering: ordering(),
			Logger:   logger,
		})
	}

	m := tui.New(ctx, newAsker(), tui.Options{
		Ordering:    ordering(),
		Suggestions: services.Suggestions,
		Logger:      logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newAsker() chat.Asker {
	return askclient.NewClient(serverURL, timeout)
}

func ordering() chat.Ordering {
	if ordered {
		return chat.SubmissionOrder
	}
	return chat.CompletionOrder
}

func interactive(cmd *cobra.Command) bool {
	if cmd.HasParent() || plain {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// newLogger keeps the full-screen UI clean: without --log-file it logs
// nothing there, while line mode logs warnings to stderr.
func newLogger(fullScreen bool) (*zap.Logger, error) {
	if fullScreen && logFile == "" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	}
	return cfg.Build()
}
