package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hackhub/internal/chat"
	"hackhub/internal/notify"
	"hackhub/internal/storage"
	"hackhub/internal/user"
)

// env is what every command shares once PersistentPreRunE has run.
type env struct {
	home       string
	delay      time.Duration
	replyDelay time.Duration
	verbose    bool

	sessions *user.Store
	sink     notify.Sink
	logger   *slog.Logger
}

func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "hackhub",
		Short:        "Hackathon platform client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&e.home, "home", "", "state dir (default ~/.hackhub)")
	root.PersistentFlags().DurationVar(&e.delay, "delay", user.DefaultDelay, "simulated network delay for login and register")
	root.PersistentFlags().DurationVar(&e.replyDelay, "reply-delay", chat.DefaultReplyDelay, "delay before a synthetic reply arrives")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "debug logging")
	_ = root.PersistentFlags().MarkHidden("reply-delay")

	root.AddCommand(
		registerCmd(e),
		loginCmd(e),
		logoutCmd(e),
		whoamiCmd(e),
		profileCmd(e),
		inboxCmd(e),
	)
	return root
}

func (e *env) open(ctx context.Context, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		e.home = filepath.Join(dir, ".hackhub")
	}
	if err := os.MkdirAll(e.home, 0o700); err != nil {
		return err
	}

	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	e.sink = notify.SinkFunc(func(_ context.Context, n notify.Notification) {
		fmt.Fprintf(stderr, "[%s] %s\n", n.Kind, n.Text)
	})

	kv := storage.NewFileKV(filepath.Join(e.home, "storage.json"))
	e.sessions = user.NewStore(kv,
		user.WithNotifier(e.sink),
		user.WithLogger(e.logger),
		user.WithDelay(e.delay),
	)
	return e.sessions.Init(ctx)
}

func (e *env) requireUser() (user.User, error) {
	u, ok := e.sessions.User()
	if !ok {
		return user.User{}, fmt.Errorf("not logged in; run `hackhub login` first")
	}
	return u, nil
}
