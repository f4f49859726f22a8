package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bhandras/chatkit/internal/repository"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

type flags struct {
	configPath  string
	userID      string
	tokenURL    string
	token       string
	logLevel    string
	metricsAddr string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Error: %v", err)
	}
}

func run(argv []string) error {
	f, args, err := parseFlags(argv)
	if err != nil {
		return err
	}

	// Flags take precedence over the environment.
	if err := exportFlags(f); err != nil {
		return err
	}
	cfg, err := sdk.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reg := prometheus.NewRegistry()
	client, err := sdk.NewFromConfig(cfg,
		sdk.WithRegisterer(reg),
		sdk.WithErrorHandler(func(t state.SubscriptionType, err error) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", t, err)
		}),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.metricsAddr != "" {
		srv := serveMetrics(f.metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client.Connect(func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
			return
		}
		fmt.Printf("connected as %s\n", cfg.UserID)
	})

	cmd := "rooms"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "rooms":
		cancel := client.JoinedRooms().Observe(printRooms)
		defer cancel()

	case "members":
		if len(args) != 1 {
			return fmt.Errorf("usage: chatkit members ROOM_ID")
		}
		client.SubscribeToRoom(args[0], nil)
		members := client.RoomMembers(args[0])
		defer members.Stop()
		cancel := members.Observe(printMembers)
		defer cancel()

	case "presence":
		if len(args) != 1 {
			return fmt.Errorf("usage: chatkit presence USER_ID")
		}
		userID := args[0]
		client.SubscribeToPresence(userID, nil)
		go watchPresence(ctx, client, userID)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	<-ctx.Done()
	return nil
}

func parseFlags(argv []string) (flags, []string, error) {
	var f flags
	fs := pflag.NewFlagSet("chatkit", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to config.toml")
	fs.StringVar(&f.userID, "user", "", "User to connect as")
	fs.StringVar(&f.tokenURL, "token-url", "", "Token provider endpoint")
	fs.StringVar(&f.token, "token", "", "Fixed bearer token")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.Usage = printUsage

	if err := fs.Parse(argv); err != nil {
		return flags{}, nil, err
	}
	return f, fs.Args(), nil
}

func exportFlags(f flags) error {
	for env, v := range map[string]string{
		"CHATKIT_USER_ID":   f.userID,
		"CHATKIT_TOKEN_URL": f.tokenURL,
		"CHATKIT_TOKEN":     f.token,
		"CHATKIT_LOG_LEVEL": f.logLevel,
	} {
		if v == "" {
			continue
		}
		if err := os.Setenv(env, v); err != nil {
			return fmt.Errorf("set %s: %w", env, err)
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()
	return srv
}

func printRooms(s sdk.Rooms) {
	switch s.Kind {
	case repository.Connected, repository.Degraded:
		if s.ChangeReason != nil {
			fmt.Printf("[%s] %s\n", s.Kind, describeRoomChange(s.ChangeReason))
		}
		for _, r := range s.Items {
			fmt.Printf("  %-12s %-24s unread=%d\n", r.Identifier, r.Name, r.ReadSummary.UnreadCount)
		}
		if s.Err != nil {
			fmt.Printf("  (%v)\n", s.Err)
		}
	default:
		printStatus(s.Kind, s.Err)
	}
}

func describeRoomChange(c *repository.ChangeReason[state.RoomState]) string {
	switch c.Kind {
	case repository.ItemChanged:
		return fmt.Sprintf("%s %s", c.Kind, c.To.Identifier)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Item.Identifier)
	}
}

func printMembers(s sdk.Members) {
	switch s.Kind {
	case repository.Connected, repository.Degraded:
		names := make([]string, 0, len(s.Items))
		for _, u := range s.Items {
			names = append(names, fmt.Sprintf("%s (%s)", u.Identifier, u.Name))
		}
		fmt.Printf("[%s] %s\n", s.Kind, strings.Join(names, ", "))
	default:
		printStatus(s.Kind, s.Err)
	}
}

func printStatus(kind repository.Kind, err error) {
	if err != nil {
		fmt.Printf("[%s] %v\n", kind, err)
		return
	}
	fmt.Printf("[%s]\n", kind)
}

func watchPresence(ctx context.Context, client *sdk.Client, userID string) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	last := state.PresenceUnknown
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p := client.State().Chat.Presence.Get(userID); p != last {
				fmt.Printf("%s is %s\n", userID, p)
				last = p
			}
		}
	}
}

func printUsage() {
	fmt.Println(`chatkit - tail the local chat state of one user

Usage:
  chatkit [flags]                Print joined rooms as they change
  chatkit [flags] members ROOM   Print the members of a room
  chatkit [flags] presence USER  Print presence changes of a user

Environment Variables:
  CHATKIT_INSTANCE_LOCATOR  Instance locator (v1:<cluster>:<instance id>)
  CHATKIT_USER_ID           User to connect as
  CHATKIT_TOKEN_URL         Token provider endpoint
  CHATKIT_TOKEN             Fixed bearer token
  CHATKIT_HOME_DIR          Config directory (default: ~/.chatkit)
  DEBUG                     Enable debug logging (true/1)

Flags:
  -c, --config        Path to config.toml
      --user          User to connect as
      --token-url     Token provider endpoint
      --token         Fixed bearer token
      --log-level     Log level (trace|debug|info|warn|error)
      --metrics-addr  Serve Prometheus metrics on this address`)
}
