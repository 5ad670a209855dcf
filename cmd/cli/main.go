package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/nomis52/rosterd/buildinfo"
	"github.com/nomis52/rosterd/clients/rosterclient"
	"github.com/nomis52/rosterd/logging"
)

const defaultServer = "http://localhost:8080"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	global := flag.NewFlagSet("rosterctl", flag.ContinueOnError)
	server := global.String("server", envOr("ROSTERD_URL", defaultServer), "rosterd base URL")
	logLevel := global.String("log-level", "warn", "Log level (debug, info, warn, error)")
	global.Usage = func() {
		fmt.Fprintf(global.Output(), "Usage: rosterctl [options] <command> [args]\n\n")
		fmt.Fprintf(global.Output(), "Commands:\n")
		fmt.Fprintf(global.Output(), "  list                                 List activities and participants\n")
		fmt.Fprintf(global.Output(), "  signup -activity NAME -email EMAIL   Sign a student up\n")
		fmt.Fprintf(global.Output(), "  unregister -activity NAME -email EMAIL\n")
		fmt.Fprintf(global.Output(), "                                       Remove a student\n")
		fmt.Fprintf(global.Output(), "  report                               Show the roster summary\n")
		fmt.Fprintf(global.Output(), "  version                              Show client and server versions\n\n")
		fmt.Fprintf(global.Output(), "Options:\n")
		global.PrintDefaults()
	}
	if err := global.Parse(argv); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("command is required")
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: "text", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()
	client, err := rosterclient.New(*server, rosterclient.WithLogger(logger.Logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "list":
		return list(ctx, client, out)
	case "signup":
		return change(ctx, cmd, rest, out, client.Signup)
	case "unregister":
		return change(ctx, cmd, rest, out, client.Unregister)
	case "report":
		return showReport(ctx, client, out)
	case "version":
		return version(ctx, client, out)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func list(ctx context.Context, client *rosterclient.Client, out io.Writer) error {
	activities, err := client.Activities(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(activities))
	for name := range activities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := activities[name]
		fmt.Fprintf(out, "%s (%d/%d)\n", name, len(a.Participants), a.MaxParticipants)
		fmt.Fprintf(out, "  %s\n", a.Schedule)
		if len(a.Participants) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(a.Participants, ", "))
		}
	}
	return nil
}

type changeFunc func(ctx context.Context, activity, email string) (string, error)

func change(ctx context.Context, cmd string, argv []string, out io.Writer, fn changeFunc) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	activity := fs.String("activity", "", "Activity name")
	email := fs.String("email", "", "Student email")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *activity == "" || *email == "" {
		return fmt.Errorf("%s requires -activity and -email", cmd)
	}

	msg, err := fn(ctx, *activity, *email)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, msg)
	return nil
}

func showReport(ctx context.Context, client *rosterclient.Client, out io.Writer) error {
	summary, err := client.Report(ctx)
	if err != nil {
		return err
	}
	for _, a := range summary.Activities {
		fmt.Fprintf(out, "%-20s %3d/%-3d %5.1f%%\n", a.Name, a.Participants, a.Capacity, a.FillRatio*100)
	}
	fmt.Fprintf(out, "%-20s %3d/%-3d\n", "total", summary.TotalParticipants, summary.TotalCapacity)
	return nil
}

func version(ctx context.Context, client *rosterclient.Client, out io.Writer) error {
	fmt.Fprintf(out, "client: %s\n", buildinfo.Get())
	props, err := client.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "server: %s\n", props)
	return nil
}
