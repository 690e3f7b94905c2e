// Command vcenter-session logs in to a vCenter Server, prints the session
// status and logs out again. It is a quick way to check credentials and
// certificate trust against a host.
//
// Password can be provided via:
//   - -pass flag (least secure, visible in process list)
//   - VCENTER_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// Usage:
//
//	vcenter-session -server <hostname> -user <username> [-insecure]
//
// Examples:
//
//	export VCENTER_PASSWORD='secret'
//	vcenter-session -server vc01.example.com -user administrator@vsphere.local
//
//	# Lab host with a self-signed certificate, debug log to a file
//	vcenter-session -server 10.0.0.5 -user root -insecure -loglevel debug -logfile /tmp/vc.log
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/smnsjas/go-vcenter/cis"
	vclog "github.com/smnsjas/go-vcenter/internal/log"
	"github.com/smnsjas/go-vcenter/rest/auth"
	"golang.org/x/term"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain runs the command and returns its exit code, so that deferred
// cleanup (the log file) happens before the process exits.
func realMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vcenter-session", flag.ContinueOnError)
	fs.SetOutput(stderr)

	server := fs.String("server", "", "vCenter hostname (optionally host:port)")
	username := fs.String("user", "", "Username for authentication (e.g. administrator@vsphere.local)")
	password := fs.String("pass", "", "Password (use VCENTER_PASSWORD env var instead)")
	insecure := fs.Bool("insecure", false, "Skip TLS certificate verification")
	caFile := fs.String("cacert", "", "PEM bundle of additional trusted CAs (e.g. the VMCA root)")
	proxy := fs.String("proxy", "", "Proxy URL, or 'direct' to bypass HTTPS_PROXY")
	timeout := fs.Duration("timeout", 60*time.Second, "Overall timeout")
	logLevel := fs.String("loglevel", "", "Log level: debug, info, warn, error (empty = no logging)")
	logFile := fs.String("logfile", "", "Write logs to this file instead of stderr (rotated at 10MB)")
	keep := fs.Bool("keep", false, "Do not log out; print the session status only")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *server == "" {
		fmt.Fprintln(stderr, "Error: -server is required")
		fs.Usage()
		return 1
	}
	creds := auth.Credentials{Username: *username}
	if err := creds.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: -user: %v\n", err)
		fs.Usage()
		return 1
	}

	cfg := cis.DefaultConfig()
	cfg.InsecureSkipVerify = *insecure
	cfg.CAFile = *caFile
	cfg.Proxy = *proxy
	cfg.Timeout = *timeout

	session, err := cis.NewSessionWithConfig(*server, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating session: %v\n", err)
		return 1
	}

	if *logLevel != "" {
		logger, closer, err := newLogger(*logLevel, *logFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer closer.Close()
		session.SetSlogLogger(logger)
	}

	creds.Password = getPassword(*password)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, session, creds, *keep, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// errLoginRejected is returned by run when the server refuses the credentials.
var errLoginRejected = errors.New("login rejected: invalid username or password")

// run performs login, status and (unless keep) logout, writing a report to out.
func run(ctx context.Context, session *cis.Session, creds auth.Credentials, keep bool, out io.Writer) error {
	fmt.Fprintf(out, "Connecting to %s...\n", session.Hostname())

	ok, err := session.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		return errLoginRejected
	}
	fmt.Fprintf(out, "Logged in as %s\n", creds.Username)

	status, err := session.LoginStatus(ctx)
	if err != nil {
		// Best-effort logout so the server session does not linger
		_ = session.Logout(ctx)
		return fmt.Errorf("login status: %w", err)
	}
	fmt.Fprintf(out, "Session user:   %s\n", status.User)
	fmt.Fprintf(out, "Created:        %s\n", status.CreatedTime.Format(time.RFC3339))
	fmt.Fprintf(out, "Last accessed:  %s\n", status.LastAccessedTime.Format(time.RFC3339))

	if keep {
		fmt.Fprintln(out, "Session kept open (-keep)")
		return nil
	}

	if err := session.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

// newLogger builds a redacting text logger writing to stderr or a rotating file.
func newLogger(level, path string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level '%s'. Valid values: debug, info, warn, error", level)
	}

	var w io.WriteCloser = nopCloser{os.Stderr}
	if path != "" {
		rf, err := vclog.NewRotatingFile(path, vclog.DefaultMaxSize, vclog.DefaultMaxBackups)
		if err != nil {
			return nil, nil, err
		}
		w = rf
	}

	handler := vclog.NewRedactingHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return slog.New(handler), w, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// getPassword returns password from flag, env var, or prompts for it.
func getPassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPass := os.Getenv("VCENTER_PASSWORD"); envPass != "" {
		return envPass
	}

	fmt.Fprint(os.Stderr, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return string(passBytes)
	}

	// Not a terminal (piped input): read line
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
