// foamdictd serves a case's dictionaries over HTTP.
//
// It loads and merges the case files, exposes lookup, expansion and a
// candidate/commit editing workflow on the API, and optionally runs the
// interactive shell on the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/psaab/foamdict/pkg/daemon"
	"github.com/psaab/foamdict/pkg/dictionary"
	"github.com/psaab/foamdict/pkg/logging"
)

func main() {
	caseFiles := flag.String("case", "system/controlDict", "comma-separated dictionary files, merged in order")
	name := flag.String("name", "case", "name of the merged top-level dictionary")
	policy := flag.String("policy", "warn", "merge policy between case files (warn, keep, overwrite, append)")
	inputMode := flag.String("input-mode", "merge", "duplicate keyword handling while reading (merge, overwrite, protect, warn, error)")
	expandVars := flag.Bool("expand", true, "expand $variables while reading")
	allowEnv := flag.Bool("env", false, "let expansion fall back to environment variables")
	apiAddr := flag.String("api-addr", "127.0.0.1:8080", "HTTP API listen address (empty to disable)")
	authFile := flag.String("auth", "", "dictionary file with API users and apiKeys")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS key file")
	savePath := flag.String("save", "", "write the active dictionary here after each commit")
	historySize := flag.Int("history", 50, "number of commits kept for rollback")
	shell := flag.Bool("shell", false, "run the interactive shell on the terminal")
	debug := flag.Bool("debug", false, "enable debug logging")
	logJSON := flag.Bool("log-json", false, "log in JSON format")
	syslogAddr := flag.String("syslog", "", "forward warnings to this UDP syslog server (host:port)")
	logFile := flag.String("log-file", "", "also write warnings to this file, rotated at 10MB")
	flag.Parse()

	mergePolicy, err := dictionary.ParseMergePolicy(*policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foamdictd: %v\n", err)
		os.Exit(2)
	}
	mode, err := dictionary.ParseInputMode(*inputMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foamdictd: %v\n", err)
		os.Exit(2)
	}

	// Set up structured logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	var sinks []logging.Sink
	if *syslogAddr != "" {
		s, err := logging.NewSyslogSink(*syslogAddr, "foamdictd")
		if err != nil {
			fmt.Fprintf(os.Stderr, "foamdictd: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, s)
	}
	if *logFile != "" {
		s, err := logging.NewFileSink(logging.FileSinkConfig{Path: *logFile})
		if err != nil {
			fmt.Fprintf(os.Stderr, "foamdictd: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, s)
	}
	logs := logging.NewRecordBuffer(1000)
	logging.Setup(os.Stderr, logging.Options{
		Level:       logLevel,
		JSON:        *logJSON,
		Buffer:      logs,
		BufferLevel: slog.LevelWarn,
		Sinks:       sinks,
		SinkLevel:   slog.LevelWarn,
	})

	var files []string
	for _, f := range strings.Split(*caseFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}

	d := daemon.New(daemon.Options{
		Name:      *name,
		CaseFiles: files,
		Policy:    mergePolicy,
		Parse: dictionary.ParseOptions{
			InputMode:       mode,
			ExpandVariables: *expandVars,
			AllowEnv:        *allowEnv,
		},
		SavePath:    *savePath,
		HistorySize: *historySize,
		APIAddr:     *apiAddr,
		AuthFile:    *authFile,
		TLSCert:     *tlsCert,
		TLSKey:      *tlsKey,
		AllowEnv:    *allowEnv,
		Shell:       *shell,
		HistoryFile: "/tmp/foamdictd_history",
		Logs:        logs,
	})

	err = d.Run(context.Background())
	for _, s := range sinks {
		s.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "foamdictd: %v\n", err)
		os.Exit(1)
	}
}
