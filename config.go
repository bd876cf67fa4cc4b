package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	quizPort      int
	buzzPort      int
	webPort       int
	questions     string
	raceWindow    time.Duration
	answerTimeout time.Duration
	revealPause   time.Duration
	outcomePause  time.Duration
	nextPause     time.Duration
	acceptTimeout time.Duration
	readTimeout   time.Duration
	profile       bool
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	for _, port := range []int{c.quizPort, c.buzzPort, c.webPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", port)
		}
	}
	if c.questions == "" {
		return errors.New("a question directory must be provided via --questions")
	}
	for _, d := range []time.Duration{c.raceWindow, c.answerTimeout, c.acceptTimeout, c.readTimeout} {
		if d <= 0 {
			return fmt.Errorf("timeouts must be positive: %v", d)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BUZZBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "buzzbox",
		Short:         "A realtime multi-client quiz show server, raced over UDP and scored over TCP.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BUZZBOX_BIND)")
	fs.IntVarP(&cfg.quizPort, "port", "p", 3849, "tcp port for the client control channel (env: BUZZBOX_PORT)")
	fs.IntVar(&cfg.buzzPort, "buzz-port", 3849, "udp port for the buzz race channel (env: BUZZBOX_BUZZ_PORT)")
	fs.IntVar(&cfg.webPort, "web-port", 8080, "port for the operator web interface (env: BUZZBOX_WEB_PORT)")
	fs.StringVarP(&cfg.questions, "questions", "q", "questions", "directory containing question<N>.txt files and answer_key.txt (env: BUZZBOX_QUESTIONS)")
	fs.DurationVar(&cfg.raceWindow, "race-window", 15*time.Second, "how long clients have to buzz after a question (env: BUZZBOX_RACE_WINDOW)")
	fs.DurationVar(&cfg.answerTimeout, "answer-timeout", 10*time.Second, "how long the buzz winner has to answer (env: BUZZBOX_ANSWER_TIMEOUT)")
	fs.DurationVar(&cfg.revealPause, "reveal-pause", 2*time.Second, "pause after broadcasting a question, so clients can render it (env: BUZZBOX_REVEAL_PAUSE)")
	fs.DurationVar(&cfg.outcomePause, "outcome-pause", 4*time.Second, "pause after scoring, so clients can display the outcome (env: BUZZBOX_OUTCOME_PAUSE)")
	fs.DurationVar(&cfg.nextPause, "next-pause", 100*time.Millisecond, "pause after telling clients to advance (env: BUZZBOX_NEXT_PAUSE)")
	fs.DurationVar(&cfg.acceptTimeout, "accept-timeout", time.Second, "accept deadline, bounds each pass of the connection loop (env: BUZZBOX_ACCEPT_TIMEOUT)")
	fs.DurationVar(&cfg.readTimeout, "read-timeout", time.Second, "read deadline, bounds each pass of a client receive loop (env: BUZZBOX_READ_TIMEOUT)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: BUZZBOX_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate for the web interface (env: BUZZBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile for the web interface (env: BUZZBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: BUZZBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: BUZZBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("buzzbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
