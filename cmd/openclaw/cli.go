package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/xapet-0/openclaw/internal/api/types"
	"github.com/xapet-0/openclaw/internal/bridge"
	"github.com/xapet-0/openclaw/internal/config"
)

func printHelp() {
	fmt.Printf(`openclaw %s — chat with the AI tabs already open in your browser

MODES:
  openclaw [serve]          Start the API server (default port 9871)
  openclaw send <prompt>    Run one chat turn straight against the browser
  openclaw platforms        List known platforms and their selectors
  openclaw config init      Create a default config file
  openclaw config show      Show the effective configuration

SEND FLAGS:
  -p, -platform <id>    Only talk to this platform (chatgpt, claude, gemini,
                        deepseek, grok, perplexity)
  -t, -timeout <sec>    How long to wait for the reply (default 120)
  -session <id>         Session id recorded in the turn log
  -cdp <url>            DevTools endpoint for this turn
  -pattern <regex>      Tab URL filter for this turn
  -json                 Print the terminal event as JSON
  -stream               Print every stream event as a JSON line

  A prompt of "-" reads the prompt from stdin.

ENVIRONMENT:
  CDP_URL               Attach to this browser instead of launching one
  CLAW_PORT             Server port (default: 9871)
  CLAW_TOKEN            Require this bearer token on the API
  CLAW_HEADLESS         Launch Chrome headless (default: false)
  CLAW_TIMEOUT          Reply wait in seconds (default: 120)
  CLAW_PLATFORMS        Platform override file (YAML)
  CLAW_TURNLOG          SQLite file for the turn log (empty: disabled)

Examples:
  openclaw send "what is a monad"
  openclaw send -p claude -t 300 "summarize this"
  git diff | openclaw send -p chatgpt -
  curl -N -X POST localhost:9871/chat -d '{"messages":[{"role":"user","content":"hi"}],"stream":true}'
`, version)
}

type sendOptions struct {
	req       types.ChatRequest
	prompt    string
	printJSON bool
	stream    bool
}

func parseSendArgs(args []string) (sendOptions, error) {
	var opts sendOptions
	var words []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p", "-platform", "--platform":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-platform needs a value")
			}
			i++
			opts.req.Platform = args[i]
		case "-t", "-timeout", "--timeout":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-timeout needs a value")
			}
			i++
			sec, err := strconv.Atoi(args[i])
			if err != nil || sec <= 0 {
				return opts, fmt.Errorf("timeout must be a positive number of seconds, got %q", args[i])
			}
			opts.req.TimeoutSec = sec
		case "-session", "--session":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-session needs a value")
			}
			i++
			opts.req.SessionID = args[i]
		case "-cdp", "--cdp":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-cdp needs a value")
			}
			i++
			opts.req.CdpURL = args[i]
		case "-pattern", "--pattern":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("-pattern needs a value")
			}
			i++
			opts.req.URLPattern = args[i]
		case "-json", "--json":
			opts.printJSON = true
		case "-stream", "--stream":
			opts.stream = true
		default:
			words = append(words, args[i])
		}
	}

	opts.prompt = strings.Join(words, " ")
	return opts, nil
}

// runSend drives one turn in-process: no server, just this process and
// the browser. Exit status follows the terminal event.
func runSend(cfg *config.RuntimeConfig, args []string) {
	opts, err := parseSendArgs(args)
	if err != nil {
		fatal("%v  (see openclaw help)", err)
	}

	prompt := opts.prompt
	if prompt == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("read stdin: %v", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		fatal("Usage: openclaw send [flags] <prompt>   (see openclaw help)")
	}

	req := opts.req
	req.Messages = []types.Message{{Role: "user", Content: prompt}}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if cfg.CdpURL == "" {
		cfg.CdpURL = "http://127.0.0.1:" + cfg.DebugPort
	}

	registry, err := bridge.NewRegistry(cfg.PlatformsPath)
	if err != nil {
		fatal("platforms file rejected: %v", err)
	}
	b := bridge.New(cfg, registry)

	var terminal types.StreamEvent
	for ev := range b.Chat(context.Background(), req) {
		if opts.stream {
			line, _ := json.Marshal(ev)
			fmt.Println(string(line))
		}
		if ev.Type.Terminal() {
			terminal = ev
		}
	}

	switch {
	case opts.stream:
		// already printed everything
	case opts.printJSON:
		out, _ := json.MarshalIndent(terminal, "", "  ")
		fmt.Println(string(out))
	case terminal.Type == types.EventDone:
		fmt.Println(terminal.Message.Text())
	}

	if terminal.Type != types.EventDone {
		if !opts.stream && !opts.printJSON {
			fmt.Fprintf(os.Stderr, "Error: %s\n", terminal.Error)
		}
		os.Exit(1)
	}
}

// runPlatforms prints the registry the way a turn would see it, with
// any override file already applied.
func runPlatforms(cfg *config.RuntimeConfig) {
	registry, err := bridge.NewRegistry(cfg.PlatformsPath)
	if err != nil {
		fatal("platforms file rejected: %v", err)
	}

	if _, err := os.Stat(cfg.PlatformsPath); err == nil {
		fmt.Printf("Overrides: %s\n\n", cfg.PlatformsPath)
	}
	for _, p := range registry.All() {
		rules := bridge.Resolve(&p)
		fmt.Printf("%-12s hosts: %s\n", p.ID, strings.Join(p.URLHints, ", "))
		fmt.Printf("%-12s rules: input=%d send=%d stop=%d response=%d fingerprint=%d\n",
			"", len(rules.Input), len(rules.SendControl), len(rules.StopControl),
			len(rules.ResponseBlock), len(rules.Fingerprint))
	}
	fmt.Printf("%-12s fallback when no fingerprint or URL matches\n", bridge.PlatformUnknown)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
