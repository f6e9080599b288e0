package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultURLPattern matches the chat platforms the bridge knows how to
// drive. Tab selection and platform detection fall back to it when no
// override is configured.
const DefaultURLPattern = `chatgpt\.com|chat\.openai\.com|claude\.ai|gemini\.google\.com|chat\.deepseek\.com|grok\.com|perplexity\.ai`

type RuntimeConfig struct {
	Bind             string
	Port             string
	CdpURL           string
	DebugPort        string
	Token            string
	StateDir         string
	Headless         bool
	ProfileDir       string
	ChromeBinary     string
	ChromeExtraFlags string
	URLPattern       string
	PlatformsPath    string
	TurnLogPath      string
	ResponseTimeout  time.Duration
	TypeDelay        time.Duration
	ActionTimeout    time.Duration
	ShutdownTimeout  time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

func (c *RuntimeConfig) ListenAddr() string {
	return c.Bind + ":" + c.Port
}

type FileConfig struct {
	Port          string `json:"port"`
	CdpURL        string `json:"cdpUrl,omitempty"`
	Token         string `json:"token,omitempty"`
	StateDir      string `json:"stateDir"`
	ProfileDir    string `json:"profileDir"`
	Headless      *bool  `json:"headless,omitempty"`
	URLPattern    string `json:"urlPattern,omitempty"`
	PlatformsPath string `json:"platformsPath,omitempty"`
	TurnLog       string `json:"turnLog,omitempty"`
	TimeoutSec    int    `json:"timeoutSec,omitempty"`
	TypeDelayMs   int    `json:"typeDelayMs,omitempty"`
}

func Load() *RuntimeConfig {
	cfg := &RuntimeConfig{
		Bind:             envOr("CLAW_BIND", "127.0.0.1"),
		Port:             envOr("CLAW_PORT", "9871"),
		CdpURL:           os.Getenv("CDP_URL"),
		DebugPort:        envOr("CLAW_DEBUG_PORT", "9222"),
		Token:            os.Getenv("CLAW_TOKEN"),
		StateDir:         envOr("CLAW_STATE_DIR", filepath.Join(homeDir(), ".openclaw")),
		Headless:         envBoolOr("CLAW_HEADLESS", false),
		ProfileDir:       envOr("CLAW_PROFILE", filepath.Join(homeDir(), ".openclaw", "chrome-profile")),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		URLPattern:       envOr("CLAW_URL_PATTERN", DefaultURLPattern),
		PlatformsPath:    envOr("CLAW_PLATFORMS", filepath.Join(homeDir(), ".openclaw", "platforms.yaml")),
		TurnLogPath:      os.Getenv("CLAW_TURNLOG"),
		ResponseTimeout:  time.Duration(envIntOr("CLAW_TIMEOUT", 120)) * time.Second,
		TypeDelay:        time.Duration(envIntOr("CLAW_TYPE_DELAY_MS", 12)) * time.Millisecond,
		ActionTimeout:    15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}

	configPath := envOr("CLAW_CONFIG", filepath.Join(homeDir(), ".openclaw", "config.json"))

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg
	}

	if fc.Port != "" && os.Getenv("CLAW_PORT") == "" {
		cfg.Port = fc.Port
	}
	if fc.CdpURL != "" && os.Getenv("CDP_URL") == "" {
		cfg.CdpURL = fc.CdpURL
	}
	if fc.Token != "" && os.Getenv("CLAW_TOKEN") == "" {
		cfg.Token = fc.Token
	}
	if fc.StateDir != "" && os.Getenv("CLAW_STATE_DIR") == "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.ProfileDir != "" && os.Getenv("CLAW_PROFILE") == "" {
		cfg.ProfileDir = fc.ProfileDir
	}
	if fc.Headless != nil && os.Getenv("CLAW_HEADLESS") == "" {
		cfg.Headless = *fc.Headless
	}
	if fc.URLPattern != "" && os.Getenv("CLAW_URL_PATTERN") == "" {
		cfg.URLPattern = fc.URLPattern
	}
	if fc.PlatformsPath != "" && os.Getenv("CLAW_PLATFORMS") == "" {
		cfg.PlatformsPath = fc.PlatformsPath
	}
	if fc.TurnLog != "" && os.Getenv("CLAW_TURNLOG") == "" {
		cfg.TurnLogPath = fc.TurnLog
	}
	if fc.TimeoutSec > 0 && os.Getenv("CLAW_TIMEOUT") == "" {
		cfg.ResponseTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}
	if fc.TypeDelayMs > 0 && os.Getenv("CLAW_TYPE_DELAY_MS") == "" {
		cfg.TypeDelay = time.Duration(fc.TypeDelayMs) * time.Millisecond
	}

	return cfg
}

func DefaultFileConfig() FileConfig {
	h := false
	return FileConfig{
		Port:        "9871",
		StateDir:    filepath.Join(homeDir(), ".openclaw"),
		ProfileDir:  filepath.Join(homeDir(), ".openclaw", "chrome-profile"),
		Headless:    &h,
		TimeoutSec:  120,
		TypeDelayMs: 12,
	}
}

func HandleConfigCommand(cfg *RuntimeConfig) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: openclaw config <command>")
		fmt.Println("Commands:")
		fmt.Println("  init    - Create default config file")
		fmt.Println("  show    - Show current configuration")
		return
	}

	switch os.Args[2] {
	case "init":
		configPath := filepath.Join(homeDir(), ".openclaw", "config.json")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Config file already exists at %s\n", configPath)
			fmt.Print("Overwrite? (y/N): ")
			var response string
			_, _ = fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				return
			}
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			fmt.Printf("Error creating directory: %v\n", err)
			os.Exit(1)
		}

		fc := DefaultFileConfig()
		data, _ := json.MarshalIndent(fc, "", "  ")
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Config file created at %s\n", configPath)
		fmt.Println("\nExample enabling the turn log and an auth token:")
		fmt.Println(`{
  "port": "9871",
  "token": "your-secret-token",
  "turnLog": "` + filepath.Join(fc.StateDir, "turns.db") + `",
  "stateDir": "` + fc.StateDir + `",
  "profileDir": "` + fc.ProfileDir + `"
}`)

	case "show":
		fmt.Println("Current configuration:")
		fmt.Printf("  Port:        %s\n", cfg.Port)
		fmt.Printf("  CDP URL:     %s\n", cfg.CdpURL)
		fmt.Printf("  Token:       %s\n", MaskToken(cfg.Token))
		fmt.Printf("  State Dir:   %s\n", cfg.StateDir)
		fmt.Printf("  Profile:     %s\n", cfg.ProfileDir)
		fmt.Printf("  Headless:    %v\n", cfg.Headless)
		fmt.Printf("  URL Pattern: %s\n", cfg.URLPattern)
		fmt.Printf("  Platforms:   %s\n", cfg.PlatformsPath)
		fmt.Printf("  Turn Log:    %s\n", orNone(cfg.TurnLogPath))
		fmt.Printf("  Timeouts:    response=%v action=%v\n", cfg.ResponseTimeout, cfg.ActionTimeout)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[2])
		os.Exit(1)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

func MaskToken(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
