package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/xapet-0/openclaw/internal/config"
)

// ensureBrowser makes cfg.CdpURL point at a live DevTools endpoint.
// With CDP_URL configured the browser is the caller's and we only
// verify it answers. Otherwise a Chrome is launched on the debug port
// with the configured profile, and the returned stop function owns it.
func ensureBrowser(cfg *config.RuntimeConfig) (func(), error) {
	if cfg.CdpURL != "" {
		slog.Info("attaching to browser", "url", cfg.CdpURL)
		if err := probeCDP(cfg.CdpURL, 3*time.Second); err != nil {
			slog.Warn("browser endpoint not answering yet", "url", cfg.CdpURL, "err", err)
		}
		return func() {}, nil
	}

	endpoint := "http://127.0.0.1:" + cfg.DebugPort
	if err := probeCDP(endpoint, time.Second); err == nil {
		slog.Info("reusing browser already on debug port", "url", endpoint)
		cfg.CdpURL = endpoint
		return func() {}, nil
	}

	binary := cfg.ChromeBinary
	if binary == "" {
		var err error
		binary, err = findChrome()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(cfg.ProfileDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create profile dir: %w", err)
	}
	for _, lockName := range []string{"SingletonLock", "SingletonSocket", "SingletonCookie"} {
		if err := os.Remove(filepath.Join(cfg.ProfileDir, lockName)); err == nil {
			slog.Warn("removed stale lock", "file", lockName)
		}
	}

	args := chromeArgs(cfg)
	slog.Info("launching browser", "binary", binary, "profile", cfg.ProfileDir, "headless", cfg.Headless)

	cmd := exec.Command(binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	if err := waitForCDP(endpoint, chromeStartTimeout); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	cfg.CdpURL = endpoint
	slog.Info("browser ready", "url", endpoint, "pid", cmd.Process.Pid)

	stop := func() {
		if cmd.Process == nil {
			return
		}
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() {
			_, _ = cmd.Process.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			slog.Warn("browser did not exit, killing", "pid", cmd.Process.Pid)
			_ = cmd.Process.Kill()
		}
	}
	return stop, nil
}

// chromeArgs translates the runtime config into Chrome's command line.
func chromeArgs(cfg *config.RuntimeConfig) []string {
	args := []string{
		"--remote-debugging-port=" + cfg.DebugPort,
		"--user-data-dir=" + cfg.ProfileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-infobars",
		"--disable-dev-shm-usage",
		"--disable-background-timer-throttling",
		"--disable-backgrounding-occluded-windows",
		"--disable-renderer-backgrounding",
		"--disable-hang-monitor",
		"--disable-prompt-on-repost",
		"--disable-sync",
		"--disable-session-crashed-bubble",
		"--hide-crash-restore-bubble",
		"--disable-popup-blocking",
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	if cfg.ChromeExtraFlags != "" {
		for _, f := range strings.Fields(cfg.ChromeExtraFlags) {
			if !strings.HasPrefix(f, "-") {
				f = "--" + f
			}
			args = append(args, f)
		}
	}
	return args
}

var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"brave-browser",
	"microsoft-edge",
}

func findChrome() (string, error) {
	if runtime.GOOS == "darwin" {
		for _, p := range []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		} {
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	for _, name := range chromeCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no Chrome binary found, set CHROME_BINARY or start Chrome with --remote-debugging-port and set CDP_URL")
}

// probeCDP asks the DevTools version endpoint whether anyone is home.
func probeCDP(endpoint string, timeout time.Duration) error {
	if !strings.HasPrefix(endpoint, "http") {
		// ws:// endpoints skip the HTTP probe, the first turn will find out.
		return nil
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(strings.TrimRight(endpoint, "/") + "/json/version")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("devtools endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func waitForCDP(endpoint string, maxWait time.Duration) error {
	started := time.Now()
	pollInterval := 100 * time.Millisecond
	for time.Since(started) < maxWait {
		if err := probeCDP(endpoint, time.Second); err == nil {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("browser did not expose %s within %s", endpoint, maxWait)
}
