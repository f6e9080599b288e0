package bridge

import (
	"errors"
	"fmt"
)

// Failure taxonomy for one chat invocation. Every failure is converted
// into the single terminal error event at the pipeline boundary; none
// of these escape to the caller as a returned error.
var (
	ErrEmptyPrompt          = errors.New("latest user turn has no text")
	ErrNoOpenPages          = errors.New("no open pages in the connected browser")
	ErrNoSelectablePage     = errors.New("no open page matches the requested platform")
	ErrInputNotFound        = errors.New("no visible input control matched any locator rule")
	ErrResponseStartTimeout = errors.New("timed out waiting for a reply to start")
	ErrCompletionTimeout    = errors.New("timed out waiting for the reply to finish")
	ErrEmptyResponse        = errors.New("reply blocks matched but contained no text")
	ErrChannelConnect       = errors.New("browser control channel connect failed")
)

var errHints = map[error]string{
	ErrChannelConnect:       "is Chrome running with --remote-debugging-port, and is CDP_URL correct?",
	ErrNoOpenPages:          "open the chat platform in a browser tab first",
	ErrNoSelectablePage:     "open the requested platform in a tab, or drop the platform filter",
	ErrInputNotFound:        "the page may still be loading, or its DOM changed; selector overrides can be added to the platforms file",
	ErrResponseStartTimeout: "the platform may be rate-limiting or showing a dialog that blocks submission",
	ErrCompletionTimeout:    "the reply may still be generating; raise the timeout for long generations",
}

// diagnose renders err as the human-readable text carried by the
// terminal error event, appending a usage hint for known failures.
// Anything outside the taxonomy is labeled as an unexpected failure.
func diagnose(err error) string {
	for sentinel, hint := range errHints {
		if errors.Is(err, sentinel) {
			return fmt.Sprintf("%v (%s)", err, hint)
		}
	}
	if known(err) {
		return err.Error()
	}
	return fmt.Sprintf("unexpected failure: %v", err)
}

func known(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyPrompt, ErrNoOpenPages, ErrNoSelectablePage, ErrInputNotFound,
		ErrResponseStartTimeout, ErrCompletionTimeout, ErrEmptyResponse, ErrChannelConnect,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
