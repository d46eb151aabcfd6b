package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"xscraper/pkg/harvest"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to a platform notification tool
type commandSender struct {
	name string
	args func(title, message string) []string
}

func (c commandSender) Send(title, message string) error {
	return exec.Command(c.name, c.args(title, message)...).Run()
}

var desktopSenders = map[string]commandSender{
	"linux": {
		name: "notify-send",
		args: func(title, message string) []string {
			return []string{"--app-name=xscraper", title, message}
		},
	},
	"darwin": {
		name: "osascript",
		args: func(title, message string) []string {
			return []string{"-e", fmt.Sprintf(`display notification %q with title %q`, message, title)}
		},
	},
	"windows": {
		name: "powershell",
		args: func(title, message string) []string {
			script := fmt.Sprintf(
				`New-BurntToastNotification -AppLogo $null -Text %q, %q`, title, message)
			return []string{"-NoProfile", "-NonInteractive", "-Command", script}
		},
	},
}

// Notifier announces finished harvests on the console and, when a sender
// exists for the platform, on the desktop
type Notifier struct {
	sender NotificationSender
	out    io.Writer
}

// NewNotifier picks the desktop sender for the running platform
func NewNotifier() *Notifier {
	var sender NotificationSender
	if s, ok := desktopSenders[runtime.GOOS]; ok {
		sender = s
	}
	return NewNotifierWithSender(sender, os.Stdout)
}

// NewNotifierWithSender prints to out and forwards to sender, which may be nil
func NewNotifierWithSender(sender NotificationSender, out io.Writer) *Notifier {
	if out == nil {
		out = io.Discard
	}
	return &Notifier{sender: sender, out: out}
}

func (n *Notifier) emit(color func(string) string, title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", color(title), message)
	if n.sender != nil {
		// a missing notification daemon is not worth failing a run over
		_ = n.sender.Send(title, message)
	}
}

// NotifyResult announces how a harvest session ended
func (n *Notifier) NotifyResult(res *harvest.Result) {
	if res == nil {
		return
	}
	title := "Harvest " + res.Label
	msg := fmt.Sprintf("%d posts in %d passes (%s)", len(res.Records), res.Passes, res.Reason)

	switch res.Reason {
	case harvest.ReasonSuccess:
		n.emit(Green, title, msg)
	case harvest.ReasonDriverError, harvest.ReasonFatalConfig:
		if res.Err != nil {
			msg += ": " + res.Err.Error()
		}
		n.emit(Red, title, msg)
	default:
		n.emit(Yellow, title, msg)
	}
}
