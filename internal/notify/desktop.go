package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Desktop delivers notifications through the operating system's native
// notification mechanism: osascript on macOS, notify-send on Linux,
// PowerShell toasts on Windows.
type Desktop struct {
	goos string
}

// NewDesktop creates a desktop notification channel for the current platform.
func NewDesktop() *Desktop {
	return &Desktop{goos: runtime.GOOS}
}

// Send shows a desktop notification.
func (d *Desktop) Send(ctx context.Context, title, message string) error {
	var cmd *exec.Cmd

	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", title, message)
	case "windows":
		script := fmt.Sprintf(
			`[System.Reflection.Assembly]::LoadWithPartialName('System.Windows.Forms') | Out-Null; `+
				`$n = New-Object System.Windows.Forms.NotifyIcon; `+
				`$n.Icon = [System.Drawing.SystemIcons]::Information; `+
				`$n.Visible = $true; `+
				`$n.ShowBalloonTip(10000, %s, %s, [System.Windows.Forms.ToolTipIcon]::Info)`,
			psQuote(title), psQuote(message))
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script)
	default:
		return fmt.Errorf("desktop notifications not supported on %s", d.goos)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", err)
	}
	return nil
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
