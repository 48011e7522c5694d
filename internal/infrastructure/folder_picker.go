package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrPickerUnsupported is returned on platforms without a known dialog helper
var ErrPickerUnsupported = errors.New("no native folder picker available on this platform")

// NativeFolderPicker opens the platform's directory chooser through a helper
// executable (osascript on macOS, zenity on Linux, PowerShell on Windows)
type NativeFolderPicker struct {
	goos string
}

// NewNativeFolderPicker creates a picker for the running platform
func NewNativeFolderPicker() *NativeFolderPicker {
	return &NativeFolderPicker{goos: runtime.GOOS}
}

// PickFolder shows the dialog and returns the chosen directory. A cancelled
// dialog returns an empty path and no error.
func (p *NativeFolderPicker) PickFolder(ctx context.Context, prompt string) (string, error) {
	name, args, err := folderPickerCommand(p.goos, prompt)
	if err != nil {
		return "", err
	}

	output, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// every helper exits non-zero when the user cancels
			return "", nil
		}
		return "", fmt.Errorf("failed to open folder picker: %w", err)
	}

	return strings.TrimRight(strings.TrimSpace(string(output)), "/\\"), nil
}

// folderPickerCommand returns the helper invocation for a platform
func folderPickerCommand(goos, prompt string) (string, []string, error) {
	if prompt == "" {
		prompt = "Select output folder"
	}

	switch goos {
	case "darwin":
		script := fmt.Sprintf(`POSIX path of (choose folder with prompt "%s")`, escapeAppleScript(prompt))
		return "osascript", []string{"-e", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "zenity", []string{"--file-selection", "--directory", "--title=" + prompt}, nil
	case "windows":
		script := "Add-Type -AssemblyName System.Windows.Forms;" +
			"$d = New-Object System.Windows.Forms.FolderBrowserDialog;" +
			"$d.Description = '" + strings.ReplaceAll(prompt, "'", "''") + "';" +
			"if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath } else { exit 1 }"
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	default:
		return "", nil, ErrPickerUnsupported
	}
}

// escapeAppleScript escapes a string for use inside an AppleScript literal
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
