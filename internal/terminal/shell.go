package terminal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultShell resolves the interactive shell from the environment with
// a platform-appropriate fallback.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}

// loginCapable reports whether the shell benefits from being launched
// with login/interactive flags. Matched by executable basename.
func loginCapable(shell string) bool {
	base := strings.ToLower(filepath.Base(shell))
	return base == "bash" || base == "zsh"
}

// sessionEnv returns the terminal-capability environment injected into
// non-Windows sessions. COLORFGBG lets TUI apps detect light/dark mode
// ("231;16" is white-on-black, "16;231" black-on-white).
func sessionEnv(darkMode bool) []string {
	colorfgbg := "16;231"
	if darkMode {
		colorfgbg = "231;16"
	}
	return []string{
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"TERM_PROGRAM=Autopilot",
		"COLORFGBG=" + colorfgbg,
	}
}

// commandLine joins a command and its arguments into the string handed
// to the shell's -c flag.
func commandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}
