package repl

import (
	"strings"
	"testing"
)

func TestHelpMessage(t *testing.T) {
	help := helpMessage()

	for _, command := range []string{"help", "vars", "loads", "libs", "reset", "clear", "quit"} {
		if !strings.Contains(help, "  "+command+" ") {
			t.Errorf("help does not describe %q", command)
		}
	}

	if !strings.HasPrefix(help, "\n") {
		t.Error("help should start on its own line")
	}
}
