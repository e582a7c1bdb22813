package bot

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// parseCommand splits "/cmd@botname arg1 arg2" into "/cmd" and its args.
func parseCommand(s string) (string, []string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", nil
	}
	command, _, _ := strings.Cut(parts[0], "@")
	return strings.ToLower(command), parts[1:]
}
