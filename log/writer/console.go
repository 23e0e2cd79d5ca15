package writer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console writes human readable lines to stderr so stdout stays free for
// command output.
func Console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         os.Stderr,
		TimeFormat:  time.TimeOnly,
		FormatLevel: formatLevel,
	}
}

func formatLevel(i any) string {
	return strings.ToUpper(fmt.Sprintf("| %-5s|", i))
}
