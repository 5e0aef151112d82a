package subprocess

import (
	"bufio"
	"io"

	"github.com/vodstream/jit-api/log"
)

// StreamOutput pumps src to out line by line. Run it in its own goroutine to
// surface encoder output while the process is still running; it returns when
// src reaches EOF.
func StreamOutput(src io.Reader, out io.Writer) {
	s := bufio.NewReader(src)
	for {
		var line []byte
		line, err := s.ReadSlice('\n')
		if err == io.EOF && len(line) == 0 {
			break
		}
		if err == io.EOF {
			log.LogNoRequestID("StreamOutput() improper termination", "line", line)
			return
		}
		if err != nil {
			log.LogNoRequestID("StreamOutput ReadSlice error", "err", err)
			return
		}
		_, err = out.Write(line)
		if err != nil {
			log.LogNoRequestID("StreamOutput out.Write error", "err", err)
			return
		}
	}
}
