package subprocess

// TailBuffer is an io.Writer that retains only the last capacity bytes written
// through it. Not safe for concurrent use; read it back after cmd.Wait returns.
type TailBuffer struct {
	buf      []byte
	capacity int
}

func NewTailBuffer(capacity int) *TailBuffer {
	return &TailBuffer{capacity: capacity}
}

func (b *TailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.capacity {
		b.buf = b.buf[len(b.buf)-b.capacity:]
	}
	return len(p), nil
}

func (b *TailBuffer) Bytes() []byte {
	return b.buf
}

func (b *TailBuffer) String() string {
	return string(b.buf)
}
