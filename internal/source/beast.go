package source

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/beast"
)

// runBeastTCP dials cfg.Address, feeds the stream through a beast.Decoder
// and pushes every decoded ModeS/ModeSLong payload as a RawFrame. ModeAC
// and ModeStatus frames carry no Mode-S payload and are discarded.
func (m *Manager) runBeastTCP(ctx context.Context, cfg Config, q *dropOldestQueue) error {
	conn, err := net.DialTimeout("tcp", cfg.Address, 10*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	m.setState(cfg.Name, StateConnected)

	dec := beast.NewDecoder(quietLogger())
	readBuf := make([]byte, 4096)

	idle := cfg.ReadIdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			return err
		}
		n, err := conn.Read(readBuf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		msgs, err := dec.Decode(readBuf[:n])
		if err != nil {
			continue
		}
		for _, msg := range msgs {
			if msg.MessageType != beast.ModeS && msg.MessageType != beast.ModeSLong {
				continue
			}
			if !msg.IsValid() {
				continue
			}
			m.pushFrame(cfg, q, msg.Data)
		}
	}
}

// decodeBeastReader drains r to EOF through a beast.Decoder, used by
// runRawFile for Beast-framed fixtures; it then blocks on ctx so the
// caller's reconnect loop doesn't immediately spin once the file ends.
func (m *Manager) decodeBeastReader(ctx context.Context, cfg Config, q *dropOldestQueue, r io.Reader) error {
	dec := beast.NewDecoder(quietLogger())
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			msgs, derr := dec.Decode(buf[:n])
			if derr == nil {
				for _, msg := range msgs {
					if msg.MessageType != beast.ModeS && msg.MessageType != beast.ModeSLong {
						continue
					}
					if !msg.IsValid() {
						continue
					}
					m.pushFrame(cfg, q, msg.Data)
				}
			}
		}
		if err != nil {
			break
		}
	}
	<-ctx.Done()
	return nil
}

// quietLogger returns a logrus.Logger configured to discard Debug-level
// chatter from beast.Decoder, which logs at Debug for routine buffer
// bookkeeping; the Source Manager surfaces health through ConnState and
// counters instead.
func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}
