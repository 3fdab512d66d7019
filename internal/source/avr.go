package source

import (
	"bufio"
	"context"
	"net"
	"os"
	"time"

	"go1090/internal/avr"
)

// runAVRTCP dials cfg.Address and decodes one AVR line per frame.
func (m *Manager) runAVRTCP(ctx context.Context, cfg Config, q *dropOldestQueue) error {
	conn, err := net.DialTimeout("tcp", cfg.Address, 10*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	m.setState(cfg.Name, StateConnected)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	idle := cfg.ReadIdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	scanner := bufio.NewScanner(deadlineReader{conn, idle})
	for scanner.Scan() {
		payload, err := avr.Decode(scanner.Text())
		if err != nil {
			continue
		}
		m.pushFrame(cfg, q, payload)
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// runRawFile reads cfg.Address as a local file, replaying it once per
// framing: AVR lines, or raw Beast bytes through the same decoder
// runBeastTCP uses. Intended for offline replay and fixtures, not a
// production feed: once the file is exhausted it blocks until ctx is
// cancelled rather than returning, so the reconnect loop never replays it.
func (m *Manager) runRawFile(ctx context.Context, cfg Config, q *dropOldestQueue) error {
	f, err := os.Open(cfg.Address)
	if err != nil {
		return err
	}
	defer f.Close()

	m.setState(cfg.Name, StateConnected)

	if cfg.Framing == FramingAVR {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return nil
			}
			payload, err := avr.Decode(scanner.Text())
			if err != nil {
				continue
			}
			m.pushFrame(cfg, q, payload)
		}
		<-ctx.Done()
		return nil
	}

	return m.decodeBeastReader(ctx, cfg, q, f)
}

// deadlineReader refreshes a net.Conn's read deadline before every Read,
// turning a fixed idle timeout into a rolling one so bufio.Scanner can be
// used directly against a TCP connection.
type deadlineReader struct {
	conn net.Conn
	idle time.Duration
}

func (r deadlineReader) Read(p []byte) (int, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.idle)); err != nil {
		return 0, err
	}
	return r.conn.Read(p)
}
