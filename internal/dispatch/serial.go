package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialInterface carries channel traffic over a local serial port (e.g. a
// LoRa radio module attached via USB), framing each message as a one-byte
// channel-number prefix, the payload, and a trailing newline for the line
// discipline on the other end.
type SerialInterface struct {
	stateMachine

	portName string
	mode     *serial.Mode

	mu   sync.Mutex
	port serial.Port
}

// NewSerialInterface configures (but does not yet open) a serial transport.
func NewSerialInterface(portName string, baud int) *SerialInterface {
	return &SerialInterface{
		portName: portName,
		mode: &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

func (s *SerialInterface) Name() string { return "serial" }

func (s *SerialInterface) connectLocked() error {
	s.markConnecting()
	port, err := serial.Open(s.portName, s.mode)
	if err != nil {
		return fmt.Errorf("dispatch: serial open %s: %w", s.portName, err)
	}
	s.port = port
	s.markConnected()
	return nil
}

// Send channel number is prefixed so the receiving node can demultiplex
// without a separate framing layer; PSK encryption, if configured, has
// already been applied to payload by the caller.
func (s *SerialInterface) Send(ctx context.Context, ch ChannelConfig, payload []byte) error {
	if len(payload) > ch.MaxMessageLength && ch.MaxMessageLength > 0 {
		return fmt.Errorf("dispatch: message %d bytes exceeds max_message_length %d for channel %s", len(payload), ch.MaxMessageLength, ch.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		if err := s.connectLocked(); err != nil {
			s.markDegraded(time.Now())
			return err
		}
	}

	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, byte(ch.ChannelNumber))
	frame = append(frame, payload...)
	frame = append(frame, '\n')

	if _, err := s.port.Write(frame); err != nil {
		s.port.Close()
		s.port = nil
		s.markDegraded(time.Now())
		return fmt.Errorf("dispatch: serial write: %w", err)
	}
	return nil
}

func (s *SerialInterface) HealthProbe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		s.markConnected()
		return nil
	}
	return s.connectLocked()
}

func (s *SerialInterface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
