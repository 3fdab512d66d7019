package beast

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Decoder decodes Beast mode messages
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, 4096),
	}
}

// Decode decodes Beast mode messages from raw data. A frame is
// sync(0x1A) + type + timestamp(6) + signal(1) + data, where the Beast
// wire format escapes every 0x1A byte in timestamp/signal/data as two
// consecutive 0x1A bytes; a fixed-length slice of the buffer therefore
// does not bound a message -- the escaped length varies with how many
// 0x1A bytes happen to land in the payload, so the frame boundary is
// found by scanning and unescaping as we go, not by a constant offset.
func (d *Decoder) Decode(data []byte) ([]*Message, error) {
	d.buffer = append(d.buffer, data...)

	var messages []*Message

	if len(d.buffer) > 0 && len(d.buffer)%1024 == 0 {
		d.logger.WithFields(logrus.Fields{
			"buffer_size": len(d.buffer),
			"data_length": len(data),
		}).Debug("Beast decoder buffer status")
	}

	for {
		syncIndex := -1
		for i, b := range d.buffer {
			if b == SyncByte {
				syncIndex = i
				break
			}
		}

		if syncIndex == -1 {
			if len(d.buffer) > 1024 {
				d.logger.WithFields(logrus.Fields{
					"buffer_size": len(d.buffer),
				}).Debug("No sync byte found, clearing buffer")
			}
			d.buffer = d.buffer[:0]
			break
		}

		if syncIndex > 0 {
			d.buffer = d.buffer[syncIndex:]
		}

		if len(d.buffer) < 2 {
			break
		}

		messageType := d.buffer[1]
		payloadLen := d.getPayloadLength(messageType)
		if payloadLen == 0 {
			d.logger.WithFields(logrus.Fields{
				"message_type": fmt.Sprintf("0x%02x", messageType),
			}).Debug("Unknown message type, skipping")
			d.buffer = d.buffer[1:]
			continue
		}

		rawLen, payload, complete := scanEscapedFrame(d.buffer[2:], payloadLen)
		if !complete {
			if rawLen < 0 {
				break
			}
			// truncated frame: drop it and resync on the lone 0x1A
			d.buffer = d.buffer[2+rawLen:]
			continue
		}

		frameLen := 2 + rawLen
		raw := make([]byte, frameLen)
		copy(raw, d.buffer[:frameLen])

		msg, err := d.decodeMessage(messageType, payload, raw)
		if err != nil {
			d.logger.WithError(err).Debug("Failed to decode beast message")
			d.buffer = d.buffer[1:]
			continue
		}

		d.logger.WithFields(logrus.Fields{
			"message_type": fmt.Sprintf("0x%02x", msg.MessageType),
			"signal":       msg.Signal,
			"data_length":  len(msg.Data),
		}).Debug("Successfully decoded Beast message")

		messages = append(messages, msg)
		d.buffer = d.buffer[frameLen:]
	}

	if len(d.buffer) > 2048 {
		d.buffer = d.buffer[:0]
	}

	return messages, nil
}

// scanEscapedFrame reads logicalLen unescaped bytes from raw, honoring
// Beast's 0x1A-doubling, and reports how many raw bytes that consumed. It
// returns complete=false with rawLen -1 if raw runs out before logicalLen
// bytes have been recovered (the caller should wait for more data), and
// treats a lone 0x1A not followed by another 0x1A as the start of the next
// frame -- the current one was truncated: it then returns complete=false
// with rawLen set to that 0x1A's offset in raw.
func scanEscapedFrame(raw []byte, logicalLen int) (rawLen int, payload []byte, complete bool) {
	payload = make([]byte, 0, logicalLen)
	i := 0
	for len(payload) < logicalLen {
		if i >= len(raw) {
			return -1, nil, false
		}
		b := raw[i]
		if b == SyncByte {
			if i+1 >= len(raw) {
				return -1, nil, false
			}
			if raw[i+1] != SyncByte {
				// not an escape pair: the frame ended short
				return i, nil, false
			}
			payload = append(payload, SyncByte)
			i += 2
			continue
		}
		payload = append(payload, b)
		i++
	}
	return i, payload, true
}

// getPayloadLength returns the unescaped timestamp+signal+data length for
// a Beast message type (excludes the 2-byte sync+type header).
func (d *Decoder) getPayloadLength(messageType byte) int {
	switch messageType {
	case ModeAC:
		return 9 // 6 timestamp + 1 signal + 2 data
	case ModeS:
		return 14 // 6 timestamp + 1 signal + 7 data
	case ModeSLong:
		return 21 // 6 timestamp + 1 signal + 14 data
	case ModeStatus:
		return 9 // 6 timestamp + 1 signal + 2 data
	default:
		return 0
	}
}

// decodeMessage builds a Message from an already-unescaped payload.
func (d *Decoder) decodeMessage(messageType byte, payload, raw []byte) (*Message, error) {
	if len(payload) < 7 {
		return nil, fmt.Errorf("message too short: %d bytes", len(payload))
	}

	timestamp := uint64(0)
	for i := 0; i < 6; i++ {
		timestamp = (timestamp << 8) | uint64(payload[i])
	}

	// Convert 12MHz counter to time.
	// This is a simplified conversion - in reality you'd need to sync with system time
	timestampTime := time.Now().Add(-time.Duration(timestamp) * time.Nanosecond / 12)

	signal := payload[6]
	messageData := make([]byte, len(payload)-7)
	copy(messageData, payload[7:])

	return &Message{
		MessageType: messageType,
		Timestamp:   timestampTime,
		Signal:      signal,
		Data:        messageData,
		Raw:         raw,
	}, nil
}

// unescapeData removes Beast protocol escaping
func (d *Decoder) unescapeData(data []byte) []byte {
	result := make([]byte, 0, len(data))

	for i := 0; i < len(data); i++ {
		if data[i] == 0x1A && i+1 < len(data) {
			// Escaped byte
			result = append(result, data[i+1])
			i++ // Skip the escape byte
		} else {
			result = append(result, data[i])
		}
	}

	return result
}
