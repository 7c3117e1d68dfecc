// Package stream moves ECG samples and beat events over NATS. Sample
// messages are frames of little-endian int16 values, several samples per
// message; beat events are opaque payloads published as-is.
package stream

import (
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials the NATS server with the reconnect behavior a long-running
// monitor needs: bounded dial timeout, unlimited reconnects.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// EncodeSamples packs samples into a little-endian int16 frame.
func EncodeSamples(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, v := range samples {
		out[2*i] = byte(v)
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// DecodeSamples unpacks a little-endian int16 frame. A frame of odd length
// is malformed.
func DecodeSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("sample frame of %d bytes is not a whole number of int16 values", len(data))
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return samples, nil
}

// Source adapts a NATS subject carrying sample frames into an ecg.Source.
// Next blocks until a frame arrives; a closed or drained connection
// surfaces as io.EOF so callers treat it like an exhausted recording.
type Source struct {
	sub  *nats.Subscription
	wait time.Duration
	pend []int16
}

// NewSource subscribes to the given subject.
func NewSource(nc *nats.Conn, subject string) (*Source, error) {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return &Source{sub: sub, wait: time.Minute}, nil
}

// Next returns the next sample from the stream.
func (s *Source) Next() (int16, error) {
	for len(s.pend) == 0 {
		msg, err := s.sub.NextMsg(s.wait)
		switch {
		case err == nil:
		case err == nats.ErrTimeout:
			continue
		case err == nats.ErrConnectionClosed || err == nats.ErrBadSubscription:
			return 0, io.EOF
		default:
			return 0, fmt.Errorf("receive sample frame: %w", err)
		}
		samples, err := DecodeSamples(msg.Data)
		if err != nil {
			return 0, err
		}
		s.pend = samples
	}
	v := s.pend[0]
	s.pend = s.pend[1:]
	return v, nil
}

// Close drops the subscription.
func (s *Source) Close() error {
	return s.sub.Unsubscribe()
}

// BeatPublisher republishes beat event payloads onto a NATS subject, for
// consumers that speak NATS rather than MQTT.
type BeatPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewBeatPublisher wraps an established connection.
func NewBeatPublisher(nc *nats.Conn, subject string) *BeatPublisher {
	return &BeatPublisher{nc: nc, subject: subject}
}

// Publish sends one event payload. Delivery is fire-and-forget.
func (p *BeatPublisher) Publish(payload []byte) error {
	return p.nc.Publish(p.subject, payload)
}
