package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO holding messages while disconnected.
// When full, the oldest message is dropped: a fresh beat is worth more than
// a stale one. Not safe for concurrent use — caller must synchronize.
type ringBuffer struct {
	buf     []bufferedMsg
	tail    int // oldest retained message
	count   int
	dropped int // messages discarded since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	capacity := len(r.buf)
	if r.count == capacity {
		if r.dropped == 0 {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", capacity)
		}
		r.dropped++
		r.buf[r.tail] = msg
		r.tail = (r.tail + 1) % capacity
		return
	}
	r.buf[(r.tail+r.count)%capacity] = msg
	r.count++
}

// drainAll removes and returns every buffered message, oldest first.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d messages were lost while offline", r.dropped)
	}

	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[(r.tail+i)%len(r.buf)]
	}
	r.tail = 0
	r.count = 0
	r.dropped = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
