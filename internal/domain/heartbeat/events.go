package heartbeat

import "time"

const EventName = "heartbeat"

// Beat is emitted periodically by the heartbeat publisher.
type Beat struct {
	Seq        uint64
	Source     string
	OccurredAt time.Time
}

func (Beat) EventName() string { return EventName }

func NewBeat(seq uint64, source string) Beat {
	return Beat{
		Seq:        seq,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}
