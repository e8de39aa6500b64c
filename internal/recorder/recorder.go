// Package recorder implements --record/--playback: a gzipped JSONL capture
// of the snapshot stream, and a player that replays it at original or
// scaled speed.
package recorder

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/model"
)

// record wraps a snapshot with its timestamp for recording.
type record struct {
	Timestamp time.Time      `json:"ts"`
	Snapshot  model.Snapshot `json:"snap"`
}

// Recorder writes snapshots to a gzipped JSONL file.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
	enc  *json.Encoder
}

// NewRecorder creates a new recorder writing to the given file path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	return &Recorder{file: f, gz: gz, enc: enc}, nil
}

// Write records a single snapshot.
func (r *Recorder) Write(snap model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(record{
		Timestamp: snap.Timestamp,
		Snapshot:  snap,
	})
}

// Close flushes and closes the recorder.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.gz.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// RecordSession wraps a snapshot channel, recording all snapshots while
// passing them through to out unmodified. A write error is logged and the
// snapshots keep flowing to out - a broken disk shouldn't kill the live session.
func RecordSession(snapCh <-chan model.Snapshot, path string, log zerolog.Logger) (<-chan model.Snapshot, *Recorder, error) {
	rec, err := NewRecorder(path)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan model.Snapshot, 1)
	go func() {
		defer close(out)
		defer rec.Close()
		for snap := range snapCh {
			if err := rec.Write(snap); err != nil {
				log.Warn().Err(err).Msg("recorder: write failed")
			}
			select {
			case out <- snap:
			default:
				select {
				case <-out:
				default:
				}
				out <- snap
			}
		}
	}()

	return out, rec, nil
}

// Player reads recorded snapshots from a gzipped JSONL file.
type Player struct {
	records []record

	mu     sync.Mutex
	speed  float64 // playback speed multiplier
	paused bool
}

// NewPlayer opens a recording file and reads it fully into memory.
func NewPlayer(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	records, err := decodeAll(gz)
	if err != nil {
		return nil, err
	}

	return &Player{
		records: records,
		speed:   1.0,
	}, nil
}

func decodeAll(r io.Reader) ([]record, error) {
	dec := json.NewDecoder(r)
	var records []record
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			// A truncated trailing record is tolerated; anything recorded
			// before it is still playable.
			break
		}
		records = append(records, rec)
	}
	return records, nil
}

// Play feeds snapshots to a channel, pacing them by the interval between
// their original timestamps scaled by Speed, and stamping each with the
// replay-time now so downstream consumers see a live-looking Snapshot.
func (p *Player) Play() <-chan model.Snapshot {
	ch := make(chan model.Snapshot, 1)

	go func() {
		defer close(ch)

		for i := 0; i < len(p.records); i++ {
			for p.isPaused() {
				time.Sleep(100 * time.Millisecond)
			}

			snap := p.records[i].Snapshot
			snap.Timestamp = time.Now()
			ch <- snap

			if i+1 < len(p.records) {
				delta := p.records[i+1].Timestamp.Sub(p.records[i].Timestamp)
				speed := p.getSpeed()
				if delta > 0 && speed > 0 {
					time.Sleep(time.Duration(float64(delta) / speed))
				}
			}
		}
	}()

	return ch
}

func (p *Player) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) getSpeed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// SetSpeed sets the playback speed multiplier, clamped to [0.25, 16].
func (p *Player) SetSpeed(s float64) {
	if s < 0.25 {
		s = 0.25
	}
	if s > 16 {
		s = 16
	}
	p.mu.Lock()
	p.speed = s
	p.mu.Unlock()
}

// Speed returns the current playback speed.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// TogglePause toggles pause state.
func (p *Player) TogglePause() {
	p.mu.Lock()
	p.paused = !p.paused
	p.mu.Unlock()
}

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Len returns the number of recorded snapshots.
func (p *Player) Len() int {
	return len(p.records)
}

// Close releases resources held by the player. The recording is read fully
// into memory up front, so there is nothing left open by the time Close is
// called; it exists to keep Player's lifecycle symmetric with Recorder's.
func (p *Player) Close() error {
	return nil
}
