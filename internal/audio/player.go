package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
)

// Player plays s16le mono PCM through the default Pulse sink. Only one clip
// plays at a time.
type Player struct {
	mediaName string
	mu        sync.Mutex
}

func NewPlayer(mediaName string) *Player {
	if mediaName == "" {
		mediaName = appName + " narration"
	}
	return &Player{mediaName: mediaName}
}

// Play blocks until pcm has played or ctx is cancelled. Cancellation stops
// feeding the stream, so playback ends within one buffer.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) < 2 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := newClient("audio-speakers")
	if err != nil {
		return err
	}
	defer client.Close()

	stream, err := client.NewPlayback(
		pulse.Int16Reader(newPCMReader(ctx, pcm).Read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(p.mediaName),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play stream: %w", err)
	}
	return ctx.Err()
}

// PlaySamples plays already-decoded samples, used for short cues.
func (p *Player) PlaySamples(ctx context.Context, samples []int16, sampleRate int) error {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return p.Play(ctx, pcm, sampleRate)
}

// pcmReader feeds little-endian bytes to Pulse as int16 samples and ends the
// stream early once ctx is done.
type pcmReader struct {
	ctx    context.Context
	pcm    []byte
	cursor int
}

func newPCMReader(ctx context.Context, pcm []byte) *pcmReader {
	return &pcmReader{ctx: ctx, pcm: pcm[:len(pcm)&^1]}
}

func (r *pcmReader) Read(buf []int16) (int, error) {
	if r.ctx.Err() != nil || r.cursor >= len(r.pcm) {
		return 0, pulse.EndOfData
	}

	n := 0
	for n < len(buf) && r.cursor < len(r.pcm) {
		buf[n] = int16(binary.LittleEndian.Uint16(r.pcm[r.cursor:]))
		r.cursor += 2
		n++
	}
	if r.cursor >= len(r.pcm) {
		return n, pulse.EndOfData
	}
	return n, nil
}
