package vad

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrListenTimeout means no speech started within the listen window.
	ErrListenTimeout = errors.New("no speech before listen timeout")
	// ErrSourceClosed means the frame source ended.
	ErrSourceClosed = errors.New("audio source closed")
)

// FrameDuration is the capture chunk length.
const FrameDuration = 20 * time.Millisecond

type Config struct {
	// ListenTimeout bounds the wait for speech to start. Zero waits forever.
	ListenTimeout time.Duration
	// QuietPeriod of non-speech ends a phrase.
	QuietPeriod time.Duration
	// MaxPhrase caps a phrase's length.
	MaxPhrase time.Duration
	// PreRoll of audio kept from before speech onset.
	PreRoll time.Duration
	// MinSpeech frames below this are treated as noise bursts.
	MinSpeech time.Duration
}

// Segmenter turns frames into phrases. Durations are counted in frames so
// results depend only on the audio.
type Segmenter struct {
	detector *Detector
	cfg      Config
}

func NewSegmenter(detector *Detector, cfg Config) *Segmenter {
	return &Segmenter{detector: detector, cfg: cfg}
}

func frames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / FrameDuration)
	if d%FrameDuration != 0 {
		n++
	}
	return n
}

// Next reads frames until one phrase is complete and returns its PCM.
func (s *Segmenter) Next(ctx context.Context, source <-chan []byte) ([]byte, error) {
	var (
		timeoutFrames = frames(s.cfg.ListenTimeout)
		quietFrames   = max(frames(s.cfg.QuietPeriod), 1)
		maxFrames     = frames(s.cfg.MaxPhrase)
		minSpeech     = frames(s.cfg.MinSpeech)
		preRoll       = newRing(frames(s.cfg.PreRoll))

		waited   int
		speaking bool
		speech   int
		silence  int
		phrase   []byte
		length   int
	)

	for {
		var frame []byte
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-source:
			if !ok {
				if speaking && speech >= minSpeech {
					return phrase, nil
				}
				return nil, ErrSourceClosed
			}
			frame = f
		}

		voiced := s.detector.IsSpeech(frame)

		if !speaking {
			if !voiced {
				preRoll.Add(frame)
				waited++
				if timeoutFrames > 0 && waited >= timeoutFrames {
					return nil, ErrListenTimeout
				}
				continue
			}
			speaking = true
			for _, f := range preRoll.Drain() {
				phrase = append(phrase, f...)
				length++
			}
		}

		phrase = append(phrase, frame...)
		length++
		if voiced {
			speech++
			silence = 0
		} else {
			silence++
		}

		if silence >= quietFrames || (maxFrames > 0 && length >= maxFrames) {
			if speech < minSpeech {
				// noise burst; start over
				speaking, speech, silence, length, phrase = false, 0, 0, 0, nil
				continue
			}
			return phrase, nil
		}
	}
}
