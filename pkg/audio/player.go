package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

// ErrPlayback covers missing assets, undecodable audio and unavailable devices
var ErrPlayback = errors.New("playback failure")

// Global audio context singleton, oto allows only one per process
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	globalAudioFormat  wavFormat
	globalAudioCtxErr  error
)

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Player plays WAV audio through the system output device
type Player struct{}

// NewPlayer creates a Player. The audio device is opened lazily on first use.
func NewPlayer() *Player {
	return &Player{}
}

// initAudioContext initializes the global audio context once
func initAudioContext(format wavFormat) error {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			globalAudioCtxErr = err
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		globalAudioCtx = ctx
		globalAudioFormat = format
		log.Info().Int("sample_rate", format.SampleRate).Int("channels", format.Channels).Msg("Audio context initialized")
	})
	return globalAudioCtxErr
}

// Play plays wavData until it ends or ctx is done. Stopping through ctx is
// not an error.
func (p *Player) Play(ctx context.Context, wavData []byte) error {
	format, audioData, err := parseWAV(wavData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	if format.BitDepth != 16 {
		return fmt.Errorf("%w: unsupported bit depth %d", ErrPlayback, format.BitDepth)
	}

	if err := initAudioContext(format); err != nil {
		return fmt.Errorf("%w: audio device unavailable: %v", ErrPlayback, err)
	}
	if globalAudioFormat != format {
		log.Warn().Int("sample_rate", format.SampleRate).Int("context_rate", globalAudioFormat.SampleRate).
			Msg("Audio format differs from device context")
	}

	player := globalAudioCtx.NewPlayer(bytes.NewReader(audioData))
	defer func() {
		if err := player.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close audio player")
		}
	}()

	// Play starts playing the sound and returns without waiting
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			log.Debug().Err(ctx.Err()).Msg("Audio playback stopped")
			return nil
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

// parseWAV parses a WAV file and returns the format and PCM data
func parseWAV(data []byte) (wavFormat, []byte, error) {
	reader := bytes.NewReader(data)
	format := wavFormat{}

	header := make([]byte, 12)
	if _, err := io.ReadFull(reader, header); err != nil {
		return format, nil, fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return format, nil, errors.New("not a RIFF/WAVE file")
	}

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(reader, chunkID[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return format, nil, errors.New("no data chunk")
			}
			return format, nil, fmt.Errorf("read chunk: %w", err)
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return format, nil, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(reader, binary.LittleEndian, &fmtChunk); err != nil {
				return format, nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			format.Channels = int(fmtChunk.NumChannels)
			format.SampleRate = int(fmtChunk.SampleRate)
			format.BitDepth = int(fmtChunk.BitsPerSample)

			// Skip any extra format bytes
			if chunkSize > 16 {
				reader.Seek(int64(chunkSize-16), io.SeekCurrent)
			}
		case "data":
			if format.SampleRate == 0 {
				return format, nil, errors.New("data chunk before fmt chunk")
			}
			size := int(chunkSize)
			if size > reader.Len() {
				size = reader.Len()
			}
			audioData := make([]byte, size)
			if _, err := io.ReadFull(reader, audioData); err != nil {
				return format, nil, fmt.Errorf("read data chunk: %w", err)
			}
			return format, audioData, nil
		default:
			// Chunks are padded to an even size
			skip := int64(chunkSize) + int64(chunkSize%2)
			reader.Seek(skip, io.SeekCurrent)
		}
	}
}
