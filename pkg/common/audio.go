package common

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"layeh.com/gopus"
)

const (
	sampleRate   = 48000
	channels     = 2
	frameSize    = 960 // 20ms at 48kHz
	pcmFrameSize = frameSize * channels * 2
	opusBitrate  = 128000
	sendTimeout  = 100 * time.Millisecond
	stderrTail   = 5 // ffmpeg lines kept for error reports
)

// opusEncoder is the part of *gopus.Encoder the pipeline needs
type opusEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// AudioPipeline streams one track: ffmpeg decodes the source to PCM,
// gopus encodes it and the frames go out on the voice connection.
type AudioPipeline struct {
	id         string
	ctx        context.Context
	cancel     context.CancelFunc
	voiceConn  *discordgo.VoiceConnection
	ffmpegPath string
	ffmpegCmd  *exec.Cmd
	isPlaying  bool
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewAudioPipeline creates a new audio pipeline
func NewAudioPipeline(vc *discordgo.VoiceConnection, ffmpegPath string, logger *zap.Logger) *AudioPipeline {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &AudioPipeline{
		id:         id,
		ctx:        ctx,
		cancel:     cancel,
		voiceConn:  vc,
		ffmpegPath: ffmpegPath,
		logger:     logger.With(zap.String("pipeline_id", id)),
	}
}

// ID returns the pipeline identifier used in logs
func (ap *AudioPipeline) ID() string {
	return ap.id
}

// PlayStream starts streaming audio from the given URL. onFinished is called
// exactly once when the stream ends, fails or is stopped.
func (ap *AudioPipeline) PlayStream(streamURL string, onFinished func(error)) error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if ap.isPlaying {
		return errors.New("pipeline is already playing")
	}

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("failed to create opus encoder: %w", err)
	}
	encoder.SetBitrate(opusBitrate)

	cmd := exec.CommandContext(ap.ctx, ap.ffmpegPath,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "30",
		"-i", streamURL,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	ap.ffmpegCmd = cmd
	ap.isPlaying = true

	tail := make(chan string, 1)
	go func() { tail <- ap.consumeStderr(stderr) }()
	go ap.run(cmd, stdout, tail, encoder, onFinished)

	ap.logger.Debug("ffmpeg started")
	return nil
}

func (ap *AudioPipeline) run(cmd *exec.Cmd, stdout io.Reader, tail <-chan string, encoder opusEncoder, onFinished func(error)) {
	ap.voiceConn.Speaking(true)

	frames, err := streamPCM(ap.ctx, stdout, encoder, ap.voiceConn.OpusSend)

	ap.voiceConn.Speaking(false)
	if (err != nil || ap.ctx.Err() != nil) && cmd.Process != nil {
		cmd.Process.Kill()
	}
	// stderr must be drained before Wait closes the pipe
	stderrText := <-tail
	waitErr := cmd.Wait()

	ap.mu.Lock()
	ap.isPlaying = false
	ap.mu.Unlock()

	switch {
	case ap.ctx.Err() != nil:
		err = nil
	case err != nil:
		err = fmt.Errorf("%w: %v", ErrStreamFailure, err)
	case waitErr != nil:
		err = fmt.Errorf("%w: ffmpeg %v: %s", ErrStreamFailure, waitErr, stderrText)
	}

	if err != nil {
		ap.logger.Warn("audio stream ended with error", zap.Int("frames", frames), zap.Error(err))
	} else {
		ap.logger.Debug("audio stream completed", zap.Int("frames", frames))
	}

	if onFinished != nil {
		onFinished(err)
	}
}

// streamPCM reads 20ms PCM frames from reader, encodes them and pushes them to
// send until EOF or cancellation. It returns the number of frames sent.
func streamPCM(ctx context.Context, reader io.Reader, encoder opusEncoder, send chan<- []byte) (int, error) {
	buffer := make([]byte, pcmFrameSize)
	samples := make([]int16, frameSize*channels)
	frames := 0

	for {
		if ctx.Err() != nil {
			return frames, nil
		}

		n, err := io.ReadFull(reader, buffer)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return frames, fmt.Errorf("error reading PCM data: %w", err)
		}

		// Pad the final short frame with silence
		clear(buffer[n:])
		bytesToInt16(buffer, samples)

		opus, encErr := encoder.Encode(samples, frameSize, pcmFrameSize)
		if encErr != nil {
			return frames, fmt.Errorf("opus encoding error: %w", encErr)
		}

		select {
		case send <- opus:
			frames++
		case <-ctx.Done():
			return frames, nil
		case <-time.After(sendTimeout):
			// voice connection is not draining, drop the frame
		}

		if err == io.ErrUnexpectedEOF {
			return frames, nil
		}
	}
}

// consumeStderr logs ffmpeg's stderr until it closes and returns the last
// few lines
func (ap *AudioPipeline) consumeStderr(stderr io.Reader) string {
	var lines []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		ap.logger.Debug("ffmpeg", zap.String("line", line))
		lines = append(lines, line)
		if len(lines) > stderrTail {
			lines = lines[1:]
		}
	}
	return strings.Join(lines, "; ")
}

// Stop cancels the stream. The finished callback still fires, with a nil error.
func (ap *AudioPipeline) Stop() {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	ap.cancel()
	if ap.ffmpegCmd != nil && ap.ffmpegCmd.Process != nil {
		ap.ffmpegCmd.Process.Kill()
	}
}

// IsPlaying returns whether the pipeline is currently playing
func (ap *AudioPipeline) IsPlaying() bool {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.isPlaying
}

func bytesToInt16(data []byte, samples []int16) {
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
}
