package capture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FFmpegConfig describes an input ffmpeg can open: a device such as
// "-f pulse -i default" or a file or URL.
type FFmpegConfig struct {
	Name       string
	Format     string // ffmpeg input format (-f), empty to auto-detect
	Input      string
	Realtime   bool // read file inputs at their native rate (-re)
	SampleRate int
	Channels   int
	FFmpegCmd  string
	FFprobeCmd string
}

// FFmpegSource captures audio through an ffmpeg subprocess.
type FFmpegSource struct {
	cfg FFmpegConfig
}

// NewFFmpegSource applies defaults to cfg and returns the source.
func NewFFmpegSource(cfg FFmpegConfig) *FFmpegSource {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.FFmpegCmd == "" {
		cfg.FFmpegCmd = "ffmpeg"
	}
	if cfg.FFprobeCmd == "" {
		cfg.FFprobeCmd = "ffprobe"
	}
	if cfg.Name == "" {
		cfg.Name = "ffmpeg"
	}
	return &FFmpegSource{cfg: cfg}
}

func (s *FFmpegSource) Name() string { return s.cfg.Name }

// probeStream is the subset of ffprobe's stream description we use.
type probeStream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Tags      map[string]string `json:"tags"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// Request probes the input for its tracks and, when it carries audio,
// starts decoding the first audio track.
func (s *FFmpegSource) Request(ctx context.Context) (Stream, error) {
	if s.cfg.Input == "" {
		return nil, fmt.Errorf("%s: %w: no input configured", s.cfg.Name, ErrUnavailable)
	}

	probed, err := s.probe(ctx)
	if err != nil {
		return nil, err
	}

	stream := &ffmpegStream{
		sampleRate: s.cfg.SampleRate,
		channels:   s.cfg.Channels,
	}

	hasAudio := false
	for _, ps := range probed {
		var kind TrackKind
		switch ps.CodecType {
		case "audio":
			kind = KindAudio
			hasAudio = true
		case "video":
			kind = KindVideo
		default:
			continue
		}

		label := ps.Tags["title"]
		if label == "" {
			label = fmt.Sprintf("%s #%d (%s)", ps.CodecType, ps.Index, ps.CodecName)
		}

		var onStop func()
		if kind == KindAudio {
			onStop = stream.kill
		}
		stream.add(NewTrack(uuid.NewString(), kind, label, onStop))
	}

	if !hasAudio {
		return stream, nil
	}

	if err := stream.start(s.cfg); err != nil {
		stream.Close()
		return nil, err
	}

	log.Info().
		Str("source", s.cfg.Name).
		Str("input", s.cfg.Input).
		Int("sample_rate", s.cfg.SampleRate).
		Int("channels", s.cfg.Channels).
		Msg("ffmpeg capture started")

	return stream, nil
}

func (s *FFmpegSource) probe(ctx context.Context) ([]probeStream, error) {
	args := []string{"-v", "error", "-show_streams", "-of", "json"}
	if s.cfg.Format != "" {
		args = append(args, "-f", s.cfg.Format)
	}
	args = append(args, s.cfg.Input)

	cmd := exec.CommandContext(ctx, s.cfg.FFprobeCmd, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", s.cfg.Name, classifyFailure(err, stderr.String()))
	}

	return parseProbe(out)
}

func parseProbe(out []byte) ([]probeStream, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return parsed.Streams, nil
}

// classifyFailure maps an ffmpeg/ffprobe failure onto the capture errors.
func classifyFailure(err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "operation not permitted") {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	}
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, msg)
}

// ffmpegArgs builds the decode command line for cfg.
func ffmpegArgs(cfg FFmpegConfig) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if cfg.Realtime {
		args = append(args, "-re")
	}
	if cfg.Format != "" {
		args = append(args, "-f", cfg.Format)
	}
	args = append(args,
		"-i", cfg.Input,
		"-map", "0:a:0",
		"-vn",
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"pipe:1",
	)
	return args
}

type ffmpegStream struct {
	trackSet

	sampleRate int
	channels   int

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	pcm    *bufio.Reader
	stdout *os.File
	buf    []byte
	done   chan struct{}

	closeOnce sync.Once
}

func (s *ffmpegStream) start(cfg FFmpegConfig) error {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, cfg.FFmpegCmd, ffmpegArgs(cfg)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// An os.Pipe keeps the read end ours: Wait never closes it under a
	// concurrent Read.
	pr, pw, err := os.Pipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	cmd.Stdout = pw

	if err := cmd.Start(); err != nil {
		cancel()
		pr.Close()
		pw.Close()
		return fmt.Errorf("%s: %w", cfg.Name, classifyFailure(err, stderr.String()))
	}
	pw.Close()

	s.mu.Lock()
	s.cmd = cmd
	s.cancel = cancel
	s.stdout = pr
	s.pcm = bufio.NewReaderSize(pr, 16*1024)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("ffmpeg exited")
		}
	}()

	return nil
}

func (s *ffmpegStream) SampleRate() int { return s.sampleRate }
func (s *ffmpegStream) Channels() int   { return s.channels }

func (s *ffmpegStream) Read(dst []float32) (int, error) {
	s.mu.Lock()
	pcm := s.pcm
	s.mu.Unlock()

	if pcm == nil {
		return 0, ErrNoAudioTrack
	}

	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * s.channels * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(pcm, buf)
	whole := n / (s.channels * 2)
	decodeS16LE(dst, buf[:whole*s.channels*2])

	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return whole, err
}

// decodeS16LE converts little-endian 16-bit PCM to floats in [-1, 1).
func decodeS16LE(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(src[2*i:]))
		dst[i] = float32(sample) / 32768.0
	}
	return n
}

// kill terminates the decoder; it runs when the audio track stops.
func (s *ffmpegStream) kill() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *ffmpegStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stopAll()
		s.kill()

		s.mu.Lock()
		stdout := s.stdout
		s.mu.Unlock()
		if stdout != nil {
			err = stdout.Close()
		}
	})
	return err
}
