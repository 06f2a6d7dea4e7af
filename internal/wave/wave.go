// Package wave handles audio files at the container level: format sniffing
// for reference audio checks, WAV header probing for run results, and PCM
// encode/decode for playback and test fixtures. No signal processing
// happens here.
package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Format names a recognized audio container.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatM4A  Format = "m4a"
	FormatAIFF Format = "aiff"
)

// ErrUnknownFormat reports bytes that match no recognized container.
var ErrUnknownFormat = errors.New("unrecognized audio format")

// Sniff reports the container format of the file by its magic bytes.
// Empty and unreadable files are errors.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("reading header: %w", err)
	}
	header = header[:n]

	return sniffHeader(header)
}

func sniffHeader(header []byte) (Format, error) {
	if len(header) < 4 {
		return "", ErrUnknownFormat
	}

	switch {
	case bytes.HasPrefix(header, []byte("RIFF")) && len(header) >= 12 && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3, nil
	case header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// Bare MPEG frame sync, an MP3 without a tag.
		return FormatMP3, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatOGG, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC, nil
	case len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")):
		return FormatM4A, nil
	case bytes.HasPrefix(header, []byte("FORM")) && len(header) >= 12 && bytes.Equal(header[8:12], []byte("AIFF")):
		return FormatAIFF, nil
	}

	return "", ErrUnknownFormat
}

// Info describes a decoded WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Probe decodes the WAV header of the file.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}, nil
}

// WriteMono16 writes samples as a 16-bit mono WAV file.
func WriteMono16(path string, sampleRate int, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DecodePCM reads a WAV file into 16-bit little-endian PCM for playback.
func DecodePCM(path string) (pcm []byte, sampleRate, channels int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	pcm = make([]byte, 2*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s)))
	}
	return pcm, buf.Format.SampleRate, buf.Format.NumChannels, nil
}
