package astirecorder

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Configuration represents a recorder configuration
type Configuration struct {
	Log       ConfigurationLog       `toml:"log"`
	Recording ConfigurationRecording `toml:"recording"`
	Server    ConfigurationServer    `toml:"server"`
	Stats     ConfigurationStats     `toml:"stats"`
}

// ConfigurationLog represents a log configuration
type ConfigurationLog struct {
	MessageMergingPeriod Duration `toml:"message_merging_period"`
}

// ConfigurationRecording represents a recording configuration
type ConfigurationRecording struct {
	AudioBitRate     int      `toml:"audio_bit_rate"`
	AudioCodec       string   `toml:"audio_codec"`
	AudioJoinTimeout Duration `toml:"audio_join_timeout"`
	Channels         int      `toml:"channels"`
	Container        string   `toml:"container"`
	FrameRate        string   `toml:"frame_rate"`
	Quality          int      `toml:"quality"`
	Rescale          int      `toml:"rescale"`
	SampleRate       int      `toml:"sample_rate"`
	StartNumber      int      `toml:"start_number"`
	VideoCodec       string   `toml:"video_codec"`
}

// ConfigurationServer represents a server configuration
type ConfigurationServer struct {
	Addr string `toml:"addr"`
}

// ConfigurationStats represents a stats configuration
type ConfigurationStats struct {
	Period Duration `toml:"period"`
}

// Duration is a time.Duration that can be unmarshaled from "1s" like strings
type Duration struct {
	time.Duration
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (d *Duration) UnmarshalText(b []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(b))
	return
}

// FlagConfig returns the default configuration
func FlagConfig() Configuration {
	return Configuration{
		Recording: ConfigurationRecording{
			AudioJoinTimeout: Duration{DefaultAudioJoinTimeout},
			Channels:         DefaultChannels,
			FrameRate:        DefaultFrameRate.String(),
			Quality:          DefaultQuality,
			Rescale:          DefaultRescale,
			SampleRate:       DefaultSampleRate,
		},
		Stats: ConfigurationStats{Period: Duration{time.Second}},
	}
}

// LoadConfiguration decodes the toml file at path on top of c
func LoadConfiguration(path string, c *Configuration) (err error) {
	if _, err = toml.DecodeFile(path, c); err != nil {
		err = fmt.Errorf("astirecorder: toml decoding %s failed: %w", path, err)
		return
	}
	return
}

// SessionParameters converts the recording configuration into session
// parameters. URL, writer and audio source are left to the caller.
func (c ConfigurationRecording) SessionParameters() (p SessionParameters, err error) {
	// Container
	var ok bool
	if p.Container, ok = ParseContainer(c.Container); !ok {
		err = fmt.Errorf("astirecorder: unknown container %s: %w", c.Container, ErrUnsupportedCombination)
		return
	}

	// Codecs
	if p.VideoCodec, ok = ParseVideoCodec(c.VideoCodec); !ok {
		err = fmt.Errorf("astirecorder: unknown video codec %s: %w", c.VideoCodec, ErrUnsupportedCombination)
		return
	}
	if p.AudioCodec, ok = ParseAudioCodec(c.AudioCodec); !ok {
		err = fmt.Errorf("astirecorder: unknown audio codec %s: %w", c.AudioCodec, ErrUnsupportedCombination)
		return
	}

	// Frame rate
	if c.FrameRate != "" {
		if p.FrameRate, err = ParseRational(c.FrameRate); err != nil {
			err = fmt.Errorf("astirecorder: parsing frame rate failed: %w", err)
			return
		}
	}

	p.AudioBitRate = c.AudioBitRate
	p.AudioJoinTimeout = c.AudioJoinTimeout.Duration
	p.Channels = c.Channels
	p.Quality = c.Quality
	p.Rescale = c.Rescale
	p.SampleRate = c.SampleRate
	p.StartNumber = c.StartNumber
	return
}
