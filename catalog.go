package astirecorder

// ContainerID identifies a container in the catalog. 0 means autodetect.
type ContainerID int

// Containers
const (
	ContainerAuto ContainerID = iota
	ContainerPNG
	ContainerJPEG
	ContainerBMP
	ContainerAVI
	ContainerMatroska
	ContainerWebM
	ContainerMP4
	ContainerFLV
	ContainerMPEG
	ContainerOgg
	containerCount
)

// VideoCodecID identifies a video codec in the catalog. 0 means container default.
type VideoCodecID int

// Video codecs
const (
	VideoCodecAuto VideoCodecID = iota
	VideoCodecPNG
	VideoCodecMJPEG
	VideoCodecBMP
	VideoCodecMPEG4
	VideoCodecH264
	VideoCodecVP8
	VideoCodecVP9
	VideoCodecFFV1
	VideoCodecMPEG1
	VideoCodecMPEG2
	VideoCodecFLV1
	VideoCodecTheora
	VideoCodecRawVideo
	videoCodecCount
)

// VideoCodecNone is the resolved value when there is no video stream
const VideoCodecNone VideoCodecID = -1

// AudioCodecID identifies an audio codec in the catalog. 0 means container default.
type AudioCodecID int

// Audio codecs
const (
	AudioCodecAuto AudioCodecID = iota
	AudioCodecPCMS16LE
	AudioCodecPCMALaw
	AudioCodecPCMMuLaw
	AudioCodecMP2
	AudioCodecMP3
	AudioCodecAAC
	AudioCodecVorbis
	AudioCodecOpus
	audioCodecCount
)

// AudioCodecNone is the resolved value when there is no audio stream
const AudioCodecNone AudioCodecID = -1

// ContainerDescriptor describes a container and its legal codecs
type ContainerDescriptor struct {
	AllowedAudioCodecs []AudioCodecID
	AllowedVideoCodecs []VideoCodecID
	DefaultAudioCodec  AudioCodecID
	DefaultVideoCodec  VideoCodecID
	Extensions         []string
	ID                 ContainerID
	LongName           string
	// Name of the libav muxer
	Name string
	// Single image containers are opened and closed for every frame
	SingleImage bool
}

// VideoCodecDescriptor describes a video codec
type VideoCodecDescriptor struct {
	// Name of the libav encoder
	EncoderName string
	ID          VideoCodecID
	Name        string
	// Pixel format the encoder is fed with
	PixelFormat PixelFormat
	// Whether the quantizer knob applies
	Quantized bool
}

// AudioCodecDescriptor describes an audio codec
type AudioCodecDescriptor struct {
	DecoderName string
	EncoderName string
	ID          AudioCodecID
	Name        string
}

var containers = map[ContainerID]ContainerDescriptor{
	ContainerPNG: {
		AllowedVideoCodecs: []VideoCodecID{VideoCodecPNG},
		DefaultAudioCodec:  AudioCodecNone,
		DefaultVideoCodec:  VideoCodecPNG,
		Extensions:         []string{"png"},
		ID:                 ContainerPNG,
		LongName:           "PNG image sequence",
		Name:               "image2",
		SingleImage:        true,
	},
	ContainerJPEG: {
		AllowedVideoCodecs: []VideoCodecID{VideoCodecMJPEG},
		DefaultAudioCodec:  AudioCodecNone,
		DefaultVideoCodec:  VideoCodecMJPEG,
		Extensions:         []string{"jpg", "jpeg"},
		ID:                 ContainerJPEG,
		LongName:           "JPEG image sequence",
		Name:               "image2",
		SingleImage:        true,
	},
	ContainerBMP: {
		AllowedVideoCodecs: []VideoCodecID{VideoCodecBMP},
		DefaultAudioCodec:  AudioCodecNone,
		DefaultVideoCodec:  VideoCodecBMP,
		Extensions:         []string{"bmp"},
		ID:                 ContainerBMP,
		LongName:           "BMP image sequence",
		Name:               "image2",
		SingleImage:        true,
	},
	ContainerAVI: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecPCMS16LE, AudioCodecMP2, AudioCodecMP3},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecMPEG4, VideoCodecMJPEG, VideoCodecFFV1, VideoCodecH264, VideoCodecMPEG1, VideoCodecRawVideo},
		DefaultAudioCodec:  AudioCodecMP2,
		DefaultVideoCodec:  VideoCodecMPEG4,
		Extensions:         []string{"avi"},
		ID:                 ContainerAVI,
		LongName:           "AVI (Audio Video Interleaved)",
		Name:               "avi",
	},
	ContainerMatroska: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecPCMS16LE, AudioCodecPCMALaw, AudioCodecPCMMuLaw, AudioCodecMP2, AudioCodecMP3, AudioCodecAAC, AudioCodecVorbis, AudioCodecOpus},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecMJPEG, VideoCodecH264, VideoCodecMPEG4, VideoCodecVP8, VideoCodecVP9, VideoCodecFFV1, VideoCodecTheora},
		DefaultAudioCodec:  AudioCodecPCMS16LE,
		DefaultVideoCodec:  VideoCodecMJPEG,
		Extensions:         []string{"mkv"},
		ID:                 ContainerMatroska,
		LongName:           "Matroska",
		Name:               "matroska",
	},
	ContainerWebM: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecVorbis, AudioCodecOpus},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecVP8, VideoCodecVP9},
		DefaultAudioCodec:  AudioCodecOpus,
		DefaultVideoCodec:  VideoCodecVP8,
		Extensions:         []string{"webm"},
		ID:                 ContainerWebM,
		LongName:           "WebM",
		Name:               "webm",
	},
	ContainerMP4: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecAAC, AudioCodecMP3},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecH264, VideoCodecMPEG4},
		DefaultAudioCodec:  AudioCodecAAC,
		DefaultVideoCodec:  VideoCodecH264,
		Extensions:         []string{"mp4", "m4v"},
		ID:                 ContainerMP4,
		LongName:           "MP4 (MPEG-4 Part 14)",
		Name:               "mp4",
	},
	ContainerFLV: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecMP3, AudioCodecAAC},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecFLV1, VideoCodecH264},
		DefaultAudioCodec:  AudioCodecMP3,
		DefaultVideoCodec:  VideoCodecFLV1,
		Extensions:         []string{"flv"},
		ID:                 ContainerFLV,
		LongName:           "FLV (Flash Video)",
		Name:               "flv",
	},
	ContainerMPEG: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecMP2},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecMPEG1, VideoCodecMPEG2},
		DefaultAudioCodec:  AudioCodecMP2,
		DefaultVideoCodec:  VideoCodecMPEG1,
		Extensions:         []string{"mpg", "mpeg"},
		ID:                 ContainerMPEG,
		LongName:           "MPEG-1 Systems / MPEG program stream",
		Name:               "mpeg",
	},
	ContainerOgg: {
		AllowedAudioCodecs: []AudioCodecID{AudioCodecVorbis, AudioCodecOpus},
		AllowedVideoCodecs: []VideoCodecID{VideoCodecTheora},
		DefaultAudioCodec:  AudioCodecVorbis,
		DefaultVideoCodec:  VideoCodecTheora,
		Extensions:         []string{"ogg", "ogv"},
		ID:                 ContainerOgg,
		LongName:           "Ogg",
		Name:               "ogg",
	},
}

var videoCodecs = map[VideoCodecID]VideoCodecDescriptor{
	VideoCodecPNG:      {EncoderName: "png", ID: VideoCodecPNG, Name: "png", PixelFormat: PixelFormatRGB24},
	VideoCodecMJPEG:    {EncoderName: "mjpeg", ID: VideoCodecMJPEG, Name: "mjpeg", PixelFormat: PixelFormatYUVJ420P, Quantized: true},
	VideoCodecBMP:      {EncoderName: "bmp", ID: VideoCodecBMP, Name: "bmp", PixelFormat: PixelFormatBGR24},
	VideoCodecMPEG4:    {EncoderName: "mpeg4", ID: VideoCodecMPEG4, Name: "mpeg4", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecH264:     {EncoderName: "libx264", ID: VideoCodecH264, Name: "h264", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecVP8:      {EncoderName: "libvpx", ID: VideoCodecVP8, Name: "vp8", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecVP9:      {EncoderName: "libvpx-vp9", ID: VideoCodecVP9, Name: "vp9", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecFFV1:     {EncoderName: "ffv1", ID: VideoCodecFFV1, Name: "ffv1", PixelFormat: PixelFormatYUV420P},
	VideoCodecMPEG1:    {EncoderName: "mpeg1video", ID: VideoCodecMPEG1, Name: "mpeg1video", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecMPEG2:    {EncoderName: "mpeg2video", ID: VideoCodecMPEG2, Name: "mpeg2video", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecFLV1:     {EncoderName: "flv", ID: VideoCodecFLV1, Name: "flv1", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecTheora:   {EncoderName: "libtheora", ID: VideoCodecTheora, Name: "theora", PixelFormat: PixelFormatYUV420P, Quantized: true},
	VideoCodecRawVideo: {EncoderName: "rawvideo", ID: VideoCodecRawVideo, Name: "rawvideo", PixelFormat: PixelFormatBGR24},
}

var audioCodecs = map[AudioCodecID]AudioCodecDescriptor{
	AudioCodecPCMS16LE: {DecoderName: "pcm_s16le", EncoderName: "pcm_s16le", ID: AudioCodecPCMS16LE, Name: "pcm_s16le"},
	AudioCodecPCMALaw:  {DecoderName: "pcm_alaw", EncoderName: "pcm_alaw", ID: AudioCodecPCMALaw, Name: "pcm_alaw"},
	AudioCodecPCMMuLaw: {DecoderName: "pcm_mulaw", EncoderName: "pcm_mulaw", ID: AudioCodecPCMMuLaw, Name: "pcm_mulaw"},
	AudioCodecMP2:      {DecoderName: "mp2", EncoderName: "mp2", ID: AudioCodecMP2, Name: "mp2"},
	AudioCodecMP3:      {DecoderName: "mp3", EncoderName: "libmp3lame", ID: AudioCodecMP3, Name: "mp3"},
	AudioCodecAAC:      {DecoderName: "aac", EncoderName: "aac", ID: AudioCodecAAC, Name: "aac"},
	AudioCodecVorbis:   {DecoderName: "vorbis", EncoderName: "libvorbis", ID: AudioCodecVorbis, Name: "vorbis"},
	AudioCodecOpus:     {DecoderName: "opus", EncoderName: "libopus", ID: AudioCodecOpus, Name: "opus"},
}

// Container returns the descriptor of a container
func Container(id ContainerID) (ContainerDescriptor, bool) {
	d, ok := containers[id]
	return d, ok
}

// Containers returns all container descriptors ordered by id
func Containers() (ds []ContainerDescriptor) {
	for id := ContainerID(1); id < containerCount; id++ {
		if d, ok := containers[id]; ok {
			ds = append(ds, d)
		}
	}
	return
}

// VideoCodec returns the descriptor of a video codec
func VideoCodec(id VideoCodecID) (VideoCodecDescriptor, bool) {
	d, ok := videoCodecs[id]
	return d, ok
}

// AudioCodec returns the descriptor of an audio codec
func AudioCodec(id AudioCodecID) (AudioCodecDescriptor, bool) {
	d, ok := audioCodecs[id]
	return d, ok
}

func (id ContainerID) String() string {
	if d, ok := containers[id]; ok {
		return d.LongName
	}
	if id == ContainerAuto {
		return "auto"
	}
	return "unknown"
}

func (id VideoCodecID) String() string {
	switch id {
	case VideoCodecAuto:
		return "auto"
	case VideoCodecNone:
		return "none"
	}
	if d, ok := videoCodecs[id]; ok {
		return d.Name
	}
	return "unknown"
}

func (id AudioCodecID) String() string {
	switch id {
	case AudioCodecAuto:
		return "auto"
	case AudioCodecNone:
		return "none"
	}
	if d, ok := audioCodecs[id]; ok {
		return d.Name
	}
	return "unknown"
}

// ParseContainer looks a container up by muxer name, extension or numeric id
func ParseContainer(s string) (ContainerID, bool) {
	if s == "" || s == "auto" {
		return ContainerAuto, true
	}
	for _, d := range Containers() {
		if d.Name == s && !d.SingleImage {
			return d.ID, true
		}
		for _, e := range d.Extensions {
			if e == s {
				return d.ID, true
			}
		}
	}
	return ContainerAuto, false
}

// ParseVideoCodec looks a video codec up by name
func ParseVideoCodec(s string) (VideoCodecID, bool) {
	if s == "" || s == "auto" {
		return VideoCodecAuto, true
	}
	for id := VideoCodecID(1); id < videoCodecCount; id++ {
		if videoCodecs[id].Name == s {
			return id, true
		}
	}
	return VideoCodecAuto, false
}

// ParseAudioCodec looks an audio codec up by name
func ParseAudioCodec(s string) (AudioCodecID, bool) {
	if s == "" || s == "auto" {
		return AudioCodecAuto, true
	}
	for id := AudioCodecID(1); id < audioCodecCount; id++ {
		if audioCodecs[id].Name == s {
			return id, true
		}
	}
	return AudioCodecAuto, false
}
