package astinative

import "github.com/asticode/go-astirecorder"

// Available implements the astirecorder.Availabler interface
func (b *Backend) Available() astirecorder.Availability {
	return astirecorder.Availability{
		AudioCodecs: []astirecorder.AudioCodecID{astirecorder.AudioCodecPCMS16LE},
		VideoCodecs: []astirecorder.VideoCodecID{
			astirecorder.VideoCodecPNG,
			astirecorder.VideoCodecMJPEG,
			astirecorder.VideoCodecBMP,
		},
	}
}
