package astilibav

import (
	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
)

// Available implements the astirecorder.Availabler interface. Encoders such as
// libx264 depend on how libav has been built.
func (b *Backend) Available() (a astirecorder.Availability) {
	for id := astirecorder.VideoCodecID(1); ; id++ {
		d, ok := astirecorder.VideoCodec(id)
		if !ok {
			break
		}
		if astiav.FindEncoderByName(d.EncoderName) != nil {
			a.VideoCodecs = append(a.VideoCodecs, id)
		}
	}
	for id := astirecorder.AudioCodecID(1); ; id++ {
		d, ok := astirecorder.AudioCodec(id)
		if !ok {
			break
		}
		if astiav.FindEncoderByName(d.EncoderName) != nil {
			a.AudioCodecs = append(a.AudioCodecs, id)
		}
	}
	return
}
