package astilibav

import (
	"encoding/binary"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
)

func videoFrameToFrame(src *astirecorder.VideoFrame, dst *astiav.Frame) (err error) {
	// Get pixel format
	var pf astiav.PixelFormat
	if pf, err = pixelFormat(src.Format); err != nil {
		return
	}

	// Allocate
	dst.Unref()
	dst.SetHeight(src.Height)
	dst.SetPixelFormat(pf)
	dst.SetWidth(src.Width)
	if err = dst.AllocBuffer(0); err != nil {
		err = fmt.Errorf("astilibav: allocating video buffer failed: %w", err)
		return
	}

	// Copy
	if err = dst.Data().SetBytes(src.Bytes(), 1); err != nil {
		err = fmt.Errorf("astilibav: setting video bytes failed: %w", err)
		return
	}
	dst.SetPts(src.Pts)
	return
}

func frameToVideoFrame(src *astiav.Frame, f astirecorder.PixelFormat) (*astirecorder.VideoFrame, error) {
	b, err := src.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("astilibav: getting video bytes failed: %w", err)
	}
	return astirecorder.NewVideoFrame(f, src.Width(), src.Height(), b)
}

// samplesToFrame fills dst with interleaved signed 16 bits samples
func samplesToFrame(s []int16, channels, sampleRate int, dst *astiav.Frame) (err error) {
	// Get channel layout
	var cl astiav.ChannelLayout
	if cl, err = channelLayout(channels); err != nil {
		return
	}

	// Allocate
	dst.Unref()
	dst.SetChannelLayout(cl)
	dst.SetNbSamples(len(s) / channels)
	dst.SetSampleFormat(astiav.SampleFormatS16)
	dst.SetSampleRate(sampleRate)
	if err = dst.AllocBuffer(0); err != nil {
		err = fmt.Errorf("astilibav: allocating audio buffer failed: %w", err)
		return
	}

	// Copy
	b := make([]byte, 2*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	if err = dst.Data().SetBytes(b, 1); err != nil {
		err = fmt.Errorf("astilibav: setting audio bytes failed: %w", err)
		return
	}
	return
}

// frameToSamples expects an interleaved signed 16 bits frame
func frameToSamples(src *astiav.Frame) ([]int16, error) {
	if src.NbSamples() == 0 {
		return nil, nil
	}
	b, err := src.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("astilibav: getting audio bytes failed: %w", err)
	}
	n := src.NbSamples() * src.ChannelLayout().Channels()
	if len(b) < 2*n {
		return nil, fmt.Errorf("astilibav: audio buffer size %d is smaller than %d", len(b), 2*n)
	}
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return s, nil
}

func packetFromAstiav(pkt *astiav.Packet) astirecorder.Packet {
	return astirecorder.Packet{
		Data:     append([]byte(nil), pkt.Data()...),
		Dts:      pkt.Dts(),
		Duration: pkt.Duration(),
		Key:      pkt.Flags().Has(astiav.PacketFlagKey),
		Pts:      pkt.Pts(),
	}
}

func packetToAstiav(p astirecorder.Packet, idx int, pkt *astiav.Packet) (err error) {
	pkt.Unref()
	if err = pkt.FromData(p.Data); err != nil {
		err = fmt.Errorf("astilibav: setting packet data failed: %w", err)
		return
	}
	pkt.SetDts(p.Dts)
	pkt.SetDuration(p.Duration)
	if p.Key {
		pkt.SetFlags(pkt.Flags().Add(astiav.PacketFlagKey))
	}
	pkt.SetPts(p.Pts)
	pkt.SetStreamIndex(idx)
	return
}

// receivePackets drains the packets the encoder has available
func receivePackets(cc *astiav.CodecContext, pkt *astiav.Packet) (ps []astirecorder.Packet, err error) {
	for {
		if err = cc.ReceivePacket(pkt); err != nil {
			if isEagainOrEOF(err) {
				err = nil
			} else {
				err = fmt.Errorf("astilibav: receiving packet failed: %w", err)
			}
			return
		}
		ps = append(ps, packetFromAstiav(pkt))
		pkt.Unref()
	}
}
