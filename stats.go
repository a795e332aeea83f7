package astirecorder

import "sync/atomic"

// Stats is a snapshot of a session statistics
type Stats struct {
	AudioChunksDropped uint64  `json:"audio_chunks_dropped"`
	AudioChunksRead    uint64  `json:"audio_chunks_read"`
	AudioPackets       uint64  `json:"audio_packets"`
	AudioPts           float64 `json:"audio_pts"`
	BytesWritten       uint64  `json:"bytes_written"`
	FramesFed          uint64  `json:"frames_fed"`
	VideoPackets       uint64  `json:"video_packets"`
	VideoPts           float64 `json:"video_pts"`
}

type stats struct {
	audioChunksDropped uint64
	audioChunksRead    uint64
	audioPackets       uint64
	bytesWritten       uint64
	framesFed          uint64
	videoPackets       uint64
}

func (s *stats) packetWritten(stream string, size int) {
	if stream == StreamAudio {
		atomic.AddUint64(&s.audioPackets, 1)
	} else {
		atomic.AddUint64(&s.videoPackets, 1)
	}
	atomic.AddUint64(&s.bytesWritten, uint64(size))
}

func (s *stats) snapshot() Stats {
	return Stats{
		AudioChunksDropped: atomic.LoadUint64(&s.audioChunksDropped),
		AudioChunksRead:    atomic.LoadUint64(&s.audioChunksRead),
		AudioPackets:       atomic.LoadUint64(&s.audioPackets),
		BytesWritten:       atomic.LoadUint64(&s.bytesWritten),
		FramesFed:          atomic.LoadUint64(&s.framesFed),
		VideoPackets:       atomic.LoadUint64(&s.videoPackets),
	}
}
