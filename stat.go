package astirecorder

import (
	"context"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stat names
const (
	StatNameAudioChunksDroppedRate = "astirecorder.audio.chunks.dropped.rate"
	StatNameAudioPacketRate        = "astirecorder.audio.packet.rate"
	StatNameBitRate                = "astirecorder.bit.rate"
	StatNameFrameRate              = "astirecorder.frame.rate"
	StatNamePSUtil                 = "astirecorder.ps.util"
	StatNameVideoPacketRate        = "astirecorder.video.packet.rate"
)

// EventStat represents a stat event
type EventStat struct {
	Description string
	Label       string
	Name        string
	Target      interface{}
	Unit        string
	Value       interface{}
}

// Stater represents an object that can compute and handle stats
type Stater struct {
	eh *EventHandler
	m  *sync.Mutex                           // Locks ts
	ts map[*astikit.StatMetadata]interface{} // Targets indexed by stats metadata
	s  *astikit.Stater
}

// NewStater creates a new stater
func NewStater(period time.Duration, eh *EventHandler) (s *Stater) {
	s = &Stater{
		eh: eh,
		m:  &sync.Mutex{},
		ts: make(map[*astikit.StatMetadata]interface{}),
	}
	s.s = astikit.NewStater(astikit.StaterOptions{
		HandleFunc: s.handle,
		Period:     period,
	})
	return
}

// AddStats adds stats
func (s *Stater) AddStats(target interface{}, os ...astikit.StatOptions) {
	s.m.Lock()
	defer s.m.Unlock()
	for _, o := range os {
		s.ts[o.Metadata] = target
	}
	s.s.AddStats(os...)
}

// DelStats deletes stats
func (s *Stater) DelStats(target interface{}, os ...astikit.StatOptions) {
	s.m.Lock()
	defer s.m.Unlock()
	for _, o := range os {
		delete(s.ts, o.Metadata)
	}
	s.s.DelStats(os...)
}

// AddPSUtil adds process wide cpu and memory stats
func (s *Stater) AddPSUtil() {
	s.AddStats(nil, astikit.StatOptions{
		Metadata: &astikit.StatMetadata{
			Description: "CPU and memory usage",
			Label:       "PS util",
			Name:        StatNamePSUtil,
		},
		Valuer: statPSUtil{},
	})
}

// Start starts the stater. It blocks until the context is done or the stater is
// stopped.
func (s *Stater) Start(ctx context.Context) { s.s.Start(ctx) }

// Stop stops the stater
func (s *Stater) Stop() { s.s.Stop() }

func (s *Stater) handle(stats []astikit.StatValue) {
	// No stats
	if len(stats) == 0 {
		return
	}

	// Loop through stats
	ss := []EventStat{}
	for _, stat := range stats {
		// Get target
		s.m.Lock()
		t, ok := s.ts[stat.StatMetadata]
		s.m.Unlock()

		// No target
		if !ok {
			continue
		}

		// Append
		ss = append(ss, EventStat{
			Description: stat.Description,
			Label:       stat.Label,
			Name:        stat.Name,
			Target:      t,
			Unit:        stat.Unit,
			Value:       stat.Value,
		})
	}

	// Send event
	s.eh.Emit(Event{
		Name:    EventNameStats,
		Payload: ss,
	})
}

// StatOptions returns the session stats, meant to be added to a Stater
func (s *Session) StatOptions() []astikit.StatOptions {
	return []astikit.StatOptions{
		{
			Metadata: &astikit.StatMetadata{
				Description: "Number of captured images fed per second",
				Label:       "Frame rate",
				Name:        StatNameFrameRate,
				Unit:        "fps",
			},
			Valuer: astikit.NewAtomicUint64RateStat(&s.stats.framesFed),
		},
		{
			Metadata: &astikit.StatMetadata{
				Description: "Number of video packets written per second",
				Label:       "Video packet rate",
				Name:        StatNameVideoPacketRate,
				Unit:        "pps",
			},
			Valuer: astikit.NewAtomicUint64RateStat(&s.stats.videoPackets),
		},
		{
			Metadata: &astikit.StatMetadata{
				Description: "Number of audio packets written per second",
				Label:       "Audio packet rate",
				Name:        StatNameAudioPacketRate,
				Unit:        "pps",
			},
			Valuer: astikit.NewAtomicUint64RateStat(&s.stats.audioPackets),
		},
		{
			Metadata: &astikit.StatMetadata{
				Description: "Number of audio chunks dropped per second while audio was ahead of video",
				Label:       "Audio drop rate",
				Name:        StatNameAudioChunksDroppedRate,
				Unit:        "cps",
			},
			Valuer: astikit.NewAtomicUint64RateStat(&s.stats.audioChunksDropped),
		},
		{
			Metadata: &astikit.StatMetadata{
				Description: "Number of bits written per second",
				Label:       "Bit rate",
				Name:        StatNameBitRate,
				Unit:        "bps",
			},
			Valuer: &statBitRate{s: s.stats},
		},
	}
}

type statBitRate struct {
	last uint64
	s    *stats
}

func (s *statBitRate) Value(delta time.Duration) interface{} {
	c := s.s.snapshot().BytesWritten
	n := c - s.last
	s.last = c
	if delta <= 0 {
		return 0.0
	}
	return float64(n*8) / delta.Seconds()
}

type statPSUtil struct{}

type statPSUtilValue struct {
	CPU    statPSUtilValueCPU    `json:"cpu"`
	Memory statPSUtilValueMemory `json:"memory"`
}

type statPSUtilValueCPU struct {
	Global     float64   `json:"global"`
	Individual []float64 `json:"individual"`
}

type statPSUtilValueMemory struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

func (statPSUtil) Value(delta time.Duration) interface{} {
	var v statPSUtilValue
	if vs, err := cpu.Percent(0, false); err == nil && len(vs) > 0 {
		v.CPU.Global = vs[0]
	}
	if vs, err := cpu.Percent(0, true); err == nil {
		v.CPU.Individual = vs
	}
	if vv, err := mem.VirtualMemory(); err == nil {
		v.Memory = statPSUtilValueMemory{
			Total: vv.Total,
			Used:  vv.Used,
		}
	}
	return v
}
