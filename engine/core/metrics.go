package core

import (
	"github.com/spaghettifunk/anima2d/engine/containers"
)

const AVG_COUNT int = 30

// FrameStats is what the renderer reports once per frame.
type FrameStats struct {
	DrawCalls   uint64
	Sprites     uint64
	Flushes     uint64
	TextureSwap uint64
}

type Metrics struct {
	frameTimes         *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64

	totalFrames uint64
	last        FrameStats
	total       FrameStats
}

func NewMetrics() *Metrics {
	return &Metrics{
		frameTimes: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records the duration of one frame, in seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.frameTimes.Push(frameMS)

	sum := 0.0
	m.frameTimes.Each(func(v float64) { sum += v })
	m.msAvg = sum / float64(m.frameTimes.Len())

	m.accumulatedFrameMS += frameMS
	m.frames++
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.totalFrames++
}

// Record merges renderer statistics of the frame just submitted.
func (m *Metrics) Record(s FrameStats) {
	m.last = s
	m.total.DrawCalls += s.DrawCalls
	m.total.Sprites += s.Sprites
	m.total.Flushes += s.Flushes
	m.total.TextureSwap += s.TextureSwap
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}

func (m *Metrics) LastFrame() FrameStats {
	return m.last
}

func (m *Metrics) Totals() (uint64, FrameStats) {
	return m.totalFrames, m.total
}
