package meter

import (
	"fmt"
	"math"
)

const (
	// FloorDB is reported for a silent channel (RMS of zero).
	FloorDB = -100.0

	// DefaultMinDB and DefaultMaxDB bound the visible meter window.
	DefaultMinDB = -60.0
	DefaultMaxDB = 0.0
)

// Reading is one channel's level for a single frame
type Reading struct {
	RMS     float64 `json:"rms" doc:"Root-mean-square amplitude"`
	DB      float64 `json:"db" doc:"Level in dBFS, -100 when silent"`
	Percent float64 `json:"percent" minimum:"0" maximum:"100" doc:"Meter fill percentage"`
	Label   string  `json:"label" doc:"Human-readable level"`
}

// Stereo holds the left and right readings of a frame
type Stereo struct {
	Left  Reading `json:"left"`
	Right Reading `json:"right"`
}

// Scale maps decibels onto the meter's visible window
type Scale struct {
	MinDB float64
	MaxDB float64
}

// DefaultScale returns the -60 dB to 0 dB window.
func DefaultScale() Scale {
	return Scale{MinDB: DefaultMinDB, MaxDB: DefaultMaxDB}
}

// RMS returns the root-mean-square of samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// Decibels converts an RMS amplitude to dBFS. Non-positive input yields FloorDB.
func Decibels(rms float64) float64 {
	if rms <= 0 || math.IsNaN(rms) {
		return FloorDB
	}

	db := 20 * math.Log10(rms)
	if db < FloorDB {
		return FloorDB
	}

	return db
}

// Percent maps db into [0,100] over the window [minDB, maxDB].
func Percent(db, minDB, maxDB float64) float64 {
	if maxDB <= minDB {
		return 0
	}

	p := 100 * (db - minDB) / (maxDB - minDB)
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}

	return p
}

// Label formats db for display; the floor renders as negative infinity.
func Label(db float64) string {
	if db <= FloorDB {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// Read builds a Reading for one channel from its RMS.
func (s Scale) Read(rms float64) Reading {
	db := Decibels(rms)
	return Reading{
		RMS:     rms,
		DB:      db,
		Percent: Percent(db, s.MinDB, s.MaxDB),
		Label:   Label(db),
	}
}

// ReadStereo measures both channels' time-domain buffers.
func (s Scale) ReadStereo(left, right []float32) Stereo {
	return Stereo{
		Left:  s.Read(RMS(left)),
		Right: s.Read(RMS(right)),
	}
}
