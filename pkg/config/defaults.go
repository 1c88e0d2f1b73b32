package config

import "github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"

// Canvas defaults: a 1600×900 drawing surface with 20px left/top and 40px
// right/bottom margins.
const (
	DefaultCanvasWidth  = 1600
	DefaultCanvasHeight = 900
	DefaultMarginLeft   = 20
	DefaultMarginRight  = 40
	DefaultMarginTop    = 20
	DefaultMarginBottom = 40
)

// Input defaults.
const (
	DefaultChunkSize   = 100000
	DefaultMaxFileSize = "2GB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Sampler defaults mirror sampler.DefaultOptions.
const (
	DefaultGridWidth          = sampler.DefaultGridWidth
	DefaultStopLevel          = sampler.DefaultStopLevel
	DefaultDensityThreshold   = sampler.DefaultDensityThreshold
	DefaultOutlierWeight      = sampler.DefaultOutlierWeight
	DefaultRatioThreshold     = sampler.DefaultRatioThreshold
	DefaultReplaceProbability = sampler.DefaultReplaceProbability
	DefaultTimeStep           = sampler.DefaultTimeStep
	DefaultTimeWindow         = sampler.DefaultTimeWindow
)
