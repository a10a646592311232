package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	playlistBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpmshuffle_playlist_builds_total",
			Help: "Playlist builds by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)
	playlistTracks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bpmshuffle_playlist_tracks",
			Help:    "Number of tracks per built playlist",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bpmshuffle_build_duration_seconds",
			Help:    "Time spent building a playlist",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(playlistBuilds, playlistTracks, buildDuration)
}
