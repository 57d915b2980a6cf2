package kiosk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceatt_frames_processed_total",
		Help: "Frames consumed by the recognition loop.",
	})

	facesObserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceatt_faces_observed_total",
		Help: "Faces detected across all frames.",
	})

	scanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceatt_scan_outcomes_total",
		Help: "Policy outcomes per recognized identity scan.",
	}, []string{"outcome"})

	galleryReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceatt_gallery_reloads_total",
		Help: "Full gallery reloads triggered by file-set changes.",
	})
)
