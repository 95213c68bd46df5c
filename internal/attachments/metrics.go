package attachments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplanner_attachment_uploads_total",
			Help: "Attachment uploads by result (ok, rejected, store_failed, index_failed).",
		},
		[]string{"result"},
	)

	// Blobs written whose metadata insert then failed.
	orphanedBlobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "careplanner_attachment_orphaned_blobs_total",
		Help: "Blobs stored without a matching metadata record.",
	})

	signedURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careplanner_attachment_signed_urls_total",
			Help: "Signed download URL requests by result (ok, failed).",
		},
		[]string{"result"},
	)
)
