package pcd8544

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pcd8544_transactions_total",
		Help: "SPI transactions sent to the controller, by D/C mode.",
	}, []string{"kind"})

	commandTransactions = transactions.WithLabelValues("command")
	dataTransactions    = transactions.WithLabelValues("data")

	dataBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pcd8544_data_bytes_total",
		Help: "Display RAM bytes written.",
	})

	pixelWritesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pcd8544_pixel_writes_skipped_total",
		Help: "SetPixel calls that left the display byte unchanged.",
	})

	glyphsClipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pcd8544_glyphs_clipped_total",
		Help: "Glyphs dropped because they ran past the right edge.",
	})
)
