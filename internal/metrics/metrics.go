package metrics

import (
	"errors"
	"net/http"
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/optimizer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values of harvest_predictions_total.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidMonth    = "invalid_month"
	OutcomeInvalidWindow   = "invalid_window"
	OutcomeInvalidGeometry = "invalid_geometry"
	OutcomeError           = "error"
)

// Recorder implements forecast.Observer on top of prometheus collectors.
type Recorder struct {
	predictions *prometheus.CounterVec
	days        prometheus.Histogram
	sacks       prometheus.Histogram
	duration    prometheus.Histogram
}

var _ forecast.Observer = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvest_predictions_total",
			Help: "Harvest predictions by outcome.",
		}, []string{"outcome"}),
		days: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvest_days_to_harvest",
			Help:    "Predicted days until the ideal harvest.",
			Buckets: prometheus.LinearBuckets(0, 15, 11),
		}),
		sacks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvest_yield_sacks_per_hectare",
			Help:    "Upper bound of the predicted yield in 60 kg sacks per hectare.",
			Buckets: []float64{5, 10, 20, 30, 40, 60, 80, 100, 150},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvest_prediction_duration_seconds",
			Help:    "Time spent computing one prediction.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{r.predictions, r.days, r.sacks, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObservePrediction(res forecast.Result, elapsed time.Duration) {
	r.predictions.WithLabelValues(OutcomeSuccess).Inc()
	r.days.Observe(float64(res.DaysToHarvest))
	r.sacks.Observe(res.YieldHigh)
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveFailure(err error) {
	r.predictions.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, calibration.ErrInvalidMonth):
		return OutcomeInvalidMonth
	case errors.Is(err, optimizer.ErrInvalidSearchBounds):
		return OutcomeInvalidWindow
	case errors.Is(err, forecast.ErrInvalidGeometry):
		return OutcomeInvalidGeometry
	default:
		return OutcomeError
	}
}

// Handler serves the collectors of g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
