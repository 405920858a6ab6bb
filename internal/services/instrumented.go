package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/genai"
)

const (
	OperationStructured = "structured"
	OperationImage      = "image"
	OperationConverse   = "converse"

	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeCredential = "credential"
)

// InstrumentedGenAI records request counts and latency for another GenAI.
type InstrumentedGenAI struct {
	next     GenAI
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ GenAI = (*InstrumentedGenAI)(nil)

// NewInstrumentedGenAI wraps next and registers its collectors with reg.
func NewInstrumentedGenAI(next GenAI, reg prometheus.Registerer) (*InstrumentedGenAI, error) {
	i := &InstrumentedGenAI{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chronicle",
			Name:      "genai_requests_total",
			Help:      "Generative API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chronicle",
			Name:      "genai_request_duration_seconds",
			Help:      "Generative API request latency by operation.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
	}

	if err := reg.Register(i.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(i.duration); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *InstrumentedGenAI) observe(op string, start time.Time, err error) {
	i.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case IsCredentialError(err):
		outcome = OutcomeCredential
	default:
		outcome = OutcomeError
	}
	i.requests.WithLabelValues(op, outcome).Inc()
}

func (i *InstrumentedGenAI) GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	start := time.Now()
	out, err := i.next.GenerateStructured(ctx, model, prompt, schema)
	i.observe(OperationStructured, start, err)
	return out, err
}

func (i *InstrumentedGenAI) GenerateImage(ctx context.Context, model, prompt, aspectRatio, imageSize string) ([]ImagePart, error) {
	start := time.Now()
	parts, err := i.next.GenerateImage(ctx, model, prompt, aspectRatio, imageSize)
	i.observe(OperationImage, start, err)
	return parts, err
}

func (i *InstrumentedGenAI) Converse(ctx context.Context, model, systemPreamble, message string) (string, error) {
	start := time.Now()
	out, err := i.next.Converse(ctx, model, systemPreamble, message)
	i.observe(OperationConverse, start, err)
	return out, err
}
