package backend

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpExists  = "exists"
	OpIsDir   = "isdir"
	OpListDir = "listdir"
)

// Metrics counts primitive calls issued against backends.
type Metrics struct {
	calls  *prometheus.CounterVec
	errors *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fsglob_backend_calls_total",
			Help: "The number of primitive calls issued to a storage backend",
		}, []string{"backend", "op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fsglob_backend_errors_total",
			Help: "The number of primitive calls that failed",
		}, []string{"backend", "op"}),
	}

	if reg != nil {
		if err := reg.Register(m.calls); err != nil {
			return nil, err
		}
		if err := reg.Register(m.errors); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Calls returns the counter for one backend operation.
func (m *Metrics) Calls(name, op string) prometheus.Counter {
	return m.calls.WithLabelValues(name, op)
}

func (m *Metrics) Errors(name, op string) prometheus.Counter {
	return m.errors.WithLabelValues(name, op)
}

// Instrument wraps fs so that every primitive call is counted under name.
func (m *Metrics) Instrument(name string, fs FileSystem) FileSystem {
	return &instrumented{name: name, fs: fs, metrics: m}
}

type instrumented struct {
	name    string
	fs      FileSystem
	metrics *Metrics
}

func (i *instrumented) observe(op string, err error) {
	i.metrics.Calls(i.name, op).Inc()
	if err != nil {
		i.metrics.Errors(i.name, op).Inc()
	}
}

func (i *instrumented) Exists(path string) (bool, error) {
	ok, err := i.fs.Exists(path)
	i.observe(OpExists, err)
	return ok, err
}

func (i *instrumented) IsDir(path string) (bool, error) {
	ok, err := i.fs.IsDir(path)
	i.observe(OpIsDir, err)
	return ok, err
}

func (i *instrumented) ListDir(path string) ([]string, error) {
	names, err := i.fs.ListDir(path)
	i.observe(OpListDir, err)
	return names, err
}
