package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatter_jobs_processed_total",
		Help: "Jobs completed successfully, by task type.",
	}, []string{"task_type"})

	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatter_jobs_failed_total",
		Help: "Job handler failures (each failure schedules a retry until the ceiling), by task type.",
	}, []string{"task_type"})
)
