package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker, split by envelope outcome",
		},
		[]string{"task_type", "outcome"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs handed back to the engine for retry",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	AdvisorAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_assignments_total",
			Help: "Lead assignments by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	AssignmentConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_assignment_conflicts_total",
			Help: "Selections that lost a race for an advisor slot and were retried",
		},
	)

	MessageClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_classifications_total",
			Help: "Classified messages by classifier and label",
		},
		[]string{"classifier", "label"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Outbound notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)
