package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 考勤事件指标
// outcome 取值与引擎判定结果一致: created | updated | duplicate | no_schedule | unauthorized
var (
	AttendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "davomat_attendance_events_total",
		Help: "按判定结果统计的考勤事件总数",
	}, []string{"outcome"})

	RecognitionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "davomat_recognition_requests_total",
		Help: "人脸识别服务调用次数",
	}, []string{"status"})

	RecognitionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "davomat_recognition_latency_seconds",
		Help:    "人脸识别服务调用耗时",
		Buckets: prometheus.DefBuckets,
	})
)
