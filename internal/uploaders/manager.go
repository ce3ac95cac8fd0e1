package uploaders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stream-uploader/internal/logging"
	"stream-uploader/internal/metrics"
	"stream-uploader/internal/model"
	"stream-uploader/internal/notify"
	"stream-uploader/internal/report"
)

// Manager runs a batch of uploads one after another through a single uploader.
type Manager struct {
	uploader Uploader
	log      *logging.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	policy   model.FailurePolicy
	now      func() time.Time
}

// NewManager creates a manager that aborts on the first failure and sends no
// notifications.
func NewManager(uploader Uploader, log *logging.Logger) *Manager {
	return &Manager{
		uploader: uploader,
		log:      log,
		notifier: notify.Nop{},
		policy:   model.FailurePolicyAbort,
		now:      time.Now,
	}
}

func (m *Manager) SetPolicy(p model.FailurePolicy) { m.policy = p }

func (m *Manager) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.Nop{}
	}
	m.notifier = n
}

func (m *Manager) SetMetrics(mt *metrics.Metrics) { m.metrics = mt }

// Run uploads every request in order. Under the abort policy the first
// failure ends the batch and is returned; under continue every request is
// attempted and the failures are returned joined. The report covers every
// attempted upload either way.
func (m *Manager) Run(ctx context.Context, reqs []UploadRequest) (*model.RunReport, error) {
	rep := report.NewRun(m.policy, m.now())
	var failures []error

	for i := range reqs {
		req := reqs[i]
		if err := ctx.Err(); err != nil {
			rep.FinishedAt = m.now()
			return rep, errors.Join(append(failures, fmt.Errorf("stopped before %s: %w", req.SourceURL, err))...)
		}

		rec, err := m.uploadOne(ctx, &req)
		rep.Items = append(rep.Items, rec)
		if err == nil {
			continue
		}
		if m.policy != model.FailurePolicyContinue {
			rep.FinishedAt = m.now()
			return rep, err
		}
		failures = append(failures, err)
	}

	rep.FinishedAt = m.now()
	if len(failures) > 0 {
		return rep, fmt.Errorf("%d of %d uploads failed: %w", len(failures), len(reqs), errors.Join(failures...))
	}
	return rep, nil
}

func (m *Manager) uploadOne(ctx context.Context, req *UploadRequest) (model.UploadRecord, error) {
	rec := model.UploadRecord{SourceURL: req.SourceURL, Name: req.Name, StartedAt: m.now()}
	m.log.Infof("uploading %s as %q to %s", req.SourceURL, req.Name, m.uploader.Platform())

	res, err := m.uploader.Upload(ctx, req)
	rec.FinishedAt = m.now()
	took := rec.FinishedAt.Sub(rec.StartedAt)
	if res != nil {
		rec.UID = res.VideoID
	}

	if err != nil {
		err = fmt.Errorf("failed to upload video %s: %w", req.SourceURL, err)
		rec.Error = err.Error()
		m.metrics.ObserveUpload(metrics.OutcomeFailure, took)
		// Run's caller logs the error chain.
		m.log.Warnf("upload of %s failed after %s", req.SourceURL, took.Round(time.Millisecond))
		m.sendNotification(ctx, notify.FailedText(req.Name, req.SourceURL, err))
		return rec, err
	}

	rec.Preview = res.URL
	rec.Ready = res.Ready
	m.metrics.ObserveUpload(metrics.OutcomeSuccess, took)
	m.log.Infof("Uploaded video %s, preview: %s", res.VideoID, res.URL)
	m.sendNotification(ctx, notify.UploadedText(req.Name, req.SourceURL, res.VideoID, res.URL))
	return rec, nil
}

func (m *Manager) sendNotification(ctx context.Context, text string) {
	if err := m.notifier.Notify(ctx, text); err != nil {
		m.log.Warnf("notify: %v", err)
	}
}
