package assign

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gep-platform/assignd/core/audit"
	"github.com/gep-platform/assignd/core/directory"
	"github.com/gep-platform/assignd/core/events"
	"github.com/gep-platform/assignd/core/logger"
	"github.com/gep-platform/assignd/core/metrics"
	"github.com/gep-platform/assignd/core/model"
	"github.com/gep-platform/assignd/core/monitoring"
	"github.com/gep-platform/assignd/core/notify"
	"github.com/gep-platform/assignd/core/scheduler"
	"github.com/gep-platform/assignd/internal/eventbus"
)

// Outcome reports the result of an assignment operation. An unfulfillable
// request is reported through Escalated, never as an error; a transition
// that lost the race against another one is reported through Stale.
type Outcome struct {
	RequestID  string
	Assignment *model.Assignment
	Run        model.OptimizationRun
	Escalated  bool
	Stale      bool
	Reason     string
}

// PartnerResponse is one accept/decline reply received from a partner.
type PartnerResponse struct {
	AssignmentID string
	PartnerID    string
	Accepted     bool
}

// Manager drives the assignment state machine: it proposes the best-ranked
// candidate, tracks the partner response and re-proposes the next candidate
// on decline or expiry until the pool is exhausted.
type Manager struct {
	filter       CandidateFilter
	scorer       Scorer
	store        AssignmentStore
	auditStore   audit.Store
	requests     directory.RequestSource
	partners     directory.PartnerDirectory
	notifier     notify.Notifier
	cfg          Config
	metrics      metrics.MetricsSink
	bus          eventbus.EventBus
	logger       logger.Logger
	timers       *scheduler.DeadlineTimers
	committer    directory.AvailabilityCommitter
	updater      directory.RequestUpdater
	now          func() time.Time

	mu       sync.Mutex
	excluded map[string]map[string]struct{}
	proposed map[string]int
	accepted map[string]int
}

// NewManager creates a new manager. The response window and watcher cadence
// come from cfg; cfg defaults are applied when unset.
func NewManager(filter CandidateFilter, scorer Scorer, store AssignmentStore, auditStore audit.Store, requests directory.RequestSource, partners directory.PartnerDirectory, notifier notify.Notifier, cfg Config, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Manager, error) {
	if filter == nil || scorer == nil || store == nil || auditStore == nil || requests == nil || partners == nil || notifier == nil {
		return nil, fmt.Errorf("assign: nil parameter provided to NewManager")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Manager{
		filter:     filter,
		scorer:     scorer,
		store:      store,
		auditStore: auditStore,
		requests:   requests,
		partners:   partners,
		notifier:   notifier,
		cfg:        cfg,
		metrics:    sink,
		bus:        bus,
		logger:     log,
		timers:     scheduler.NewDeadlineTimers(),
		now:        time.Now,
		excluded:   make(map[string]map[string]struct{}),
		proposed:   make(map[string]int),
		accepted:   make(map[string]int),
	}, nil
}

// SetAvailabilityCommitter configures the sink receiving booked-hours deltas
// on accepted assignments.
func (m *Manager) SetAvailabilityCommitter(c directory.AvailabilityCommitter) {
	m.mu.Lock()
	m.committer = c
	m.mu.Unlock()
}

// SetRequestUpdater configures the collaborator notified of request
// lifecycle changes.
func (m *Manager) SetRequestUpdater(u directory.RequestUpdater) {
	m.mu.Lock()
	m.updater = u
	m.mu.Unlock()
}

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	m.timers.Close()
	if m.bus != nil {
		m.bus.Close()
	}
	if m.auditStore != nil {
		_ = m.auditStore.Close()
	}
	return nil
}

// Run processes incoming partner responses until the context is canceled.
func (m *Manager) Run(ctx context.Context, responses <-chan PartnerResponse) {
	for {
		select {
		case r := <-responses:
			if _, err := m.HandleResponse(ctx, r.AssignmentID, r.Accepted); err != nil {
				m.logger.Errorf("response for %s failed: %v", r.AssignmentID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Assign runs the full pipeline for a pending request: filter, score,
// propose. The request must be in pending state.
func (m *Manager) Assign(ctx context.Context, requestID string) (Outcome, error) {
	req, err := m.requests.GetRequest(ctx, requestID)
	if err != nil {
		return Outcome{}, dataUnavailable(requestID, "get request", err)
	}
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	if req.Status != model.RequestPending {
		return Outcome{}, fmt.Errorf("assign: request %s is %s, want pending", req.ID, req.Status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.propose(ctx, req)
}

// CancelRequest supersedes any in-flight proposal for the request and stops
// further reassignment. Called when the owning request is cancelled
// externally.
func (m *Manager) CancelRequest(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, err := m.store.ActiveByRequest(ctx, requestID)
	if err != nil {
		return dataUnavailable(requestID, "list active assignments", err)
	}
	for _, a := range active {
		if a.Status != model.AssignmentProposed {
			continue
		}
		updated, err := m.store.Transition(ctx, a.ID, model.AssignmentProposed, model.AssignmentSuperseded, nil)
		if errors.Is(err, ErrStaleTransition) {
			m.logger.Infof("cancel: assignment %s already %s, skipping", a.ID, updated.Status)
			continue
		}
		if err != nil {
			return err
		}
		m.timers.Cancel(a.ID)
		m.recordTransition(ctx, updated, model.AssignmentProposed, "request cancelled")
	}
	delete(m.excluded, requestID)
	return nil
}

// HandleResponse applies a partner's accept or decline to the assignment.
// Responses arriving after the assignment left the proposed state are
// logged no-ops.
func (m *Manager) HandleResponse(ctx context.Context, assignmentID string, accepted bool) (Outcome, error) {
	a, err := m.store.Get(ctx, assignmentID)
	if err != nil {
		return Outcome{}, err
	}
	if accepted {
		return m.accept(ctx, a)
	}
	return m.failover(ctx, a, model.AssignmentDeclined, "partner declined")
}

// Expire transitions a proposed assignment past its deadline to expired and
// re-proposes the next candidate. Safe to race against HandleResponse: the
// compare-and-set in the store lets exactly one transition win.
func (m *Manager) Expire(ctx context.Context, assignmentID string) (Outcome, error) {
	a, err := m.store.Get(ctx, assignmentID)
	if err != nil {
		return Outcome{}, err
	}
	return m.failover(ctx, a, model.AssignmentExpired, "response deadline elapsed")
}

// Excluded returns the partners excluded from reassignment for a request,
// sorted for reproducibility.
func (m *Manager) Excluded(requestID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.excluded[requestID])
}

func (m *Manager) accept(ctx context.Context, a model.Assignment) (Outcome, error) {
	now := m.now()
	updated, err := m.store.Transition(ctx, a.ID, model.AssignmentProposed, model.AssignmentAccepted, func(x *model.Assignment) {
		x.RespondedAt = now
	})
	if errors.Is(err, ErrStaleTransition) {
		return m.staleOutcome(updated, true), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	m.timers.Cancel(a.ID)
	m.recordTransition(ctx, updated, model.AssignmentProposed, "partner accepted")
	m.publishResponse(updated, true)

	req, rerr := m.requests.GetRequest(ctx, updated.RequestID)
	serviceType := "unknown"
	if rerr == nil {
		serviceType = req.ServiceType.String()
	}
	responseLatency.WithLabelValues(serviceType).Observe(now.Sub(updated.CreatedAt).Seconds())
	if lr, ok := m.metrics.(metrics.LatencyRecorder); ok {
		if err := lr.RecordResponseLatency([]metrics.ResponseLatency{{
			AssignmentID: updated.ID,
			PartnerID:    updated.PartnerID,
			Accepted:     true,
			Latency:      now.Sub(updated.CreatedAt),
		}}); err != nil {
			m.logger.Errorf("latency metrics error: %v", err)
		}
	}

	m.mu.Lock()
	m.accepted[serviceType]++
	m.setAcceptanceRate(serviceType)
	delete(m.excluded, updated.RequestID)
	committer := m.committer
	updater := m.updater
	m.mu.Unlock()

	if rerr != nil {
		m.logger.Errorf("accept: request %s unavailable, availability delta not committed: %v", updated.RequestID, rerr)
		return Outcome{RequestID: updated.RequestID, Assignment: &updated}, nil
	}
	if committer != nil {
		if err := committer.CommitAvailabilityDelta(ctx, updated.PartnerID, req.Window, updated.Hours); err != nil {
			m.logger.Errorf("accept: availability delta for partner %s failed: %v", updated.PartnerID, err)
		}
	}
	if updater != nil {
		if err := updater.SetRequestStatus(ctx, req.ID, model.RequestAssigned); err != nil {
			m.logger.Errorf("accept: request %s status update failed: %v", req.ID, err)
		}
	}
	m.logger.Infof("request %s accepted by partner %s", updated.RequestID, updated.PartnerID)
	return Outcome{RequestID: updated.RequestID, Assignment: &updated}, nil
}

// failover applies a decline or expiry and re-runs the pipeline with the
// failed partner excluded.
func (m *Manager) failover(ctx context.Context, a model.Assignment, to model.AssignmentStatus, reason string) (Outcome, error) {
	now := m.now()
	updated, err := m.store.Transition(ctx, a.ID, model.AssignmentProposed, to, func(x *model.Assignment) {
		if to == model.AssignmentDeclined {
			x.RespondedAt = now
		}
	})
	if errors.Is(err, ErrStaleTransition) {
		return m.staleOutcome(updated, to == model.AssignmentDeclined), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	m.timers.Cancel(a.ID)
	m.recordTransition(ctx, updated, model.AssignmentProposed, reason)
	m.publishResponse(updated, false)
	m.logger.Infof("assignment %s %s (%s), re-proposing request %s", updated.ID, to, reason, updated.RequestID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exclude(updated.RequestID, updated.PartnerID)

	req, err := m.requests.GetRequest(ctx, updated.RequestID)
	if err != nil {
		return Outcome{}, dataUnavailable(updated.RequestID, "get request", err)
	}
	if req.Status == model.RequestCancelled {
		m.logger.Infof("request %s cancelled, no reassignment", req.ID)
		delete(m.excluded, req.ID)
		return Outcome{RequestID: req.ID, Reason: "request cancelled"}, nil
	}
	return m.propose(ctx, req)
}

// propose runs filter and scoring over the current pool and commits a
// proposal for the top candidate. Callers must hold m.mu.
func (m *Manager) propose(ctx context.Context, req model.Request) (Outcome, error) {
	excluded := m.excluded[req.ID]
	pool, err := m.partners.ListEligiblePartners(ctx, req.ServiceType)
	if err != nil {
		return Outcome{}, dataUnavailable(req.ID, "list partners", err)
	}
	candidates, err := m.filter.Filter(ctx, req, pool, excluded)
	if err != nil {
		return Outcome{}, err
	}
	ranked, err := m.scorer.Score(req, candidates)
	if err != nil {
		return Outcome{}, err
	}

	now := m.now()
	run := model.OptimizationRun{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		Timestamp: now,
		Weights:   ranked.Weights.Map(),
		Scores:    ranked.Scores(),
		Excluded:  sortedKeys(excluded),
	}

	if ranked.Len() == 0 {
		m.appendAudit(ctx, audit.RunRecord(run))
		m.escalate(ctx, req, "no eligible candidate")
		return Outcome{RequestID: req.ID, Run: run, Escalated: true, Reason: "no eligible candidate"}, nil
	}

	top, _ := ranked.Top()
	if req.PreferredPartnerID != "" {
		if s, ok := ranked.ByPartner(req.PreferredPartnerID); ok {
			top = s
		}
	}
	run.SelectedPartnerID = top.PartnerID
	m.appendAudit(ctx, audit.RunRecord(run))

	var cand Candidate
	for _, c := range candidates {
		if c.Partner.ID == top.PartnerID {
			cand = c
			break
		}
	}

	if err := m.supersedeActive(ctx, req.ID); err != nil {
		return Outcome{}, err
	}

	a := model.Assignment{
		ID:               uuid.NewString(),
		RequestID:        req.ID,
		PartnerID:        top.PartnerID,
		Hours:            cand.NeededHours,
		HourlyRate:       cand.Partner.HourlyRate,
		Cost:             cand.NeededHours * cand.Partner.HourlyRate,
		Status:           model.AssignmentProposed,
		Score:            top.Composite,
		Rank:             top.Rank,
		ResponseDeadline: now.Add(m.cfg.ResponseWindow()),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.store.Create(ctx, a); err != nil {
		return Outcome{}, fmt.Errorf("assign: create assignment: %w", err)
	}
	m.appendAudit(ctx, audit.TransitionRecord(now, audit.Transition{
		AssignmentID: a.ID,
		RequestID:    a.RequestID,
		To:           model.AssignmentProposed,
		Reason:       "proposal created",
	}))

	if _, err := m.notifier.RequestNotification(ctx, a.PartnerID, a.ID, a.ResponseDeadline); err != nil {
		notifyFailure.Inc()
		monitoring.CaptureException(err, map[string]string{"assignment_id": a.ID, "partner_id": a.PartnerID})
		m.logger.Errorf("notification for assignment %s failed: %v", a.ID, err)
	} else {
		notifySuccess.Inc()
	}
	m.timers.Arm(a.ID, a.ResponseDeadline, func(id string) {
		if _, err := m.Expire(context.Background(), id); err != nil {
			m.logger.Errorf("deadline expiry for %s failed: %v", id, err)
		}
	})

	proposalsTotal.WithLabelValues(req.ServiceType.String()).Inc()
	transitionsTotal.WithLabelValues(string(model.AssignmentProposed)).Inc()
	m.proposed[req.ServiceType.String()]++
	m.setAcceptanceRate(req.ServiceType.String())
	if m.bus != nil {
		m.bus.Publish(events.ProposalEvent{
			RequestID:    a.RequestID,
			AssignmentID: a.ID,
			PartnerID:    a.PartnerID,
			Score:        a.Score,
			Deadline:     a.ResponseDeadline,
		})
	}
	if err := m.metrics.RecordProposal([]metrics.ProposalResult{{
		RequestID:   a.RequestID,
		PartnerID:   a.PartnerID,
		Assignment:  a.ID,
		ServiceType: req.ServiceType,
		Score:       a.Score,
		Rank:        a.Rank,
		Cost:        a.Cost,
		ProposedAt:  now,
	}}); err != nil {
		m.logger.Errorf("metrics error: %v", err)
	}
	m.logger.Infof("request %s proposed to partner %s (score %.3f, %d candidates)", req.ID, a.PartnerID, a.Score, ranked.Len())
	return Outcome{RequestID: req.ID, Assignment: &a, Run: run}, nil
}

// supersedeActive marks any prior non-terminal assignment for the request as
// superseded before a new proposal is created.
func (m *Manager) supersedeActive(ctx context.Context, requestID string) error {
	active, err := m.store.ActiveByRequest(ctx, requestID)
	if err != nil {
		return dataUnavailable(requestID, "list active assignments", err)
	}
	for _, a := range active {
		updated, err := m.store.Transition(ctx, a.ID, a.Status, model.AssignmentSuperseded, nil)
		if errors.Is(err, ErrStaleTransition) {
			continue
		}
		if err != nil {
			return err
		}
		m.timers.Cancel(a.ID)
		m.recordTransition(ctx, updated, a.Status, "superseded by new proposal")
	}
	return nil
}

func (m *Manager) escalate(ctx context.Context, req model.Request, reason string) {
	escalationsTotal.Inc()
	monitoring.CaptureMessage("request unfulfillable", map[string]string{
		"request_id":   req.ID,
		"service_type": req.ServiceType.String(),
	})
	if err := m.notifier.RequestEscalation(ctx, req.ID, reason); err != nil {
		m.logger.Errorf("escalation for request %s failed: %v", req.ID, err)
	}
	if m.updater != nil {
		if err := m.updater.SetRequestStatus(ctx, req.ID, model.RequestPending); err != nil {
			m.logger.Errorf("escalate: request %s status update failed: %v", req.ID, err)
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.EscalationEvent{RequestID: req.ID, Reason: reason})
	}
	if er, ok := m.metrics.(metrics.EscalationRecorder); ok {
		if err := er.RecordEscalation(metrics.EscalationEvent{RequestID: req.ID, Reason: reason, Time: m.now()}); err != nil {
			m.logger.Errorf("metrics error: %v", err)
		}
	}
	m.logger.Warnf("request %s unfulfillable: %s", req.ID, reason)
}

// staleOutcome reports a transition that found the assignment already
// settled. Logged and published, never an error.
func (m *Manager) staleOutcome(a model.Assignment, response bool) Outcome {
	m.logger.Infof("stale transition on assignment %s (already %s), ignoring", a.ID, a.Status)
	if response {
		m.publishStale(a)
	}
	return Outcome{RequestID: a.RequestID, Assignment: &a, Stale: true, Reason: "assignment already " + string(a.Status)}
}

func (m *Manager) publishStale(a model.Assignment) {
	if m.bus != nil {
		m.bus.Publish(events.ResponseEvent{AssignmentID: a.ID, PartnerID: a.PartnerID, Stale: true})
	}
}

func (m *Manager) publishResponse(a model.Assignment, accepted bool) {
	if m.bus != nil {
		m.bus.Publish(events.ResponseEvent{AssignmentID: a.ID, PartnerID: a.PartnerID, Accepted: accepted})
	}
}

func (m *Manager) recordTransition(ctx context.Context, a model.Assignment, from model.AssignmentStatus, reason string) {
	transitionsTotal.WithLabelValues(string(a.Status)).Inc()
	m.appendAudit(ctx, audit.TransitionRecord(m.now(), audit.Transition{
		AssignmentID: a.ID,
		RequestID:    a.RequestID,
		From:         from,
		To:           a.Status,
		Reason:       reason,
	}))
	if m.bus != nil {
		m.bus.Publish(events.TransitionEvent{
			AssignmentID: a.ID,
			RequestID:    a.RequestID,
			From:         from,
			To:           a.Status,
			Reason:       reason,
		})
	}
	if tr, ok := m.metrics.(metrics.TransitionRecorder); ok {
		if err := tr.RecordTransition(metrics.TransitionEvent{
			AssignmentID: a.ID,
			RequestID:    a.RequestID,
			From:         from,
			To:           a.Status,
			Reason:       reason,
			Time:         m.now(),
		}); err != nil {
			m.logger.Errorf("metrics error: %v", err)
		}
	}
}

func (m *Manager) appendAudit(ctx context.Context, rec audit.Record) {
	if err := m.auditStore.Append(ctx, rec); err != nil {
		monitoring.CaptureException(err, map[string]string{"request_id": rec.RequestID})
		m.logger.Errorf("audit append failed: %v", err)
	}
}

// exclude adds the partner to the request's exclusion set. Callers must hold
// m.mu.
func (m *Manager) exclude(requestID, partnerID string) {
	set, ok := m.excluded[requestID]
	if !ok {
		set = make(map[string]struct{})
		m.excluded[requestID] = set
	}
	set[partnerID] = struct{}{}
}

// setAcceptanceRate updates the gauge for the service type. Callers must
// hold m.mu when invoked from proposal paths.
func (m *Manager) setAcceptanceRate(serviceType string) {
	if p := m.proposed[serviceType]; p > 0 {
		acceptanceRate.WithLabelValues(serviceType).Set(float64(m.accepted[serviceType]) / float64(p))
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
