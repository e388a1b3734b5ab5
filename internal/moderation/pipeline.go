// Package moderation orchestrates the processing of one report: lock
// acquisition, target resolution, cache/quota-gated classification,
// verdict enforcement and repeat-offender escalation.
package moderation

import (
	"context"
	"fmt"
	"log"

	"beatflow/backend/internal/config"
	"beatflow/backend/internal/models"
	"beatflow/backend/internal/storage"
)

// ReportLocker guards single-flight processing of one report.
type ReportLocker interface {
	Acquire(ctx context.Context, reportID string) (bool, error)
	Release(ctx context.Context, reportID string) error
}

// VerdictCache serves and persists classifier verdicts by text hash.
type VerdictCache interface {
	Lookup(ctx context.Context, text string, contentType models.ContentType, contentID string) *models.Verdict
	Store(ctx context.Context, text string, contentType models.ContentType, contentID string, verdict models.Verdict)
}

// QuotaGuard admits or denies external classification calls.
type QuotaGuard interface {
	Allow(ctx context.Context) bool
	RecordSuccess(ctx context.Context) int64
}

// Classifier evaluates one text blob. It never fails; unresolved
// outcomes come back as pending verdicts.
type Classifier interface {
	Classify(ctx context.Context, text string) models.Verdict
}

// Suspender is the external account-suspension collaborator.
type Suspender interface {
	Suspend(ctx context.Context, authorID string) error
}

// Notifier receives operator alerts. Optional.
type Notifier interface {
	NotifySuspension(authorID string, acceptedCount int)
}

// Service is the moderation pipeline.
type Service struct {
	Storage    storage.Storage
	Locks      ReportLocker
	Cache      VerdictCache
	Quota      QuotaGuard
	Classifier Classifier
	Suspender  Suspender
	Notifier   Notifier

	SuspendThreshold int
}

// NewService wires the pipeline with the default escalation threshold.
func NewService(s storage.Storage, locks ReportLocker, cache VerdictCache, quota QuotaGuard, cls Classifier, susp Suspender) *Service {
	return &Service{
		Storage:          s,
		Locks:            locks,
		Cache:            cache,
		Quota:            quota,
		Classifier:       cls,
		Suspender:        susp,
		SuspendThreshold: config.SuspendThreshold,
	}
}

// ProcessReport drives one report through the moderation state machine.
// It is safe to invoke concurrently from the immediate path and the
// periodic sweep: the processing lock admits exactly one invocation, the
// rest exit as no-ops. A report that cannot be resolved now (quota, API
// trouble) is left in Checking for a later sweep; the whole body is
// idempotent under such re-entry.
func (s *Service) ProcessReport(ctx context.Context, reportID string) error {
	acquired, err := s.Locks.Acquire(ctx, reportID)
	if err != nil {
		log.Printf("WARNING: moderation: lock acquire failed for report %s: %v", reportID, err)
		return nil
	}
	if !acquired {
		// Another worker is handling this report.
		return nil
	}
	defer func() {
		if err := s.Locks.Release(ctx, reportID); err != nil {
			log.Printf("WARNING: moderation: lock release failed for report %s: %v", reportID, err)
		}
	}()

	report, err := s.Storage.GetReportByID(reportID)
	if err != nil {
		return fmt.Errorf("moderation: load report %s: %w", reportID, err)
	}
	if report == nil || report.State != models.ReportChecking {
		// Already resolved or vanished.
		return nil
	}

	contentType, contentID, ok := report.Target()
	if !ok {
		log.Printf("ERROR: moderation: report %s has no target reference", reportID)
		return nil
	}

	text, exists, err := s.Storage.FindContentText(contentType, contentID)
	if err != nil {
		return fmt.Errorf("moderation: resolve %s %s: %w", contentType, contentID, err)
	}
	if !exists || text == "" {
		// A deleted target cannot be re-evaluated; close the report in
		// the reporter's favor.
		return s.resolve(report, models.ReportAccepted)
	}

	verdict := s.classify(ctx, text, contentType, contentID)

	if verdict.Pending() {
		log.Printf("INFO: moderation: report %s deferred (%s), staying in Checking", reportID, verdict.Reason)
		return nil
	}

	if verdict.Label == models.VerdictSafe {
		return s.resolve(report, models.ReportRejected)
	}

	return s.enforce(ctx, report, contentType, contentID, verdict)
}

// classify serves the verdict from cache when possible; otherwise it
// passes the quota gate and calls the external classifier. A cache hit
// never consumes quota.
func (s *Service) classify(ctx context.Context, text string, contentType models.ContentType, contentID string) models.Verdict {
	if cached := s.Cache.Lookup(ctx, text, contentType, contentID); cached != nil {
		return *cached
	}

	if !s.Quota.Allow(ctx) {
		return models.PendingVerdict(models.ReasonRateLimited)
	}

	verdict := s.Classifier.Classify(ctx, text)
	if !verdict.Pending() {
		s.Quota.RecordSuccess(ctx)
		s.Cache.Store(ctx, text, contentType, contentID, verdict)
	}
	return verdict
}

// enforce removes abusive content, accepts the report and escalates the
// author when their accepted-report count crosses the threshold. Content
// removal is authoritative; a failing suspension call is logged and never
// rolls the outcome back.
func (s *Service) enforce(ctx context.Context, report *models.ModerationReport, contentType models.ContentType, contentID string, verdict models.Verdict) error {
	// The target may have been deleted while we were classifying.
	_, exists, err := s.Storage.FindContentText(contentType, contentID)
	if err != nil {
		return fmt.Errorf("moderation: re-check %s %s: %w", contentType, contentID, err)
	}
	if exists {
		if err := s.Storage.DeleteContent(contentType, contentID); err != nil {
			return fmt.Errorf("moderation: delete %s %s: %w", contentType, contentID, err)
		}
		log.Printf("INFO: moderation: removed %s %s (verdict %s, confidence %.2f)", contentType, contentID, verdict.Label, verdict.Confidence)
	}

	if err := s.resolve(report, models.ReportAccepted); err != nil {
		return err
	}

	count, err := s.Storage.CountAcceptedReportsByAuthor(report.AuthorID)
	if err != nil {
		log.Printf("WARNING: moderation: accepted-report count failed for author %s: %v", report.AuthorID, err)
		return nil
	}
	if count == int64(s.SuspendThreshold) {
		if err := s.Suspender.Suspend(ctx, report.AuthorID); err != nil {
			log.Printf("ERROR: moderation: suspension call failed for author %s: %v", report.AuthorID, err)
			return nil
		}
		log.Printf("INFO: moderation: author %s suspended after %d accepted reports", report.AuthorID, count)
		if s.Notifier != nil {
			s.Notifier.NotifySuspension(report.AuthorID, int(count))
		}
	}
	return nil
}

func (s *Service) resolve(report *models.ModerationReport, state models.ReportState) error {
	if err := s.Storage.UpdateReportState(report.ID, state); err != nil {
		return fmt.Errorf("moderation: transition report %s to %s: %w", report.ID, state, err)
	}
	report.State = state
	log.Printf("INFO: moderation: report %s resolved as %s", report.ID, state)
	return nil
}
