package turn

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/audit"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/projection"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/session"
)

// AuditRepository records session lifecycle events. Audit failures are logged
// and never fail a turn.
type AuditRepository interface {
	Log(ctx context.Context, event *audit.Event) error
}

// Service processes detection turns against the session registry.
type Service struct {
	registry *session.Registry
	auditLog AuditRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new turn service.
func NewService(registry *session.Registry, auditLog AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		auditLog: auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one turn: validate the payload, merge detections into the
// session's person records, sanitize the raw text, append conversation
// memory, project the output views, and apply eviction bookkeeping.
//
// A malformed payload is recovered locally: the response carries
// status "error" with the raw input preserved, and no session state changes.
// A non-nil error is returned only for lock acquisition failures
// (session.ErrSessionBusy or context cancellation).
func (s *Service) Process(ctx context.Context, raw []byte, scope session.Scope) (*Response, error) {
	now := s.now()

	payload, err := ParsePayload(raw)
	if err != nil {
		s.logger.Warn("rejecting malformed detection payload", "error", err)
		return &Response{
			Status:        StatusError,
			SessionID:     payload.GetSessionID(),
			Persons:       map[string]*identity.Person{},
			TokenMap:      map[string]string{},
			PIIMapping:    map[string]string{},
			OriginalInput: string(raw),
			Timestamp:     now,
		}, nil
	}

	st, created := s.registry.GetOrCreate(payload.SessionID, scope)
	resp, err := s.processLocked(ctx, st, created, payload, now)
	if err != nil {
		return nil, err
	}

	// Eviction runs outside the per-session lock: it takes only the
	// registry-level lock, and lock-ordering stays one-way.
	for _, evictedID := range s.registry.EvictIfOverCapacity(st.ID) {
		s.audit(ctx, audit.EventSessionEvicted, nil, evictedID)
	}

	return resp, nil
}

func (s *Service) processLocked(ctx context.Context, st *session.State, created bool, payload *Payload, now time.Time) (*Response, error) {
	release, err := s.registry.Acquire(ctx, st)
	if err != nil {
		return nil, err
	}
	defer release()

	if created {
		s.audit(ctx, audit.EventSessionCreated, st)
		if payload.SessionID != "" {
			// The caller referenced a session we no longer hold; surface the
			// loss instead of silently adopting the stale id.
			s.logger.Info("unknown session id, created fresh session",
				"requested", payload.SessionID, "session_id", st.ID)
		}
	}

	s.mergeDetections(st, payload.Persons, now)

	sanitized := projection.Sanitize(payload.RawText, st.Persons)
	st.NextTurn()
	st.AppendTurn(session.Turn{Role: "user", Text: sanitized, Timestamp: now})

	chatResponse := ""
	if st.Scope == session.ScopeChat && payload.ChatResponse != "" {
		chatResponse = projection.Sanitize(payload.ChatResponse, st.Persons)
		st.AppendTurn(session.Turn{Role: "assistant", Text: chatResponse, Timestamp: now})
	}

	proj := projection.Project(st.Persons, sanitized, chatResponse)

	s.audit(ctx, audit.EventTurnProcessed, st)

	resp := &Response{
		Status:        StatusSuccess,
		SanitizedText: sanitized,
		SessionID:     st.ID,
		Persons:       proj.Persons,
		TokenMap:      proj.TokenMap,
		PIIMapping:    proj.PIIMapping,
		OriginalInput: payload.RawText,
		Timestamp:     now,
	}
	if st.Scope == session.ScopeChat {
		resp.ChatResponse = chatResponse
		resp.ConversationTurn = st.TurnCounter
		resp.ConversationLength = st.TotalMessages()
	}
	return resp, nil
}

// DeleteSession erases all person records and history for the id. Idempotent;
// unknown ids succeed. Supports right-to-erasure: after return, no projection
// can reconstruct any value for the session.
func (s *Service) DeleteSession(ctx context.Context, id string) {
	if s.registry.Delete(id) {
		s.audit(ctx, audit.EventSessionErased, nil, id)
	}
}

// mergeDetections resolves each detection to a person record and folds it in.
// Ambiguous resolutions create a new person: a false split is recoverable, a
// false merge corrupts another person's record irreversibly.
func (s *Service) mergeDetections(st *session.State, detections []identity.Detection, now time.Time) {
	touched := make(map[int]struct{})
	resolved := make(map[string]int, len(detections))

	for _, det := range detections {
		id, found, ambiguous := identity.Resolve(st.Persons, det.MatchedName)
		if !found {
			if ambiguous {
				s.logger.Warn("ambiguous person resolution, creating new person",
					"session_id", st.ID, "candidates", len(st.Persons))
			}
			id = st.NextPersonID()
		}
		st.Persons[id] = identity.Merge(st.Persons[id], id, det, now)
		touched[id] = struct{}{}
		resolved[det.MatchedName] = id
	}

	// Relationships resolve after all persons of the turn exist, so forward
	// references within one payload land correctly.
	for _, det := range detections {
		selfID, ok := resolved[det.MatchedName]
		if !ok {
			continue
		}
		for _, rel := range det.Relationships {
			otherID, found, ambiguous := identity.Resolve(st.Persons, rel.Name)
			if ambiguous {
				continue
			}
			if !found {
				otherID = st.NextPersonID()
				st.Persons[otherID] = identity.Merge(nil, otherID, identity.Detection{
					MatchedName: rel.Name,
					Confidence:  det.Confidence,
				}, now)
			}
			// Being named as a relationship target is a reference too.
			touched[otherID] = struct{}{}
			// All relationship kinds are symmetric: mirror on both records.
			st.Persons[selfID].AddRelationship(rel.Kind, otherID)
			st.Persons[otherID].AddRelationship(rel.Kind, selfID)
		}
	}

	// Once per turn per person, however many detections referenced it.
	for id := range touched {
		st.Persons[id].TouchTurn()
		st.Persons[id].Metadata.LastSeen = now
	}
}

func (s *Service) audit(ctx context.Context, eventType audit.EventType, st *session.State, sessionID ...string) {
	if s.auditLog == nil {
		return
	}
	event := &audit.Event{Type: eventType}
	if st != nil {
		event.SessionID = st.ID
		event.Persons = len(st.Persons)
		event.Turns = st.TurnCounter
	} else if len(sessionID) > 0 {
		event.SessionID = sessionID[0]
	}
	if err := s.auditLog.Log(ctx, event); err != nil {
		s.logger.Error("failed to write audit event", "type", eventType, "error", err)
	}
}
