package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hivekeep/internal/apiary"
)

// AuditPrefix starts the notes of every configuration audit inspection.
const AuditPrefix = "Configuration Changed. "

// Store is the subset of the hive configuration store a session needs.
type Store interface {
	GetFullConfiguration(ctx context.Context, hiveID string) (apiary.HiveConfiguration, error)
	GetFrame(ctx context.Context, id string) (apiary.Frame, error)
	AddBox(ctx context.Context, hiveID string, size apiary.BoxSize, capacity int) (apiary.Box, error)
	RemoveTopBox(ctx context.Context, hiveID string) (string, error)
	AddFrame(ctx context.Context, boxID, hiveID string, position int, content apiary.FrameContent) (apiary.Frame, error)
	UpdateFrameContent(ctx context.Context, frameID string, content apiary.FrameContent) error
	DeleteFrame(ctx context.Context, frameID string) error
	AddInspection(ctx context.Context, insp apiary.Inspection) (apiary.Inspection, error)
}

// Session edits the configuration of one hive.
//
// Not safe for concurrent use.
type Session struct {
	store  Store
	hiveID string
	logger *slog.Logger
	edits  int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession opens an editing session on hiveID. Returns NotFound if the
// hive does not exist.
func NewSession(ctx context.Context, st Store, hiveID string, opts ...Option) (*Session, error) {
	if _, err := st.GetFullConfiguration(ctx, hiveID); err != nil {
		return nil, err
	}
	s := &Session{
		store:  st,
		hiveID: hiveID,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HiveID returns the hive being edited.
func (s *Session) HiveID() string { return s.hiveID }

// Edits returns the number of structural changes written so far.
func (s *Session) Edits() int { return s.edits }

// Configuration returns the hive's current configuration.
func (s *Session) Configuration(ctx context.Context) (apiary.HiveConfiguration, error) {
	return s.store.GetFullConfiguration(ctx, s.hiveID)
}

// AddBox puts an empty box on top of the stack.
func (s *Session) AddBox(ctx context.Context, size apiary.BoxSize, capacity int) (apiary.Box, error) {
	b, err := s.store.AddBox(ctx, s.hiveID, size, capacity)
	if err != nil {
		return apiary.Box{}, err
	}
	s.edits++
	return b, nil
}

// RemoveTopBox takes the top box and its frames off the stack. Returns ""
// when there is nothing to remove.
func (s *Session) RemoveTopBox(ctx context.Context) (string, error) {
	id, err := s.store.RemoveTopBox(ctx, s.hiveID)
	if err != nil {
		return "", err
	}
	if id != "" {
		s.edits++
	}
	return id, nil
}

// Click applies tool to target within box boxID.
func (s *Session) Click(ctx context.Context, boxID string, target Target, tool Tool) (Action, error) {
	content, paints := tool.Content()
	if paints && !content.Valid() {
		return ActionNone, apiary.Invalid("tool", string(tool), "expected a frame content or delete-frame")
	}

	if target.IsSlot() {
		if !paints {
			return ActionNone, nil
		}
		if _, err := s.store.AddFrame(ctx, boxID, s.hiveID, target.Slot, content); err != nil {
			return ActionNone, err
		}
		s.edits++
		return ActionAdded, nil
	}

	frame, err := s.store.GetFrame(ctx, target.FrameID)
	if err != nil {
		return ActionNone, err
	}
	if frame.BoxID != boxID || frame.HiveID != s.hiveID {
		return ActionNone, apiary.Invalid("frame", frame.ID, fmt.Sprintf("not in box %s of hive %s", boxID, s.hiveID))
	}

	if !paints {
		if err := s.store.DeleteFrame(ctx, frame.ID); err != nil {
			return ActionNone, err
		}
		s.edits++
		return ActionDeleted, nil
	}
	if err := s.store.UpdateFrameContent(ctx, frame.ID, content); err != nil {
		return ActionNone, err
	}
	s.edits++
	return ActionUpdated, nil
}

// Save records one config_change inspection for the session. It is
// written whether or not any edit was made.
func (s *Session) Save(ctx context.Context, notes string) (apiary.Inspection, error) {
	insp, err := s.store.AddInspection(ctx, AuditInspection(s.hiveID, notes))
	if err != nil {
		return apiary.Inspection{}, fmt.Errorf("save configuration: %w", err)
	}
	s.logger.Info("configuration saved", "hive_id", s.hiveID, "edits", s.edits, "inspection_id", insp.ID)
	s.edits = 0
	return insp, nil
}

// AuditInspection builds the config_change inspection for hiveID. The date
// is left zero so the store stamps it.
func AuditInspection(hiveID, notes string) apiary.Inspection {
	return apiary.Inspection{
		HiveID:        hiveID,
		Kind:          apiary.KindConfigChange,
		QueenSeen:     false,
		FramesOfBrood: 0,
		HoneyStores:   apiary.StoresMedium,
		Temperament:   3,
		Notes:         AuditPrefix + notes,
	}
}
