package engine

import (
	"context"
	"encoding/json"

	"lifequest/internal/storage"
)

type RegisterSourceInput struct {
	Name         string
	SourceType   string
	AuthType     string
	Config       map[string]string
	MappingRules MappingRules
	SyncSchedule string
}

// RegisterSource records an external integration a user connected. The
// upstream credentials live in Config opaquely; this engine never dials out.
func (s *Service) RegisterSource(ctx context.Context, userID string, in RegisterSourceInput) (*storage.ExternalTaskSource, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, ValidationError{Field: "name", Reason: "is required"}
	}
	if in.SourceType == "" {
		return nil, ValidationError{Field: "type", Reason: "is required"}
	}
	rulesJSON, err := encodeMappingRules(in.MappingRules)
	if err != nil {
		return nil, err
	}

	src := storage.ExternalTaskSource{
		ID:           newID(),
		UserID:       userID,
		Name:         in.Name,
		SourceType:   in.SourceType,
		AuthType:     in.AuthType,
		Config:       in.Config,
		MappingRules: rulesJSON,
		SyncSchedule: in.SyncSchedule,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.sources.Insert(ctx, src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Service) UpdateSource(ctx context.Context, userID string, sourceID string, in RegisterSourceInput) (*storage.ExternalTaskSource, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	sourceID, err = parseID("sourceId", sourceID)
	if err != nil {
		return nil, err
	}

	src, err := s.ownedSource(ctx, userID, sourceID)
	if err != nil {
		return nil, err
	}
	rulesJSON, err := encodeMappingRules(in.MappingRules)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		src.Name = in.Name
	}
	if in.SourceType != "" {
		src.SourceType = in.SourceType
	}
	if in.AuthType != "" {
		src.AuthType = in.AuthType
	}
	if in.Config != nil {
		src.Config = in.Config
	}
	src.MappingRules = rulesJSON
	if in.SyncSchedule != "" {
		src.SyncSchedule = in.SyncSchedule
	}
	if err := s.sources.Update(ctx, *src); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *Service) SetSourceActive(ctx context.Context, userID string, sourceID string, active bool) error {
	userID, err := parseID("userId", userID)
	if err != nil {
		return err
	}
	sourceID, err = parseID("sourceId", sourceID)
	if err != nil {
		return err
	}
	src, err := s.ownedSource(ctx, userID, sourceID)
	if err != nil {
		return err
	}
	src.IsActive = active
	return s.sources.Update(ctx, *src)
}

func (s *Service) ListSources(ctx context.Context, userID string) ([]storage.ExternalTaskSource, error) {
	userID, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}
	return s.sources.ListByUser(ctx, userID)
}

func (s *Service) ownedSource(ctx context.Context, userID string, sourceID string) (*storage.ExternalTaskSource, error) {
	src, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src == nil || src.UserID != userID {
		return nil, NotFoundError{Kind: "external source", ID: sourceID}
	}
	return src, nil
}

func encodeMappingRules(rules MappingRules) (string, error) {
	if rules.TitleField == "" {
		return "", ValidationError{Field: "mappingRules.titleField", Reason: "is required"}
	}
	if rules.ExternalIDField == "" {
		rules.ExternalIDField = "id"
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
