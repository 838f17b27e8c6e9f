package service

import (
	"context"
	"encoding/json"
)

// GroupGenesis describes a group to create with GenerateGroup.
type GroupGenesis struct {
	Timestamp uint64 `json:"timestamp"`
	// Sealers must be able to reach each other over P2P.
	Sealers           []string `json:"sealers"`
	EnableFreeStorage bool     `json:"enable_free_storage,omitempty"`
}

func (s *Service) GenerateGroup(ctx context.Context, genesis GroupGenesis) (json.RawMessage, error) {
	return s.fetch(ctx, "generateGroup", genesis)
}

func (s *Service) StartGroup(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "startGroup")
}

func (s *Service) StopGroup(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "stopGroup")
}

func (s *Service) RemoveGroup(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "removeGroup")
}

func (s *Service) RecoverGroup(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "recoverGroup")
}

func (s *Service) QueryGroupStatus(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "queryGroupStatus")
}
