package service

import (
	"sync"

	"pdf-toolkit/internal/domain"
)

// ArtifactStore is the single download slot.
type ArtifactStore struct {
	mu       sync.RWMutex
	artifact *domain.Artifact
}

func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{}
}

// Store replaces the retained artifact.
func (s *ArtifactStore) Store(a *domain.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = a
}

// Retrieve returns the retained artifact or domain.ErrNoArtifact.
func (s *ArtifactStore) Retrieve() (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return nil, domain.ErrNoArtifact
	}
	return s.artifact, nil
}

func (s *ArtifactStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = nil
}
