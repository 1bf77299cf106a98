package storage

import "planscape/models"

// ArtifactWriter is the interface any JSON artifact sink must satisfy.
type ArtifactWriter interface {
	Write(path string, v any) error
	ResetDir(path string) error
}

// BenefitMirror is an optional secondary sink for extraction results.
type BenefitMirror interface {
	Write(year int, runID string, records []*models.BenefitRecord) error
	Close() error
}
