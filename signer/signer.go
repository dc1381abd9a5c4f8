package signer

import (
	"context"
	"fmt"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/signer/awsv4"
	"github.com/sagarc03/presignd/signer/minio"
)

const (
	TypeAWSV4 = "awsv4"
	TypeMinIO = "minio"
)

// Config holds the configuration for constructing a signing backend.
type Config struct {
	// Type specifies the backend: "awsv4" (default) or "minio"
	Type       string
	Bucket     presignd.Bucket
	Credential presignd.Credential
	// Region is the signing region; "auto" for R2
	Region       string
	UsePathStyle bool
}

// New validates the credential and bucket identity and returns a ready
// Signer. It never contacts the storage provider.
func New(ctx context.Context, cfg Config) (presignd.Signer, error) {
	if err := cfg.Credential.Validate(); err != nil {
		return nil, fmt.Errorf("new signer: %w", err)
	}
	if err := cfg.Bucket.Validate(); err != nil {
		return nil, fmt.Errorf("new signer: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = presignd.SigningRegion
	}

	switch cfg.Type {
	case "", TypeAWSV4:
		s, err := awsv4.New(ctx, awsv4.Config{
			Endpoint:     cfg.Bucket.EndpointURL(),
			Bucket:       cfg.Bucket.Name,
			Region:       region,
			Credential:   cfg.Credential,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("new awsv4 signer: %w", err)
		}
		return s, nil
	case TypeMinIO:
		s, err := minio.New(minio.Config{
			Endpoint:     cfg.Bucket.EndpointURL(),
			Bucket:       cfg.Bucket.Name,
			Region:       region,
			Credential:   cfg.Credential,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("new minio signer: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported signer type: %s: %w", cfg.Type, presignd.ErrConfig)
	}
}
