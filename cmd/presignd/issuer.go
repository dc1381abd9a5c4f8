package main

import (
	"context"
	"fmt"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/config"
	"github.com/sagarc03/presignd/signer"
)

// newIssuer wires the configured signing backend into an Issuer.
func newIssuer(ctx context.Context, cfg *config.Config, observer presignd.Observer) (*presignd.Issuer, error) {
	s, err := signer.New(ctx, cfg.Storage.SignerConfig())
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	opts := []presignd.IssuerOption{
		presignd.WithTTL(cfg.Presign.TTLDuration()),
		presignd.WithDefaultContentType(cfg.Presign.DefaultContentType),
	}
	if observer != nil {
		opts = append(opts, presignd.WithObserver(observer))
	}

	issuer, err := presignd.NewIssuer(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("create issuer: %w", err)
	}
	return issuer, nil
}
