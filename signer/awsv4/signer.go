// Package awsv4 signs presigned URLs with the aws-sdk-go-v2 S3 presign client.
package awsv4

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagarc03/presignd"
)

// Config options for the aws-sdk-go-v2 signer.
type Config struct {
	Endpoint     string // Base URL of the S3-compatible provider
	Bucket       string // Target bucket
	Region       string // Signing region ("auto" for R2)
	Credential   presignd.Credential
	UsePathStyle bool // https://host/bucket/key instead of https://bucket.host/key
}

// Signer implements presignd.Signer on top of s3.PresignClient.
type Signer struct {
	presign *s3.PresignClient
	v4      *v4.Signer
	bucket  string
}

// New creates a Signer. It loads no shared credentials and makes no network calls.
func New(ctx context.Context, cfg Config) (*Signer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Credential.AccessKeyID,
			cfg.Credential.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.UsePathStyle
		// Keeps checksum parameters out of presigned PUT URLs.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &Signer{
		presign: s3.NewPresignClient(client),
		v4: v4.NewSigner(func(o *v4.SignerOptions) {
			o.DisableURIPathEscaping = true
		}),
		bucket: cfg.Bucket,
	}, nil
}

// Presign returns a URL authorizing exactly req.Method on req.Key. For PUT
// the Content-Type header is part of the signature.
func (s *Signer) Presign(ctx context.Context, req presignd.SigningRequest) (presignd.PresignedURL, error) {
	pinned := pinnedPresigner{signer: s.v4, at: req.SignTime}
	if req.Method == http.MethodPut {
		pinned.contentType = req.ContentType
	}
	opts := []func(*s3.PresignOptions){
		s3.WithPresignExpires(req.Expires),
		func(o *s3.PresignOptions) { o.Presigner = pinned },
	}

	var (
		out *v4.PresignedHTTPRequest
		err error
	)

	switch req.Method {
	case http.MethodPut:
		out, err = s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(req.Key),
			ContentType: aws.String(req.ContentType),
		}, opts...)
	case http.MethodGet:
		out, err = s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(req.Key),
		}, opts...)
	default:
		return presignd.PresignedURL{}, fmt.Errorf("unsupported method %q: %w", req.Method, presignd.ErrInvalidInput)
	}
	if err != nil {
		return presignd.PresignedURL{}, err
	}

	signedAt, err := presignd.ParseSignedAt(out.URL)
	if err != nil {
		return presignd.PresignedURL{}, err
	}

	return presignd.PresignedURL{
		URL:       out.URL,
		Method:    out.Method,
		ExpiresIn: req.Expires,
		SignedAt:  signedAt,
	}, nil
}

// pinnedPresigner fixes the signing time when at is set and puts
// contentType on the request so it is part of the signed headers. The SDK
// leaves PutObjectInput.ContentType out of the presigned signature.
type pinnedPresigner struct {
	signer      *v4.Signer
	at          time.Time
	contentType string
}

func (p pinnedPresigner) PresignHTTP(
	ctx context.Context,
	credentials aws.Credentials,
	r *http.Request,
	payloadHash string,
	service string,
	region string,
	signingTime time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	if !p.at.IsZero() {
		signingTime = p.at
	}
	if p.contentType != "" {
		r.Header.Set("Content-Type", p.contentType)
	}
	return p.signer.PresignHTTP(ctx, credentials, r, payloadHash, service, region, signingTime, optFns...)
}
