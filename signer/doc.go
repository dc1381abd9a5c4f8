// Package signer builds the presignd.Signer for a deployment.
//
// Two backends are available, both producing AWS Signature V4 query-string
// URLs with UNSIGNED-PAYLOAD:
//
//   - awsv4: aws-sdk-go-v2 S3 presign client (default)
//   - minio: minio-go PresignHeader
//
// Neither backend performs a network call; the region is pinned so no bucket
// location lookup is needed.
//
// # Usage
//
//	s, err := signer.New(ctx, signer.Config{
//	    Type:         signer.TypeAWSV4,
//	    Bucket:       presignd.Bucket{AccountID: "abc123", Name: "videos"},
//	    Credential:   presignd.Credential{AccessKeyID: "...", SecretKey: "..."},
//	    Region:       "auto",
//	    UsePathStyle: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	issuer, err := presignd.NewIssuer(s)
package signer
