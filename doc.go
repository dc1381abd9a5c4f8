// Package presignd issues short-lived presigned URLs for an S3-compatible
// bucket, primarily Cloudflare R2.
//
// A caller asks for a key and gets back a PUT URL bound to one Content-Type
// and a GET URL for the same key. Both are signed with AWS Signature V4 in
// query-string form, carry the same signing time and expire together. The
// storage provider enforces them; presignd itself keeps no state about what
// it issued.
//
// # Key Components
//
//   - Issuer: validates keys, applies the TTL and default content type, and
//     delegates to a Signer
//   - Signer: a signing backend (see package signer for aws-sdk-go-v2 and
//     minio-go implementations)
//   - SignatureVerifier: checks presigned requests the way the provider does;
//     used by the development store and in tests
//
// # Example Usage
//
//	s, err := signer.New(ctx, signer.Config{
//	    Bucket:     presignd.Bucket{AccountID: accountID, Name: "videos"},
//	    Credential: presignd.Credential{AccessKeyID: id, SecretKey: secret},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	issuer, err := presignd.NewIssuer(s, presignd.WithTTL(10*time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt, err := issuer.IssuePutAndGet(ctx, "uploads/clip.mp4", "")
//	// upload with: PUT rt.PutURL, header Content-Type: rt.ContentType
package presignd
