// Package http exposes the presigned URL issuer over HTTP.
//
// # Endpoints
//
//	POST /presign-put  {"key": "...", "content_type": "video/mp4"}
//	    -> {"key": "...", "put_url": "...", "get_url": "...", "expires_in": 600}
//	POST /presign-get  {"key": "..."}
//	    -> {"url": "...", "expires_in": 600}
//	GET  /healthz      -> {"status": "ok"}
//	GET  /metrics      prometheus exposition, when Metrics is configured
//
// content_type is optional; the issuer's default is bound to the PUT URL
// when it is omitted, and the uploader must send exactly that header.
//
// # Errors
//
// All errors are JSON {"error": code, "message": text}:
//
//   - 400 invalid_request: malformed body or failed validation
//   - 400 invalid_key: key rejected by the issuer's key policy
//   - 500 presign_error: signing failed
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    CORS:    http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	    Metrics: metrics.New(),
//	}, issuer)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// AuthMiddleware, WriteError and WriteJSON are shared with the development
// store in package devstore.
package http
