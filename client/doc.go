// Package client calls a presignd server and the URLs it issues.
//
// # Usage
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	urls, err := c.PresignPut(ctx, "uploads/clip.mp4", "video/mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, _ := os.Open("clip.mp4")
//	_, err = c.Upload(ctx, urls.PutURL, "video/mp4", f)
//
// Errors from the server are returned as *APIError carrying the JSON error
// code and message; use errors.Is with ErrBadRequest, ErrForbidden or
// ErrNotFound to classify them.
package client
