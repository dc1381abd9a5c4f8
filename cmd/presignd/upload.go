package main

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/presignd/client"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file through a running presignd server and verify it",
	Long: `Ask a presignd server for a URL pair, PUT the file to the storage provider,
then GET it back and compare the bytes.

The key defaults to the file path with leading "./", "/" and "../" removed.
The content type defaults to one detected from the file extension.`,
	Example: `  presignd upload clip.mp4 --server http://localhost:8080
  presignd upload ./out/clip.webm --key uploads/clip.webm --json`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runUpload,
}

func init() {
	uploadCmd.Flags().String("server", "http://localhost:8080", "presignd server URL")
	uploadCmd.Flags().String("key", "", "object key (default: derived from the file path)")
	uploadCmd.Flags().String("content-type", "", "Content-Type (default: detected from extension)")
	uploadCmd.Flags().Bool("no-verify", false, "skip downloading and comparing the object")
	uploadCmd.Flags().Bool("json", false, "output as JSON")
	uploadCmd.Flags().BoolP("quiet", "q", false, "print only the GET URL")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	key, _ := cmd.Flags().GetString("key")
	contentType, _ := cmd.Flags().GetString("content-type")
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	formatter := client.NewFormatter(jsonOutput, quiet)

	result, err := uploadAndVerify(cmd, server, args[0], key, contentType, !noVerify)
	if err != nil {
		_ = formatter.FormatError(cmd.ErrOrStderr(), err)
		return err
	}

	return formatter.FormatRoundTrip(cmd.OutOrStdout(), result)
}

func uploadAndVerify(cmd *cobra.Command, server, localPath, key, contentType string, verify bool) (*client.RoundTripResult, error) {
	ctx := cmd.Context()

	c, err := client.New(server)
	if err != nil {
		return nil, err
	}

	result, err := c.UploadFile(ctx, localPath, key, contentType)
	if err != nil {
		return nil, err
	}

	if !verify {
		return result, nil
	}

	_, body, err := c.Download(ctx, result.GetURL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer func() { _ = body.Close() }()

	remote := sha256.New()
	if _, err := io.Copy(remote, body); err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}

	f, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	local := sha256.New()
	if _, err := io.Copy(local, f); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if !bytes.Equal(local.Sum(nil), remote.Sum(nil)) {
		return nil, fmt.Errorf("verify %s: downloaded bytes differ from %s", result.Key, localPath)
	}

	result.Verified = true
	return result, nil
}
