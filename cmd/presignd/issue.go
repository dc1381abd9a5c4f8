package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/presignd/client"
	"github.com/sagarc03/presignd/config"
)

var issueCmd = &cobra.Command{
	Use:   "issue <key>",
	Short: "Issue presigned URLs without running the server",
	Long: `Sign a PUT and GET URL pair for key using the configured credential and
print them as JSON. With --get-only, only a GET URL is issued.

The uploader must send exactly the Content-Type the PUT URL was issued for.`,
	Example: `  presignd issue uploads/clip.mp4
  presignd issue uploads/clip.webm --content-type video/webm
  presignd issue uploads/clip.mp4 --get-only`,
	Args: cobra.ExactArgs(1),
	RunE: runIssue,
}

func init() {
	issueCmd.Flags().String("content-type", "", "Content-Type bound to the PUT URL (default: presign.default_content_type)")
	issueCmd.Flags().Bool("get-only", false, "issue only a GET URL")
	issueCmd.Flags().Bool("text", false, "print human-readable text instead of JSON")
	issueCmd.Flags().Int("ttl", 600, "URL validity in seconds (env: PRESIGND_PRESIGN_TTL)")

	rootCmd.AddCommand(issueCmd)
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	contentType, _ := cmd.Flags().GetString("content-type")
	getOnly, _ := cmd.Flags().GetBool("get-only")
	text, _ := cmd.Flags().GetBool("text")

	issuer, err := newIssuer(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}

	key := args[0]
	var result client.IssueResult

	if getOnly {
		u, issueErr := issuer.IssueGet(cmd.Context(), key)
		if issueErr != nil {
			return fmt.Errorf("issue: %w", issueErr)
		}
		result = client.IssueResult{
			Key:       key,
			GetURL:    u.URL,
			ExpiresIn: int(u.ExpiresIn.Seconds()),
		}
	} else {
		rt, issueErr := issuer.IssuePutAndGet(cmd.Context(), key, contentType)
		if issueErr != nil {
			return fmt.Errorf("issue: %w", issueErr)
		}
		result = client.IssueResult{
			Key:         rt.Key,
			ContentType: rt.ContentType,
			PutURL:      rt.PutURL,
			GetURL:      rt.GetURL,
			ExpiresIn:   int(rt.ExpiresIn.Seconds()),
		}
	}

	return client.NewFormatter(!text, false).FormatIssue(cmd.OutOrStdout(), result)
}
