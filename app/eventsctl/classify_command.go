package main

import (
	"os"

	"github.com/spf13/cobra"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
	"eventsPipeline/internal/urlclassifier"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:         "classify <url>...",
		Short:       "Classify media URLs without fetching them",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ctx.format()
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = config.StorageConfig{
					Bucket:        os.Getenv("STORAGE_BUCKET"),
					PublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
				}.Namespace()
			}
			c := urlclassifier.New(namespace)

			results := make([]dto.ClassifyResponse, len(args))
			rows := make([][]string, len(args))
			for i, raw := range args {
				results[i] = dto.MapClassification(c, raw)
				rows[i] = []string{raw, results[i].Kind, yesNo(results[i].Owned), yesNo(results[i].Eligible), results[i].Reason}
			}
			return writeOutput(cmd, format, results, func() string {
				return renderTable([]string{"URL", "Kind", "Owned", "Eligible", "Reason"}, rows, nil)
			})
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "Owned storage URL prefix (defaults to STORAGE_PUBLIC_BASE_URL/STORAGE_BUCKET)")
	return cmd
}
