package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hive-corporation/fusion/internal/adapter/handler"
)

const defaultTimeout = 60 * time.Second

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create a session and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetType, _ := cmd.Flags().GetString("target-type")
			target, _ := cmd.Flags().GetString("target")
			priority, _ := cmd.Flags().GetString("priority")

			req := map[string]interface{}{"title": args[0]}
			setIfNotEmpty(req, "targetType", targetType)
			setIfNotEmpty(req, "target", target)
			setIfNotEmpty(req, "priority", priority)

			resp, err := call(cmd, "CreateSession", req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp["sessionId"])
			return nil
		},
	}
	cmd.Flags().String("target-type", "", "person, organization, domain, ip, incident, investigation, threat or other")
	cmd.Flags().String("target", "", "investigation target")
	cmd.Flags().String("priority", "", "low, medium, high or critical")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import SESSION_ID FILE...",
		Short: "Import tool output files into a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			source, _ := cmd.Flags().GetString("source")
			label, _ := cmd.Flags().GetString("label")

			items := make([]interface{}, 0, len(args)-1)
			for _, path := range args[1:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				itemFormat := format
				if itemFormat == "" {
					itemFormat = formatFromExtension(path)
				}
				items = append(items, map[string]interface{}{
					"name":   filepath.Base(path),
					"format": itemFormat,
					"source": source,
					"label":  label,
					"data":   string(data),
				})
			}

			resp, err := call(cmd, "Import", map[string]interface{}{
				"sessionId": args[0],
				"items":     items,
			})
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().String("format", "", "structured-record, delimited-table, markup-tree or line-list (default: from file extension)")
	cmd.Flags().String("source", "generic", "network-scan, breach, registration, link-analysis, recon, line-list or generic")
	cmd.Flags().String("label", "", "label attached to every imported data point")
	return cmd
}

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk SESSION_ID KIND [FILE]",
		Short: "Add one data point per line (reads stdin when FILE is omitted)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 3 {
				data, err = os.ReadFile(args[2])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			auto, _ := cmd.Flags().GetBool("auto-confidence")
			confidence, _ := cmd.Flags().GetInt("confidence")
			tags, _ := cmd.Flags().GetStringSlice("tag")

			req := map[string]interface{}{
				"sessionId":      args[0],
				"kind":           args[1],
				"data":           string(data),
				"autoConfidence": auto,
			}
			if cmd.Flags().Changed("confidence") {
				req["defaultConfidence"] = confidence
			}
			if len(tags) > 0 {
				list := make([]interface{}, len(tags))
				for i, t := range tags {
					list[i] = t
				}
				req["tags"] = list
			}

			resp, err := call(cmd, "ImportBulk", req)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Bool("auto-confidence", false, "score each line by how well it matches KIND")
	cmd.Flags().Int("confidence", 0, "confidence for every line (0-100)")
	cmd.Flags().StringSlice("tag", nil, "tag added to every data point (repeatable)")
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics SESSION_ID",
		Short: "Print a session's derived analytics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, "GetAnalytics", map[string]interface{}{"sessionId": args[0]})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

func call(cmd *cobra.Command, method string, req map[string]interface{}) (map[string]interface{}, error) {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	conn, err := grpc.NewClient(server, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", server, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return handler.NewFusionClient(conn).Call(ctx, method, req)
}

func printBatch(w io.Writer, resp map[string]interface{}) error {
	fmt.Fprintf(w, "📥 %v/%v items imported, %v data points added, %v failed\n",
		resp["successful"], resp["total"], resp["added"], resp["failed"])
	if errs, ok := resp["errors"].([]interface{}); ok {
		for _, e := range errs {
			fmt.Fprintf(w, "⚠️  %v\n", e)
		}
	}
	if failed, _ := resp["failed"].(float64); failed > 0 {
		if successful, _ := resp["successful"].(float64); successful == 0 {
			return fmt.Errorf("no item could be imported")
		}
	}
	return nil
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "structured-record"
	case ".csv", ".tsv":
		return "delimited-table"
	case ".xml":
		return "markup-tree"
	default:
		return "line-list"
	}
}

func setIfNotEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}
