package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"promptlint/internal/prompt"
	"promptlint/internal/transcode"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <path>",
	Short: "Pack a prompt document as base64-wrapped gzip",
	Long: `Encode validates a JSON prompt document and writes it to stdout as
base64-wrapped gzip, safe for channels that mangle raw JSON. Use - to read
from stdin.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		if _, err := prompt.DecodeBytes(data); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "not a valid JSON document: %v\n", err)
			os.Exit(exitMalformed)
		}
		if err := transcode.Encode(cmd.OutOrStdout(), data); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:          "decode <path>",
	Short:        "Unpack a document produced by encode",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		doc, err := transcode.Decode(bytes.NewReader(data))
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			os.Exit(exitMalformed)
		}
		_, err = cmd.OutOrStdout().Write(doc)
		return err
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
