package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eskila/jdoc"
)

const defaultBufferSize = 256

func newSnippetCommand() *cobra.Command {
	bufferSize := defaultBufferSize
	var allowTruncate bool
	cmd := &cobra.Command{
		Use:   "snippet",
		Short: "Print a sample nested pin document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bufferSize < 0 {
				return fmt.Errorf("--buffer-size must not be negative, got %d", bufferSize)
			}
			output := make([]byte, bufferSize)
			n, err := pinDocument().Serialize(output)
			if err != nil && !allowTruncate {
				return fmt.Errorf("serialize snippet: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Hello World!")
			fmt.Fprintln(w, string(output[:n]))
			return nil
		},
	}
	cmd.Flags().IntVar(&bufferSize, "buffer-size", bufferSize, "Capacity of the output buffer in bytes")
	cmd.Flags().BoolVar(&allowTruncate, "allow-truncate", false, "Print truncated output instead of failing when the buffer is too small")
	return cmd
}

func pinDocument() *jdoc.Document {
	doc := jdoc.New()

	pin1 := doc.Promote("pin1")
	pin1.SetInt("value", 1500)
	pin1.SetInt("pin", 32)

	pin2 := doc.Promote("pin2")
	pin2.SetInt("value", 2000)
	pin2.SetInt("pin", 33)

	return doc
}
