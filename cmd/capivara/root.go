/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import "github.com/spf13/cobra"

// Exit codes, matching the shape of BSD sysexits.h: 0 for success, 64 for
// CLI usage errors, 66 for a missing classpath input, 69 for a requested
// service that isn't available in this subset of the interpreter.
const (
	exOK          = 0
	exUsage       = 64
	exNoInput     = 66
	exUnavailable = 69
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "capivara",
	Short: "CapivaraVM is a Java 8 class-file interpreter",
	Long: "CapivaraVM parses Java 8 class files (major version 52), links their " +
		"static state, and interprets a core subset of the JVM instruction set.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "trace level (FINE, INFO, WARNING, SEVERE)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(stepCmd)
}
