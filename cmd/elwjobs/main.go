// Package main is the entry point for the elwjobs CLI.
package main

import "github.com/Bipartisan-Policy-Center/election-official-job-descriptions/cmd"

func main() {
	cmd.Execute()
}
