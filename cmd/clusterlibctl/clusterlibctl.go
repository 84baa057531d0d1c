// clusterlibctl mirrors cmd/devicedb's subcommand dispatch: a flat
// registry of named subcommands, each with its own usage string, picked
// by the first non-flag argument.
package main

import (
	"flag"
	"fmt"
	"os"
)

var optConfigFile *string

type commandFunc func()

var commands = make(map[string]commandFunc)
var usages = make(map[string]string)

func registerCommand(name string, fn commandFunc, usage string) {
	commands[name] = fn
	usages[name] = usage
}

func init() {
	optConfigFile = flag.String("conf", "", "Config file to use")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	fn, ok := commands[name]
	if !ok {
		fmt.Printf("Unknown command %q\n\n", name)
		printUsage()
		os.Exit(1)
	}

	flag.CommandLine.Parse(os.Args[2:])
	fn()
}

func printUsage() {
	fmt.Println("Usage: clusterlibctl <command> [flags]")
	fmt.Println("Commands:")
	for name, usage := range usages {
		fmt.Printf("  %s\n%s\n", name, usage)
	}
}
