package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "cipherkit"
const cliBanner = productName + " CLI (cipherctl)"

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, cliBanner)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage: cipherctl <command> [flags]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  run       run one operation")
		fmt.Fprintln(out, "  pipeline  run a chain of operations")
		fmt.Fprintln(out, "  list      list the registered operations")
		fmt.Fprintln(out, "  detect    guess the encoding of the input")
		fmt.Fprintln(out, "  recipe    save, list, show, run or delete recipes")
		fmt.Fprintln(out, "  serve     start the HTTP API")
		fmt.Fprintln(out, "  config    print the resolved configuration")
		fmt.Fprintln(out, "  version   print the version")
		if defaultUsage != nil {
			fmt.Fprintln(out)
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	os.Exit(dispatch(flag.Args()))
}

func dispatch(args []string) int {
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	switch args[0] {
	case "run":
		return runOperation(args[1:])
	case "pipeline":
		return runPipeline(args[1:])
	case "list":
		return runList(args[1:])
	case "detect":
		return runDetect(args[1:])
	case "recipe":
		return runRecipe(args[1:])
	case "serve":
		return runServe(args[1:])
	case "config":
		return runConfig(args[1:])
	case "version":
		return runVersion(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		return 2
	}
}
