package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/logging"
)

func runOperation(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opName := fs.String("op", "", "operation name (see cipherctl list)")
	params := paramFlags{}
	fs.Var(params, "p", "operation parameter as name=value (repeatable)")
	var iof ioFlags
	iof.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *opName == "" && fs.NArg() > 0 {
		*opName = fs.Arg(0)
	}
	if *opName == "" {
		fmt.Fprintln(os.Stderr, "-op is required")
		return 2
	}
	if err := iof.validateOutFormat(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	op, ok := cipher.GetOperation(*opName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown operation: %s\n", *opName)
		return 2
	}

	env, err := loadEnvironment("cipherctl")
	if err != nil {
		reportError("cipherctl", err)
		return 1
	}
	defer env.close()

	input, err := iof.readInput()
	if err != nil {
		reportError("input", err)
		return 1
	}

	out, err := op.Execute(context.Background(), input, params)
	if env.logger != nil {
		_ = env.logger.OperationResult("", *opName, params, len(input), err)
	}
	if err != nil {
		reportError(*opName, err)
		return 1
	}
	if err := iof.writeOutput(os.Stdout, out); err != nil {
		reportError("output", err)
		return 1
	}
	return 0
}

func runPipeline(args []string) int {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "pipeline file (YAML or JSON)")
	steps := fs.String("steps", "", "comma separated operation names")
	reverse := fs.Bool("reverse", false, "run the inverse pipeline")
	var iof ioFlags
	iof.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := iof.validateOutFormat(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	pipeline, err := loadSteps(*file, *steps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return executePipeline(pipeline, *reverse, iof, "")
}

// executePipeline runs pipeline, or its inverse, against the input selected
// by iof and records the run in the audit log.
func executePipeline(pipeline cipher.Pipeline, reverse bool, iof ioFlags, recipe string) int {
	if reverse {
		pipeline.Reversible = true
		reversed, err := pipeline.Reverse()
		if err != nil {
			reportError("reverse", err)
			return 1
		}
		pipeline = *reversed
	}

	env, err := loadEnvironment("cipherctl")
	if err != nil {
		reportError("cipherctl", err)
		return 1
	}
	defer env.close()

	input, err := iof.readInput()
	if err != nil {
		reportError("input", err)
		return 1
	}

	out, err := pipeline.Execute(context.Background(), input)
	if env.logger != nil {
		auditPipeline(env.logger, pipeline, recipe, reverse, len(input), err)
	}
	if err != nil {
		reportError("pipeline", err)
		return 1
	}
	if err := iof.writeOutput(os.Stdout, out); err != nil {
		reportError("output", err)
		return 1
	}
	return 0
}

func auditPipeline(logger *logging.AuditLogger, pipeline cipher.Pipeline, recipe string, reverse bool, inputLen int, err error) {
	steps := make([]string, len(pipeline.Operations))
	for i, step := range pipeline.Operations {
		steps[i] = step.Name
	}
	event := logging.AuditEvent{
		EventType: logging.EventPipelineExecuted,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"steps": steps, "reverse": reverse, "input_bytes": inputLen},
	}
	if recipe != "" {
		event.Metadata["recipe"] = recipe
	}
	if err != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = err.Error()
	}
	_ = logger.Emit(event)
}
