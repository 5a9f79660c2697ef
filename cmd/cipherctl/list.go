package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/cipherkit/internal/cipher"
)

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opType := fs.String("type", "", "only list operations of this type (encode, decode, encrypt, ...)")
	asJSON := fs.Bool("json", false, "print JSON including parameters")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	infos := cipher.Describe()
	if *opType != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if strings.EqualFold(string(info.Type), *opType) {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			reportError("list", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tREVERSE\tDESCRIPTION")
	for _, info := range infos {
		reverse := info.Reverse
		if reverse == "" {
			reverse = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Type, reverse, info.Description)
	}
	if err := w.Flush(); err != nil {
		reportError("list", err)
		return 1
	}
	return 0
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	decode := fs.Bool("decode", false, "also run each suggested operation")
	var iof ioFlags
	iof.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	input, err := iof.readInput()
	if err != nil {
		reportError("input", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	ctx := context.Background()

	if *decode {
		results, err := cipher.DecodeAll(ctx, input)
		if err != nil {
			reportError("detect", err)
			return 1
		}
		type decoded struct {
			cipher.DetectionResult
			Output  string `json:"output,omitempty"`
			Success bool   `json:"success"`
			Error   string `json:"error,omitempty"`
		}
		out := make([]decoded, len(results))
		for i, res := range results {
			out[i] = decoded{DetectionResult: res.Detection, Output: string(res.Decoded), Success: res.Success, Error: res.Error}
		}
		if err := enc.Encode(out); err != nil {
			reportError("detect", err)
			return 1
		}
		return 0
	}

	detections, err := cipher.NewSmartDetector().Detect(ctx, input)
	if err != nil {
		reportError("detect", err)
		return 1
	}
	if detections == nil {
		detections = []cipher.DetectionResult{}
	}
	if err := enc.Encode(detections); err != nil {
		reportError("detect", err)
		return 1
	}
	return 0
}
