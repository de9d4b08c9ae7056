/*
Copyright 2018-2024 Luc Deneve
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	okapi "github.com/ldeneve/okapi-go"
	kio "github.com/ldeneve/okapi-go/io"
)

const (
	APP_HEADER = "Okapi 1.0 (C) 2024,  Luc Deneve"
)

type args struct {
	mode       string
	inputName  string
	outputName string
	overwrite  bool
	verbosity  int
}

func main() {
	os.Exit(run())
}

func run() int {
	parsed, code := processCommandLine(os.Args[1:])

	if code >= 0 {
		return code
	}

	var err error
	var errCode int

	if parsed.mode == "c" {
		errCode, err = compress(parsed)
	} else {
		errCode, err = decompress(parsed)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return errCode
	}

	return 0
}

func processCommandLine(cmdArgs []string) (args, int) {
	parsed := args{verbosity: 1}
	mode := ""

	for i := 0; i < len(cmdArgs); i++ {
		arg := strings.TrimSpace(cmdArgs[i])

		switch {
		case arg == "-c" || arg == "-d":
			if mode != "" && mode != arg[1:] {
				fmt.Println("Exactly one of -c or -d must be provided")
				return parsed, okapi.ERR_INVALID_PARAM
			}

			mode = arg[1:]

		case arg == "-f":
			parsed.overwrite = true

		case arg == "-h":
			printHelp()
			return parsed, 0

		case strings.HasPrefix(arg, "-v="):
			v, err := strconv.Atoi(arg[3:])

			if err != nil || v < 0 || v > 2 {
				fmt.Printf("Invalid verbosity level provided on command line: %v\n", arg)
				return parsed, okapi.ERR_INVALID_PARAM
			}

			parsed.verbosity = v

		case parsed.inputName == "":
			parsed.inputName = arg

		case parsed.outputName == "":
			parsed.outputName = arg

		default:
			fmt.Printf("Warning: ignoring unknown option [%v]\n", arg)
		}
	}

	if mode == "" {
		printHelp()
		return parsed, okapi.ERR_MISSING_PARAM
	}

	if parsed.inputName == "" || parsed.outputName == "" {
		fmt.Println("Missing input or output file name")
		return parsed, okapi.ERR_MISSING_PARAM
	}

	parsed.mode = mode
	return parsed, -1
}

func printHelp() {
	fmt.Println(APP_HEADER)
	fmt.Println("\nUsage: okapi [-c|-d] [options] input output")
	fmt.Println("  -c      compress")
	fmt.Println("  -d      decompress")
	fmt.Println("  -f      overwrite the output file if it exists")
	fmt.Println("  -v=<n>  verbosity: 0=silent, 1=default, 2=progress")
	fmt.Println("  -h      display this message")
}

// detectVocabulary scans the input once: a byte is admitted iff it
// occurs. An empty input admits everything.
func detectVocabulary(data []byte) []bool {
	vocab := make([]bool, 256)

	if len(data) == 0 {
		for i := range vocab {
			vocab[i] = true
		}

		return vocab
	}

	for _, b := range data {
		vocab[b] = true
	}

	return vocab
}

func openOutput(name string, overwrite bool) (*os.File, int, error) {
	if fi, err := os.Stat(name); err == nil {
		if fi.IsDir() == true {
			return nil, okapi.ERR_OUTPUT_IS_DIR, errors.New("the output file cannot be a directory")
		}

		if overwrite == false {
			return nil, okapi.ERR_OVERWRITE_FILE,
				errors.Errorf("file '%s' exists and the overwrite option is not set", name)
		}
	}

	f, err := os.Create(name)

	if err != nil {
		return nil, okapi.ERR_CREATE_FILE, errors.Wrap(err, "cannot create output file")
	}

	return f, 0, nil
}

func compress(parsed args) (int, error) {
	data, err := os.ReadFile(parsed.inputName)

	if err != nil {
		return okapi.ERR_OPEN_FILE, errors.Wrap(err, "cannot read input file")
	}

	output, code, err := openOutput(parsed.outputName, parsed.overwrite)

	if err != nil {
		return code, err
	}

	defer output.Close()
	vocab := detectVocabulary(data)
	listeners := makeListeners(parsed.verbosity, int64(len(data)))
	notify(listeners, okapi.NewEvent(okapi.EVT_COMPRESSION_START, int64(len(data)), 0, false, time.Time{}))
	notify(listeners, okapi.NewEvent(okapi.EVT_VOCABULARY_DONE, int64(countVocab(vocab)), 0, false, time.Time{}))
	before := time.Now()
	written, err := kio.Compress(output, data, vocab, listeners...)

	if err != nil {
		return okapi.ERR_WRITE_FILE, errors.Wrap(err, "compression failed")
	}

	notify(listeners, okapi.NewEvent(okapi.EVT_COMPRESSION_END, int64(written), 0, false, time.Time{}))

	if parsed.verbosity > 0 {
		delta := time.Since(before).Milliseconds()
		fmt.Printf("Compressed %v: %d => %d bytes in %d ms\n", parsed.inputName,
			len(data), written, delta)
	}

	return 0, nil
}

func decompress(parsed args) (int, error) {
	input, err := os.Open(parsed.inputName)

	if err != nil {
		return okapi.ERR_OPEN_FILE, errors.Wrap(err, "cannot open input file")
	}

	defer input.Close()
	output, code, err := openOutput(parsed.outputName, parsed.overwrite)

	if err != nil {
		return code, err
	}

	defer output.Close()
	listeners := makeListeners(parsed.verbosity, -1)
	notify(listeners, okapi.NewEvent(okapi.EVT_DECOMPRESSION_START, -1, 0, false, time.Time{}))
	before := time.Now()
	data, err := kio.Decompress(input, listeners...)

	if err != nil {
		return okapi.ERR_INVALID_FILE, errors.Wrap(err, "decompression failed")
	}

	if _, err := output.Write(data); err != nil {
		return okapi.ERR_WRITE_FILE, errors.Wrap(err, "cannot write output file")
	}

	notify(listeners, okapi.NewEvent(okapi.EVT_DECOMPRESSION_END, int64(len(data)), 0, false, time.Time{}))

	if parsed.verbosity > 0 {
		delta := time.Since(before).Milliseconds()
		fmt.Printf("Decompressed %v: %d bytes in %d ms\n", parsed.inputName, len(data), delta)
	}

	return 0, nil
}

func countVocab(vocab []bool) int {
	n := 0

	for _, v := range vocab {
		if v == true {
			n++
		}
	}

	return n
}

func notify(listeners []okapi.Listener, evt *okapi.Event) {
	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}

// consoleListener prints processing events, optionally with progress.
type consoleListener struct {
	verbosity int
	total     int64
}

func makeListeners(verbosity int, total int64) []okapi.Listener {
	if verbosity < 2 {
		return nil
	}

	return []okapi.Listener{&consoleListener{verbosity: verbosity, total: total}}
}

func (this *consoleListener) ProcessEvent(evt *okapi.Event) {
	if evt.Type() == okapi.EVT_PROGRESS {
		if this.total > 0 {
			fmt.Printf("\r%3d%%", 100*evt.Size()/this.total)
		}

		return
	}

	fmt.Println(evt.String())
}
